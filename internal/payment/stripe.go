package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway работает с PaymentIntents, Refunds и Transfers Stripe.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway создаёт шлюз с секретным ключом.
func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{api: sc}
}

// Authorize создаёт PaymentIntent с ручным списанием.
func (g *StripeGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*Intent, error) {
	currency := req.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent %w", err)
	}
	return fromStripeIntent(pi), nil
}

// Get возвращает текущее состояние PaymentIntent.
func (g *StripeGateway) Get(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, mapStripeError("retrieve payment intent", err)
	}
	return fromStripeIntent(pi), nil
}

// Capture списывает ранее авторизованную сумму.
func (g *StripeGateway) Capture(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Capture(intentID, params)
	if err != nil {
		return nil, mapStripeError("capture payment intent", err)
	}
	return fromStripeIntent(pi), nil
}

// Cancel снимает авторизацию без списания.
func (g *StripeGateway) Cancel(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Cancel(intentID, params)
	if err != nil {
		return nil, mapStripeError("cancel payment intent", err)
	}
	return fromStripeIntent(pi), nil
}

// Refund возвращает покупателю списанную сумму.
func (g *StripeGateway) Refund(ctx context.Context, intentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if _, err := g.api.Refunds.New(params); err != nil {
		return mapStripeError("create refund", err)
	}
	return nil
}

// Transfer переводит долю продавца на его подключённый аккаунт.
func (g *StripeGateway) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	currency := req.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(currency),
		Destination:   stripe.String(req.Destination),
		TransferGroup: stripe.String(req.OrderID),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.AddMetadata("orderId", req.OrderID)
	params.Context = ctx

	tr, err := g.api.Transfers.New(params)
	if err != nil {
		return "", mapStripeError("create transfer", err)
	}
	return tr.ID, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *Intent {
	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Metadata:     pi.Metadata,
	}
	if pi.LatestCharge != nil {
		intent.ChargeID = pi.LatestCharge.ID
	}
	return intent
}

func mapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return ErrIntentNotFound
	}
	return fmt.Errorf("stripe: %s %w", op, err)
}
