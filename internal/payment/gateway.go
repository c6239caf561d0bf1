// Package payment содержит шлюз платёжного процессора: авторизация с ручным
// списанием, списание, отмена, возврат и перевод продавцу.
package payment

import (
	"context"
	"errors"
)

// Статусы платёжного намерения, с которыми работает эскроу.
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresCapture       = "requires_capture"
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
)

// ErrIntentNotFound возвращается, если процессор не знает платёжное намерение.
var ErrIntentNotFound = errors.New("payment intent not found")

// Intent: платёжное намерение процессора.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	ChargeID     string
	Metadata     map[string]string
}

// AuthorizeRequest описывает авторизацию суммы без немедленного списания.
type AuthorizeRequest struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// TransferRequest описывает перевод доли продавца на подключённый аккаунт.
type TransferRequest struct {
	AmountCents int64
	Currency    string
	Destination string
	OrderID     string
	Description string
}

// Gateway: операции процессора, которые использует эскроу заказов.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*Intent, error)
	Get(ctx context.Context, intentID string) (*Intent, error)
	Capture(ctx context.Context, intentID string) (*Intent, error)
	Cancel(ctx context.Context, intentID string) (*Intent, error)
	Refund(ctx context.Context, intentID string) error
	Transfer(ctx context.Context, req TransferRequest) (string, error)
}

// DefaultCurrency: валюта всех платежей платформы.
const DefaultCurrency = "usd"
