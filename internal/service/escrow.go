package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/domain/valueobject"
	"github.com/ignatzorin/gig-marketplace/internal/logger"
	"github.com/ignatzorin/gig-marketplace/internal/metrics"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/payment"
	"github.com/ignatzorin/gig-marketplace/internal/pkg/apperror"
)

// SellerAccounts возвращает продавца вместе с идентификатором счёта для выплат.
type SellerAccounts interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Escrow выполняет денежные операции по заказу через платёжный шлюз.
// Вызывается внутри Mutate, пока строка заказа заблокирована.
type Escrow struct {
	gateway payment.Gateway
	sellers SellerAccounts
	pricing valueobject.Pricing
}

func NewEscrow(gateway payment.Gateway, sellers SellerAccounts, pricing valueobject.Pricing) *Escrow {
	return &Escrow{gateway: gateway, sellers: sellers, pricing: pricing}
}

// Release переводит долю продавца на его счёт. Если у заказа нет платежа
// или у продавца не подключён счёт, перевод пропускается, а заказ всё равно
// считается выплаченным: деньги остаются на балансе платформы.
func (e *Escrow) Release(ctx context.Context, order *models.Order, description string) (string, error) {
	log := logger.Component("escrow").WithField("order_id", order.ID)
	if order.PaymentIntentID == nil {
		return "", nil
	}

	seller, err := e.sellers.GetByID(ctx, order.SellerID)
	if err != nil {
		return "", mapError(err)
	}
	if seller.PaymentAccountID == nil || *seller.PaymentAccountID == "" {
		log.Warn("seller has no payout account, transfer skipped")
		return "", nil
	}

	split := e.pricing.Split(order.Amount, order.TotalAmount)
	transferID, err := e.gateway.Transfer(ctx, payment.TransferRequest{
		AmountCents: split.SellerAmountCents,
		Currency:    payment.DefaultCurrency,
		Destination: *seller.PaymentAccountID,
		OrderID:     order.ID.String(),
		Description: description,
	})
	metrics.PaymentOperation("transfer", err)
	if err != nil {
		log.WithError(err).Error("transfer failed")
		return "", apperror.Wrap(err, apperror.ErrCodePayment, "не удалось перевести оплату продавцу")
	}
	log.WithField("transfer_id", transferID).Info("funds released to seller")
	return transferID, nil
}

// Unwind возвращает деньги покупателю: незахваченное намерение отменяется,
// захваченное возвращается. Остальные состояния намерения не требуют действий.
func (e *Escrow) Unwind(ctx context.Context, order *models.Order) error {
	if order.PaymentIntentID == nil {
		return nil
	}
	intentID := *order.PaymentIntentID

	intent, err := e.gateway.Get(ctx, intentID)
	metrics.PaymentOperation("get", err)
	if err != nil {
		return mapError(err)
	}

	switch intent.Status {
	case payment.StatusRequiresCapture:
		_, err = e.gateway.Cancel(ctx, intentID)
		metrics.PaymentOperation("cancel", err)
	case payment.StatusSucceeded:
		err = e.gateway.Refund(ctx, intentID)
		metrics.PaymentOperation("refund", err)
	default:
		return nil
	}
	if err != nil {
		logger.Component("escrow").WithError(err).WithField("order_id", order.ID).Error("refund failed")
		return apperror.Wrap(err, apperror.ErrCodePayment, "не удалось вернуть оплату покупателю")
	}
	return nil
}
