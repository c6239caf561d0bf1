package valueobject

import (
	"math"

	"github.com/ignatzorin/gig-marketplace/internal/pkg/apperror"
)

// Pricing содержит параметры расчёта стоимости заказа.
type Pricing struct {
	// FeePercent: комиссия платформы в процентах.
	FeePercent float64
	// INRToUSD: курс перевода цены услуги из рупий в доллары.
	INRToUSD float64
}

// OrderQuote: рассчитанная стоимость заказа в долларах.
type OrderQuote struct {
	Amount     float64
	ServiceFee float64
	Total      float64
}

// EscrowSplit: распределение оплаты в центах.
type EscrowSplit struct {
	TotalCents        int64
	PlatformFeeCents  int64
	SellerAmountCents int64
}

// Quote переводит цену услуги в доллары и добавляет комиссию.
// Суммы округляются до целого доллара.
func (p Pricing) Quote(priceINR float64) (OrderQuote, error) {
	if priceINR < 0 {
		return OrderQuote{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	amount := math.Round(priceINR * p.INRToUSD)
	fee := math.Round(amount * p.FeePercent / 100)
	return OrderQuote{Amount: amount, ServiceFee: fee, Total: amount + fee}, nil
}

// Split считает сумму к списанию, комиссию платформы и долю продавца в центах.
func (p Pricing) Split(amount, total float64) EscrowSplit {
	platformFee := int64(math.Round(amount * p.FeePercent / 100 * 100))
	return EscrowSplit{
		TotalCents:        ToCents(total),
		PlatformFeeCents:  platformFee,
		SellerAmountCents: ToCents(amount) - platformFee,
	}
}

// Net возвращает сумму, которую продавец получает после комиссии.
func (p Pricing) Net(amount float64) float64 {
	return RoundCents(amount * (100 - p.FeePercent) / 100)
}

// Fee возвращает комиссию платформы с суммы.
func (p Pricing) Fee(amount float64) float64 {
	return RoundCents(amount * p.FeePercent / 100)
}

// ToCents переводит доллары в центы.
func ToCents(usd float64) int64 {
	return int64(math.Round(usd * 100))
}

// RoundCents округляет сумму до центов.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
