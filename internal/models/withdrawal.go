package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusRejected  = "rejected"
)

const WithdrawalMethodBankTransfer = "bank_transfer"

type Withdrawal struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	SellerID       uuid.UUID  `db:"seller_id" json:"seller_id"`
	Reference      string     `db:"reference" json:"reference"`
	Amount         float64    `db:"amount" json:"amount"`
	Method         string     `db:"method" json:"method"`
	PayoutMethodID *uuid.UUID `db:"payout_method_id" json:"payout_method_id,omitempty"`
	Status         string     `db:"status" json:"status"`
	RequestedAt    time.Time  `db:"requested_at" json:"requested_at"`
	ProcessedAt    *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}
