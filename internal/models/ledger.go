package models

import "time"

// Ledger transaction types.
const (
	LedgerDebit  = "DEBIT"
	LedgerCredit = "CREDIT"
)

// LedgerEntry is one wallet movement. ClosingBalance is computed at write
// time from the balance the write observed, not recomputed from history.
type LedgerEntry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	Amount         float64   `json:"amount"`
	ClosingBalance float64   `json:"closing_balance"`
	Reason         string    `json:"reason"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RechargeRequest is the client payload for a wallet top-up.
type RechargeRequest struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethodID string  `json:"payment_method_id" validate:"required"`
}

// ErrorResponse is the uniform JSON error envelope.
type ErrorResponse struct {
	Message string `json:"message"`
}
