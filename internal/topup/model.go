package topup

import (
	"time"

	"github.com/shopspring/decimal"
)

// Method identifies the funding rail a top-up was submitted through.
type Method string

const (
	// MethodACH is a bank transfer through the funding partner.
	MethodACH Method = "ach"
	// MethodCard is a card payment through the embedded-wallet flow.
	MethodCard Method = "card"
)

// Status is the best-known state of a top-up. Neither rail reports
// completion in this design, so records stay pending until an external
// reconciliation source transitions them.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TopUp records one funding attempt.
type TopUp struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    Method          `json:"method"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
