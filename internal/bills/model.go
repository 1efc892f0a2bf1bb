package bills

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Status is the settlement state of a bill. With no confirmation channel a
// submitted payment marks the bill pending; nothing moves it to paid on its
// own.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Bill is one outstanding invoice in the catalog.
type Bill struct {
	ID           string          `json:"id"`
	Vendor       string          `json:"vendor"`
	Amount       decimal.Decimal `json:"amount"`
	RemitTo      common.Address  `json:"remit_to"`
	ReceivedDate time.Time       `json:"received_date"`
	DueDate      time.Time       `json:"due_date"`
	Status       Status          `json:"status"`
}
