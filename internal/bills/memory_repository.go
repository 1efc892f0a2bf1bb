package bills

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type memoryRepository struct {
	catalog []Bill
}

// NewMemoryRepository constructs an in-memory catalog for development and tests.
func NewMemoryRepository(catalog []Bill) Repository {
	out := make([]Bill, len(catalog))
	copy(out, catalog)
	return &memoryRepository{catalog: out}
}

func (r *memoryRepository) List(_ context.Context) ([]Bill, error) {
	out := make([]Bill, len(r.catalog))
	copy(out, r.catalog)
	return out, nil
}

// DefaultCatalog returns the seeded development catalog.
func DefaultCatalog() []Bill {
	day := 24 * time.Hour
	now := time.Now().UTC().Truncate(day)
	return []Bill{
		{
			ID:           "1",
			Vendor:       "Metro Power & Light",
			Amount:       decimal.RequireFromString("84.20"),
			RemitTo:      common.HexToAddress("0x1f9090aaE28b8a3dCeaDf281B0F12828e676c326"),
			ReceivedDate: now.Add(-20 * day),
			DueDate:      now.Add(10 * day),
			Status:       StatusUnpaid,
		},
		{
			ID:           "2",
			Vendor:       "Northside Water Utility",
			Amount:       decimal.RequireFromString("39.75"),
			RemitTo:      common.HexToAddress("0x2Ef4400b9B4BbA1eF6c65c4B4b7a3fcf7868D7a9"),
			ReceivedDate: now.Add(-14 * day),
			DueDate:      now.Add(16 * day),
			Status:       StatusUnpaid,
		},
		{
			ID:           "3",
			Vendor:       "Skyline Internet",
			Amount:       decimal.RequireFromString("65.00"),
			RemitTo:      common.HexToAddress("0x3bC914aF231Eb9b56B29Ccc22e1e48dD62A0F4eC"),
			ReceivedDate: now.Add(-7 * day),
			DueDate:      now.Add(23 * day),
			Status:       StatusUnpaid,
		},
	}
}
