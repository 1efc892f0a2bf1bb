package bills

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrUnknownBill indicates a bill id that is not in the catalog.
var ErrUnknownBill = errors.New("bill not found")

// Repository is the catalog source of record. The catalog is read-mostly:
// settlement never writes back to it.
type Repository interface {
	List(ctx context.Context) ([]Bill, error)
}

// PostgresRepository reads the bill catalog from PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List fetches the catalog ordered by due date.
func (r *PostgresRepository) List(ctx context.Context) ([]Bill, error) {
	rows, err := r.db.Query(ctx, `SELECT id, vendor, amount, remit_to, received_date, due_date, status
        FROM bills ORDER BY due_date, id`)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var out []Bill
	for rows.Next() {
		var (
			b            Bill
			amount       string
			remitTo      string
			receivedDate time.Time
			dueDate      time.Time
			status       string
		)
		if err := rows.Scan(&b.ID, &b.Vendor, &amount, &remitTo, &receivedDate, &dueDate, &status); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bill %s amount: %w", b.ID, err)
		}
		b.RemitTo = common.HexToAddress(remitTo)
		b.ReceivedDate = receivedDate.UTC()
		b.DueDate = dueDate.UTC()
		b.Status = Status(status)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return out, nil
}
