package bills

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/railbill/railbill/internal/chain"
	"github.com/railbill/railbill/internal/money"
	"github.com/railbill/railbill/internal/notification"
)

var (
	// ErrNoAddress indicates payment was attempted without a resolved wallet.
	ErrNoAddress = errors.New("wallet address is required")
	// ErrAlreadyPaid indicates the bill is already settled.
	ErrAlreadyPaid = errors.New("bill already paid")
	// ErrPaymentInFlight indicates a prior payment for the bill has not resolved.
	ErrPaymentInFlight = errors.New("payment already in flight for this bill")
)

// Service tracks the bill catalog and drives per-bill settlement against the
// wallet's write capability. At most one payment per bill may be in flight;
// payments for different bills proceed concurrently.
type Service struct {
	repo     Repository
	sender   chain.TxSender
	notifier notification.Notifier
	token    common.Address
	chainID  int64

	mu       sync.Mutex
	catalog  map[string]Bill
	order    []string
	overlay  map[string]Status
	inFlight map[string]struct{}
}

// NewService builds the bill settlement manager. The catalog is empty until
// Load is called for a session.
func NewService(repo Repository, sender chain.TxSender, notifier notification.Notifier, token common.Address, chainID int64) *Service {
	return &Service{
		repo:     repo,
		sender:   sender,
		notifier: notifier,
		token:    token,
		chainID:  chainID,
		catalog:  make(map[string]Bill),
		overlay:  make(map[string]Status),
		inFlight: make(map[string]struct{}),
	}
}

// Load seeds the catalog from the repository, discarding any session-local
// state from a previous load.
func (s *Service) Load(ctx context.Context) error {
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load bill catalog: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = make(map[string]Bill, len(catalog))
	s.order = make([]string, 0, len(catalog))
	s.overlay = make(map[string]Status)
	s.inFlight = make(map[string]struct{})
	for _, b := range catalog {
		s.catalog[b.ID] = b
		s.order = append(s.order, b.ID)
	}
	return nil
}

// List returns the catalog with session-local status transitions applied.
func (s *Service) List() []Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Bill, 0, len(s.order))
	for _, id := range s.order {
		b := s.catalog[id]
		if status, ok := s.overlay[id]; ok {
			b.Status = status
		}
		out = append(out, b)
	}
	return out
}

// InFlight returns the ids of bills with an unresolved payment, in catalog order.
func (s *Service) InFlight() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.inFlight))
	for _, id := range s.order {
		if _, ok := s.inFlight[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// PayBill converts the bill amount to stablecoin units and submits an ERC-20
// transfer to the vendor. The in-flight guard for the bill is taken before
// submission; a failed submission releases it, a successful one keeps it as
// the awaiting-confirmation marker. The catalog row itself is never mutated.
func (s *Service) PayBill(ctx context.Context, walletAddress, billID string) (string, error) {
	if walletAddress == "" {
		return "", ErrNoAddress
	}

	s.mu.Lock()
	bill, ok := s.catalog[billID]
	if !ok {
		s.mu.Unlock()
		return "", ErrUnknownBill
	}
	status := bill.Status
	if overlaid, ok := s.overlay[billID]; ok {
		status = overlaid
	}
	if status == StatusPaid {
		s.mu.Unlock()
		return "", ErrAlreadyPaid
	}
	if _, busy := s.inFlight[billID]; busy {
		s.mu.Unlock()
		return "", ErrPaymentInFlight
	}
	s.inFlight[billID] = struct{}{}
	s.mu.Unlock()

	units, err := money.ToRaw(bill.Amount, money.USDCDecimals)
	if err != nil {
		s.release(billID)
		return "", fmt.Errorf("convert bill amount: %w", err)
	}

	// Outside the lock: other bills may settle concurrently.
	ref, err := s.sender.Submit(ctx, chain.TxRequest{
		ChainID: s.chainID,
		To:      s.token,
		Data:    chain.TransferData(bill.RemitTo, units),
	})
	if err != nil {
		s.release(billID)
		return "", fmt.Errorf("submit settlement: %w", err)
	}

	s.mu.Lock()
	s.overlay[billID] = StatusPending
	s.mu.Unlock()

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Title:       "Payment processing",
			Description: fmt.Sprintf("Payment of $%s to %s submitted: %s", money.Format(bill.Amount, money.USDDisplayDigits), bill.Vendor, ref),
			Variant:     notification.VariantDefault,
		})
	}

	return ref, nil
}

// Reset discards all session-local state on teardown.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = make(map[string]Bill)
	s.order = nil
	s.overlay = make(map[string]Status)
	s.inFlight = make(map[string]struct{})
}

func (s *Service) release(billID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, billID)
}
