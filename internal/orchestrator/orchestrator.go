package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/railbill/railbill/internal/balance"
	"github.com/railbill/railbill/internal/bills"
	"github.com/railbill/railbill/internal/notification"
	"github.com/railbill/railbill/internal/topup"
)

// ErrNoSession indicates an operation was attempted without an
// authenticated session.
var ErrNoSession = errors.New("no active session")

// Session is the authenticated state the orchestrator owns. It exists only
// between OnAuthenticated and OnDeauthenticated; everything it references is
// discarded on teardown.
type Session struct {
	Address   string
	StartedAt time.Time
}

// ReadModel is the single consistent view exposed to the presentation layer.
type ReadModel struct {
	Address         string           `json:"address"`
	Balance         *balance.Balance `json:"balance,omitempty"`
	TopUps          []topup.TopUp    `json:"top_ups"`
	Bills           []bills.Bill     `json:"bills"`
	InFlightBillIDs []string         `json:"in_flight_bill_ids"`
}

// Orchestrator composes the balance tracker, funding lifecycle, and bill
// settlement behind the session gate. It owns the wallet address; the
// managers receive it per call and never cache it.
type Orchestrator struct {
	tracker  *balance.Tracker
	topups   *topup.Service
	bills    *bills.Service
	notifier notification.Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	session *Session
}

// New wires the orchestrator. It is inert until OnAuthenticated.
func New(tracker *balance.Tracker, topups *topup.Service, billSvc *bills.Service, notifier notification.Notifier, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		tracker:  tracker,
		topups:   topups,
		bills:    billSvc,
		notifier: notifier,
		logger:   logger,
	}
}

// OnAuthenticated activates a session for the resolved wallet address. A
// repeat call for the same address is a no-op; a different address tears the
// previous session down first. The fund-wallet prompt fires once per
// session and is never re-armed by balance changes.
func (o *Orchestrator) OnAuthenticated(ctx context.Context, address string) error {
	if address == "" {
		return balance.ErrNoAddress
	}

	o.mu.Lock()
	if o.session != nil && o.session.Address == address {
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	o.OnDeauthenticated()

	if err := o.bills.Load(ctx); err != nil {
		return err
	}
	if err := o.tracker.Start(address); err != nil {
		return err
	}

	o.mu.Lock()
	o.session = &Session{Address: address, StartedAt: time.Now().UTC()}
	o.mu.Unlock()

	_ = o.notifier.Send(ctx, notification.Message{
		Title:       "Fund Your Wallet",
		Description: "Add funds to get started with crypto payments",
		Variant:     notification.VariantDefault,
		Action: &notification.Action{
			Label:  "Fund Wallet",
			Kind:   notification.ActionFundWallet,
			Amount: "1.00",
		},
	})

	o.logger.Info("session started", "address", address)
	return nil
}

// OnDeauthenticated tears the session down: the tracker cadence stops and
// all in-memory top-up and bill state is discarded. Idempotent.
func (o *Orchestrator) OnDeauthenticated() {
	o.mu.Lock()
	prev := o.session
	o.session = nil
	o.mu.Unlock()

	o.tracker.Stop()
	o.topups.Reset()
	o.bills.Reset()

	if prev != nil {
		o.logger.Info("session ended", "address", prev.Address)
	}
}

// Address returns the active session's wallet address.
func (o *Orchestrator) Address() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return "", ErrNoSession
	}
	return o.session.Address, nil
}

// Snapshot assembles the read model for the presentation layer.
func (o *Orchestrator) Snapshot() (ReadModel, error) {
	address, err := o.Address()
	if err != nil {
		return ReadModel{}, err
	}
	model := ReadModel{
		Address:         address,
		TopUps:          o.topups.List(),
		Bills:           o.bills.List(),
		InFlightBillIDs: o.bills.InFlight(),
	}
	if current, ok := o.tracker.Current(); ok {
		model.Balance = &current
	}
	return model, nil
}

// TopUps returns the funding history.
func (o *Orchestrator) TopUps() ([]topup.TopUp, error) {
	if _, err := o.Address(); err != nil {
		return nil, err
	}
	return o.topups.List(), nil
}

// Bills returns the catalog with session-local transitions applied.
func (o *Orchestrator) Bills() ([]bills.Bill, error) {
	if _, err := o.Address(); err != nil {
		return nil, err
	}
	return o.bills.List(), nil
}

// SubmitBankTransfer funds the wallet through the bank rail.
func (o *Orchestrator) SubmitBankTransfer(ctx context.Context, amount string) (topup.TopUp, error) {
	address, err := o.Address()
	if err != nil {
		return topup.TopUp{}, err
	}

	record, err := o.topups.SubmitBankTransfer(ctx, address, amount)
	if err != nil {
		if errors.Is(err, topup.ErrIntentRejected) {
			_ = o.notifier.Send(ctx, notification.Message{
				Title:       "Transfer failed",
				Description: "Your bank transfer could not be submitted. Please try again.",
				Variant:     notification.VariantDestructive,
			})
		}
		return topup.TopUp{}, err
	}

	_ = o.notifier.Send(ctx, notification.Message{
		Title:       "Transfer initiated",
		Description: "Your bank transfer has been submitted and is pending settlement.",
		Variant:     notification.VariantDefault,
	})
	return record, nil
}

// SubmitCardFunding hands the wallet to the card funding flow.
func (o *Orchestrator) SubmitCardFunding(ctx context.Context, amount string) (topup.TopUp, error) {
	address, err := o.Address()
	if err != nil {
		return topup.TopUp{}, err
	}
	record, err := o.topups.SubmitCardFunding(address, amount)
	if err != nil {
		return topup.TopUp{}, err
	}
	o.logger.Info("card funding handed off", "address", address, "top_up_id", record.ID)
	return record, nil
}

// PayBill settles a bill against the tracked balance.
func (o *Orchestrator) PayBill(ctx context.Context, billID string) (string, error) {
	address, err := o.Address()
	if err != nil {
		return "", err
	}

	ref, err := o.bills.PayBill(ctx, address, billID)
	if err != nil {
		switch {
		case errors.Is(err, bills.ErrUnknownBill),
			errors.Is(err, bills.ErrAlreadyPaid),
			errors.Is(err, bills.ErrPaymentInFlight):
			// Input rejected synchronously: nothing was submitted, nothing to report.
		default:
			_ = o.notifier.Send(ctx, notification.Message{
				Title:       "Payment failed",
				Description: "The payment could not be submitted. Your balance is unchanged.",
				Variant:     notification.VariantDestructive,
			})
		}
		return "", err
	}
	return ref, nil
}
