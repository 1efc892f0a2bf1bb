package topup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/railbill/railbill/internal/money"
)

var (
	// ErrNoAddress indicates a submission without a resolved wallet address.
	ErrNoAddress = errors.New("wallet address is required")
	// ErrInvalidAmount indicates an unparseable or non-positive amount.
	ErrInvalidAmount = errors.New("amount must be a positive decimal")
	// ErrUnknownTopUp indicates a status transition for an id not in history.
	ErrUnknownTopUp = errors.New("top-up not found")
)

// Service drives the lifecycle of top-up requests across the two funding
// rails and keeps their append-only history, newest first.
type Service struct {
	bank         BankClient
	card         CardFunder
	chainID      int64
	developerFee string

	mu      sync.Mutex
	history []TopUp
}

// NewService builds the funding lifecycle manager.
func NewService(bank BankClient, card CardFunder, chainID int64, developerFee string) *Service {
	return &Service{bank: bank, card: card, chainID: chainID, developerFee: developerFee}
}

// AccountReference derives the partner-side account reference for a wallet
// address.
func AccountReference(address string) string {
	return fmt.Sprintf("wallet:%s", strings.ToLower(address))
}

// SubmitBankTransfer submits a USD bank-debit funding intent for the wallet.
// A record is appended only when the partner accepts the intent; rejected
// submissions leave no history trace.
func (s *Service) SubmitBankTransfer(ctx context.Context, address, amount string) (TopUp, error) {
	if address == "" {
		return TopUp{}, ErrNoAddress
	}
	parsed, err := money.ParsePositive(amount)
	if err != nil {
		return TopUp{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	intent := FundingIntent{
		Amount:       money.Format(parsed, money.USDDisplayDigits),
		OnBehalfOf:   AccountReference(address),
		DeveloperFee: s.developerFee,
		Source:       IntentRail{PaymentRail: railACHPush, Currency: currencyUSD},
		Destination:  IntentRail{PaymentRail: railEthereum, Currency: currencyUSDC, ToAddress: address},
	}

	// Fresh key per call: a retry after rejection is a new intent.
	if err := s.bank.SubmitIntent(ctx, intent, uuid.NewString()); err != nil {
		return TopUp{}, err
	}

	record := TopUp{
		ID:        uuid.NewString(),
		Amount:    parsed,
		Method:    MethodACH,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.append(record)
	return record, nil
}

// SubmitCardFunding records an optimistic pending top-up and hands off to
// the external card flow. The record is visible in history before the
// hand-off is made; the flow never reports back.
func (s *Service) SubmitCardFunding(address, amount string) (TopUp, error) {
	if address == "" {
		return TopUp{}, ErrNoAddress
	}
	parsed, err := money.ParsePositive(amount)
	if err != nil {
		return TopUp{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	record := TopUp{
		ID:        uuid.NewString(),
		Amount:    parsed,
		Method:    MethodCard,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.append(record)

	go s.card.Initiate(address, CardFundingRequest{
		ChainID:   s.chainID,
		AmountUSD: money.Format(parsed, money.USDDisplayDigits),
	})

	return record, nil
}

// List returns a copy of the history, newest first.
func (s *Service) List() []TopUp {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TopUp, len(s.history))
	copy(out, s.history)
	return out
}

// Transition updates the status of an existing record in place. It is the
// entry point for a future reconciliation source; nothing in the service
// calls it on its own.
func (s *Service) Transition(id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == id {
			s.history[i].Status = status
			return nil
		}
	}
	return ErrUnknownTopUp
}

// Reset discards the history on session teardown.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

func (s *Service) append(record TopUp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]TopUp{record}, s.history...)
}
