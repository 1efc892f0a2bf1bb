package topup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

const testAddress = "0xAbCd00000000000000000000000000000000EF12"

type recordingBank struct {
	mu      sync.Mutex
	calls   int
	intents []FundingIntent
	keys    []string
	err     error
}

func (b *recordingBank) SubmitIntent(_ context.Context, intent FundingIntent, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.intents = append(b.intents, intent)
	b.keys = append(b.keys, key)
	return b.err
}

// blockingFunder simulates a card flow hand-off that never resolves.
type blockingFunder struct {
	started chan string
}

func (f *blockingFunder) Initiate(address string, _ CardFundingRequest) {
	f.started <- address
	select {}
}

type noopFunder struct{}

func (noopFunder) Initiate(string, CardFundingRequest) {}

func TestSubmitBankTransferInputGuards(t *testing.T) {
	bank := &recordingBank{}
	svc := NewService(bank, noopFunder{}, 8453, "0.5")
	ctx := context.Background()

	cases := []struct {
		name    string
		address string
		amount  string
		want    error
	}{
		{"empty amount", testAddress, "", ErrInvalidAmount},
		{"empty address", "", "5", ErrNoAddress},
		{"negative amount", testAddress, "-3", ErrInvalidAmount},
		{"zero amount", testAddress, "0", ErrInvalidAmount},
		{"unparseable amount", testAddress, "ten", ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SubmitBankTransfer(ctx, tc.address, tc.amount); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if bank.calls != 0 {
		t.Fatalf("rejected input must not reach the network, got %d calls", bank.calls)
	}
	if len(svc.List()) != 0 {
		t.Fatal("rejected input must not create history records")
	}
}

func TestSubmitBankTransferAccepted(t *testing.T) {
	bank := &recordingBank{}
	svc := NewService(bank, noopFunder{}, 8453, "0.5")

	record, err := svc.SubmitBankTransfer(context.Background(), testAddress, "25")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.Method != MethodACH || record.Status != StatusPending {
		t.Fatalf("unexpected record %+v", record)
	}

	if len(bank.intents) != 1 {
		t.Fatalf("expected one intent, got %d", len(bank.intents))
	}
	intent := bank.intents[0]
	if intent.Amount != "25.00" {
		t.Fatalf("unexpected intent amount %q", intent.Amount)
	}
	if intent.OnBehalfOf != "wallet:0xabcd00000000000000000000000000000000ef12" {
		t.Fatalf("unexpected account reference %q", intent.OnBehalfOf)
	}
	if intent.DeveloperFee != "0.5" {
		t.Fatalf("unexpected developer fee %q", intent.DeveloperFee)
	}
	if intent.Source.PaymentRail != "ach_push" || intent.Source.Currency != "usd" {
		t.Fatalf("unexpected source rail %+v", intent.Source)
	}
	if intent.Destination.PaymentRail != "ethereum" || intent.Destination.Currency != "usdc" || intent.Destination.ToAddress != testAddress {
		t.Fatalf("unexpected destination rail %+v", intent.Destination)
	}

	history := svc.List()
	if len(history) != 1 || history[0].ID != record.ID {
		t.Fatalf("expected the accepted record in history, got %+v", history)
	}
}

func TestSubmitBankTransferUsesFreshIdempotencyKeys(t *testing.T) {
	bank := &recordingBank{}
	svc := NewService(bank, noopFunder{}, 8453, "0.5")
	ctx := context.Background()

	if _, err := svc.SubmitBankTransfer(ctx, testAddress, "5"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.SubmitBankTransfer(ctx, testAddress, "5"); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if len(bank.keys) != 2 || bank.keys[0] == "" || bank.keys[0] == bank.keys[1] {
		t.Fatalf("expected two distinct idempotency keys, got %v", bank.keys)
	}
}

func TestSubmitBankTransferRejectionLeavesNoTrace(t *testing.T) {
	bank := &recordingBank{err: ErrIntentRejected}
	svc := NewService(bank, noopFunder{}, 8453, "0.5")

	if _, err := svc.SubmitBankTransfer(context.Background(), testAddress, "10"); !errors.Is(err, ErrIntentRejected) {
		t.Fatalf("expected ErrIntentRejected, got %v", err)
	}
	if len(svc.List()) != 0 {
		t.Fatal("rejected submission must leave no history trace")
	}
}

func TestSubmitCardFundingIsOptimistic(t *testing.T) {
	funder := &blockingFunder{started: make(chan string, 1)}
	svc := NewService(&recordingBank{}, funder, 8453, "0.5")

	record, err := svc.SubmitCardFunding(testAddress, "1.00")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// The record is in history even though the hand-off never resolves.
	history := svc.List()
	if len(history) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(history))
	}
	if history[0].Method != MethodCard || history[0].Status != StatusPending || history[0].ID != record.ID {
		t.Fatalf("unexpected record %+v", history[0])
	}

	select {
	case addr := <-funder.started:
		if addr != testAddress {
			t.Fatalf("hand-off for wrong address %s", addr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hand-off never initiated")
	}
}

func TestSubmitCardFundingInputGuards(t *testing.T) {
	funder := &blockingFunder{started: make(chan string, 1)}
	svc := NewService(&recordingBank{}, funder, 8453, "0.5")

	if _, err := svc.SubmitCardFunding("", "1.00"); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
	if _, err := svc.SubmitCardFunding(testAddress, "-1"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(svc.List()) != 0 {
		t.Fatal("rejected input must not create records")
	}
	select {
	case <-funder.started:
		t.Fatal("rejected input must not reach the card flow")
	default:
	}
}

func TestHistoryIsNewestFirst(t *testing.T) {
	svc := NewService(&recordingBank{}, noopFunder{}, 8453, "0.5")
	ctx := context.Background()

	first, err := svc.SubmitBankTransfer(ctx, testAddress, "5")
	if err != nil {
		t.Fatalf("bank transfer: %v", err)
	}
	second, err := svc.SubmitCardFunding(testAddress, "7")
	if err != nil {
		t.Fatalf("card funding: %v", err)
	}

	history := svc.List()
	if len(history) != 2 {
		t.Fatalf("expected two records, got %d", len(history))
	}
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Fatalf("history not newest-first: %+v", history)
	}
}

func TestTransition(t *testing.T) {
	svc := NewService(&recordingBank{}, noopFunder{}, 8453, "0.5")
	record, err := svc.SubmitBankTransfer(context.Background(), testAddress, "5")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Transition(record.ID, StatusCompleted); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if got := svc.List()[0].Status; got != StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}

	if err := svc.Transition("missing", StatusFailed); !errors.Is(err, ErrUnknownTopUp) {
		t.Fatalf("expected ErrUnknownTopUp, got %v", err)
	}
}

func TestResetDropsHistory(t *testing.T) {
	svc := NewService(&recordingBank{}, noopFunder{}, 8453, "0.5")
	if _, err := svc.SubmitBankTransfer(context.Background(), testAddress, "5"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	svc.Reset()
	if len(svc.List()) != 0 {
		t.Fatal("reset must drop history")
	}
}
