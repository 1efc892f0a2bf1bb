package bills

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/railbill/railbill/internal/chain"
	"github.com/railbill/railbill/internal/notification"
)

const payerAddress = "0x9999999999999999999999999999999999999999"

var (
	testToken  = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	testVendor = common.HexToAddress("0x1f9090aaE28b8a3dCeaDf281B0F12828e676c326")
)

type fakeSender struct {
	mu      sync.Mutex
	calls   int
	reqs    []chain.TxRequest
	err     error
	started chan string
	release chan struct{}
}

func (f *fakeSender) Submit(_ context.Context, req chain.TxRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.reqs = append(f.reqs, req)
	err := f.err
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- req.To.Hex()
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return "", err
	}
	return "0xdeadbeef", nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type captureNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *captureNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func testCatalog() []Bill {
	now := time.Now().UTC()
	return []Bill{
		{ID: "1", Vendor: "Metro Power & Light", Amount: decimal.RequireFromString("1.00"), RemitTo: testVendor, ReceivedDate: now.Add(-48 * time.Hour), DueDate: now.Add(72 * time.Hour), Status: StatusUnpaid},
		{ID: "2", Vendor: "Northside Water Utility", Amount: decimal.RequireFromString("39.75"), RemitTo: testVendor, ReceivedDate: now.Add(-24 * time.Hour), DueDate: now.Add(96 * time.Hour), Status: StatusUnpaid},
		{ID: "3", Vendor: "Settled Vendor", Amount: decimal.RequireFromString("10.00"), RemitTo: testVendor, ReceivedDate: now.Add(-96 * time.Hour), DueDate: now.Add(-24 * time.Hour), Status: StatusPaid},
	}
}

func newTestService(t *testing.T, sender chain.TxSender, notifier notification.Notifier) *Service {
	t.Helper()
	svc := NewService(NewMemoryRepository(testCatalog()), sender, notifier, testToken, 8453)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return svc
}

func TestPayBillInputGuards(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(t, sender, nil)
	ctx := context.Background()

	if _, err := svc.PayBill(ctx, "", "1"); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
	if _, err := svc.PayBill(ctx, payerAddress, "404"); !errors.Is(err, ErrUnknownBill) {
		t.Fatalf("expected ErrUnknownBill, got %v", err)
	}
	if _, err := svc.PayBill(ctx, payerAddress, "3"); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
	if sender.callCount() != 0 {
		t.Fatalf("guarded input must not submit, got %d calls", sender.callCount())
	}
}

func TestPayBillSubmitsExactTransfer(t *testing.T) {
	sender := &fakeSender{}
	notifier := &captureNotifier{}
	svc := newTestService(t, sender, notifier)

	ref, err := svc.PayBill(context.Background(), payerAddress, "1")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if ref != "0xdeadbeef" {
		t.Fatalf("unexpected reference %s", ref)
	}

	if sender.callCount() != 1 {
		t.Fatalf("expected one settlement write, got %d", sender.callCount())
	}
	req := sender.reqs[0]
	if req.To != testToken || req.ChainID != 8453 {
		t.Fatalf("unexpected request %+v", req)
	}
	// $1.00 at 6 decimals is exactly 1_000_000 units.
	want := chain.TransferData(testVendor, big.NewInt(1_000_000))
	if !bytes.Equal(req.Data, want) {
		t.Fatalf("unexpected calldata %x", req.Data)
	}

	// Local overlay marks it pending; guard stays until confirmation exists.
	for _, b := range svc.List() {
		if b.ID == "1" && b.Status != StatusPending {
			t.Fatalf("expected pending, got %s", b.Status)
		}
	}
	if got := svc.InFlight(); len(got) != 1 || got[0] != "1" {
		t.Fatalf("expected bill 1 in flight, got %v", got)
	}

	if len(notifier.messages) != 1 || notifier.messages[0].Variant != notification.VariantDefault {
		t.Fatalf("expected one processing notification, got %+v", notifier.messages)
	}
}

func TestPayBillSingleInFlightPerBill(t *testing.T) {
	sender := &fakeSender{started: make(chan string, 1), release: make(chan struct{})}
	svc := newTestService(t, sender, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.PayBill(ctx, payerAddress, "1")
		done <- err
	}()
	<-sender.started

	if _, err := svc.PayBill(ctx, payerAddress, "1"); !errors.Is(err, ErrPaymentInFlight) {
		t.Fatalf("expected ErrPaymentInFlight, got %v", err)
	}

	close(sender.release)
	if err := <-done; err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	if sender.callCount() != 1 {
		t.Fatalf("expected exactly one settlement write, got %d", sender.callCount())
	}
}

func TestPayBillDifferentBillsSettleConcurrently(t *testing.T) {
	sender := &fakeSender{started: make(chan string, 2), release: make(chan struct{})}
	svc := newTestService(t, sender, nil)
	ctx := context.Background()

	errs := make(chan error, 2)
	go func() { _, err := svc.PayBill(ctx, payerAddress, "1"); errs <- err }()
	<-sender.started
	go func() { _, err := svc.PayBill(ctx, payerAddress, "2"); errs <- err }()
	<-sender.started // second bill submits while the first is still unresolved

	close(sender.release)
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("payment failed: %v", err)
		}
	}
	if sender.callCount() != 2 {
		t.Fatalf("expected two settlement writes, got %d", sender.callCount())
	}
}

func TestPayBillFailureReleasesGuard(t *testing.T) {
	sender := &fakeSender{err: errors.New("signer rejected")}
	svc := newTestService(t, sender, nil)
	ctx := context.Background()

	if _, err := svc.PayBill(ctx, payerAddress, "1"); err == nil {
		t.Fatal("expected failure")
	}
	if got := svc.InFlight(); len(got) != 0 {
		t.Fatalf("guard not released: %v", got)
	}
	for _, b := range svc.List() {
		if b.ID == "1" && b.Status != StatusUnpaid {
			t.Fatalf("bill status must be unchanged on failure, got %s", b.Status)
		}
	}

	// Safe to retry once the failure resolved.
	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()
	if _, err := svc.PayBill(ctx, payerAddress, "1"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestResetClearsSessionState(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(t, sender, nil)

	if _, err := svc.PayBill(context.Background(), payerAddress, "1"); err != nil {
		t.Fatalf("pay: %v", err)
	}
	svc.Reset()

	if len(svc.List()) != 0 {
		t.Fatal("catalog must be discarded on reset")
	}
	if len(svc.InFlight()) != 0 {
		t.Fatal("in-flight guards must be discarded on reset")
	}
}
