package balance

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/railbill/railbill/internal/chain"
	"github.com/railbill/railbill/internal/money"
)

// ErrNoAddress indicates tracking was requested without a wallet address.
var ErrNoAddress = errors.New("wallet address is required")

// Balance is the latest successfully observed wallet balance. It is replaced
// wholesale on every successful poll.
type Balance struct {
	Raw     *big.Int
	Display string
	AsOf    time.Time
	Stale   bool
}

// Config tunes what the tracker reads and how it renders it.
type Config struct {
	// Interval between polls. Defaults to 30 seconds.
	Interval time.Duration
	// Token is the ERC-20 contract to read through balanceOf. The zero
	// address tracks the native asset instead.
	Token common.Address
	// Decimals and Digits control raw-to-display conversion. Zero values
	// derive defaults from the tracked asset.
	Decimals int32
	Digits   int32
}

// Tracker polls a wallet's on-chain balance on a fixed cadence and retains
// the most recently completed read.
type Tracker struct {
	reader   chain.Reader
	token    common.Address
	decimals int32
	digits   int32
	interval time.Duration
	onError  func(error)

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current *Balance
}

// New builds a tracker. onError is invoked for each failed read; the poll
// cadence continues regardless.
func New(reader chain.Reader, cfg Config, onError func(error)) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Decimals == 0 {
		if cfg.Token == (common.Address{}) {
			cfg.Decimals, cfg.Digits = money.NativeDecimals, money.NativeDisplayDigits
		} else {
			cfg.Decimals, cfg.Digits = money.USDCDecimals, money.USDDisplayDigits
		}
	}
	return &Tracker{
		reader:   reader,
		token:    cfg.Token,
		decimals: cfg.Decimals,
		digits:   cfg.Digits,
		interval: cfg.Interval,
		onError:  onError,
	}
}

// Start begins polling for the address, replacing any previous subscription.
// The first read happens immediately; reads in flight for a previous address
// are discarded when they complete.
func (t *Tracker) Start(address string) error {
	if address == "" {
		return ErrNoAddress
	}
	addr := common.HexToAddress(address)

	t.mu.Lock()
	t.stopLocked()
	t.gen++
	gen := t.gen
	t.current = nil
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.mu.Unlock()

	go t.loop(ctx, gen, addr)
	return nil
}

// Stop cancels future scheduled polls. Idempotent. A read already in flight
// is not interrupted; its result still applies unless Start has since been
// called for another address.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Current returns a copy of the latest balance, if one has been observed.
func (t *Tracker) Current() (Balance, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Balance{}, false
	}
	b := *t.current
	b.Raw = new(big.Int).Set(t.current.Raw)
	b.Stale = time.Since(b.AsOf) > 2*t.interval
	return b, true
}

// Interval reports the poll cadence.
func (t *Tracker) Interval() time.Duration {
	return t.interval
}

func (t *Tracker) loop(ctx context.Context, gen uint64, addr common.Address) {
	t.poll(gen, addr)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.poll(gen, addr)
		}
	}
}

// poll performs one read and applies it in completion order. The read uses a
// fresh context on purpose: stopping the tracker must not abort a read that
// is already in flight.
func (t *Tracker) poll(gen uint64, addr common.Address) {
	raw, err := t.read(context.Background(), addr)

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	if err != nil {
		t.mu.Unlock()
		if t.onError != nil {
			t.onError(err)
		}
		return
	}
	t.current = &Balance{
		Raw:     raw,
		Display: money.Format(money.FromRaw(raw, t.decimals), t.digits),
		AsOf:    time.Now().UTC(),
	}
	t.mu.Unlock()
}

func (t *Tracker) read(ctx context.Context, addr common.Address) (*big.Int, error) {
	if t.token == (common.Address{}) {
		return t.reader.NativeBalance(ctx, addr)
	}
	return t.reader.TokenBalance(ctx, t.token, addr)
}
