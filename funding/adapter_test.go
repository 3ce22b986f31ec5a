package funding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/treasury/credit"
	"github.com/xraph/treasury/token"
	"github.com/xraph/treasury/types"
)

func newTestAdapter(t *testing.T, feeBps int64) (*PaymentAdapter, *testClock, *token.Memory, *credit.Registry) {
	t.Helper()

	asset := token.NewMemory()
	asset.Mint("funder", types.Wad(1000000))

	clock := &testClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStream(asset, "funder", WithClock(clock.now))

	streamID, err := s.Create("adapter", types.Wad(100000), clock.t, 100000*time.Second, 0, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sink := credit.NewRegistry(asset, "sink")

	p := NewPaymentAdapter(s, asset, PaymentAdapterConfig{
		StreamID:     streamID,
		Account:      "adapter",
		Treasury:     "treasury",
		Sink:         sink,
		Job:          "job",
		JobAsset:     "asset",
		MinPayment:   types.Wad(100),
		MaxBuffer:    types.Wad(500),
		FeeBps:       feeBps,
		FeeCollector: "collector",
	})

	return p, clock, asset, sink
}

func TestAdapterTopUp(t *testing.T) {
	p, clock, asset, _ := newTestAdapter(t, 0)
	ctx := context.Background()

	// One token accrues per second.
	clock.advance(250 * time.Second)

	delivered, err := p.TopUp(ctx)
	if err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	if !delivered.Equal(types.Wad(250)) {
		t.Errorf("delivered %s, want %s", delivered, types.Wad(250))
	}

	bal, _ := asset.BalanceOf(ctx, "treasury")
	if !bal.Equal(types.Wad(250)) {
		t.Errorf("treasury balance %s, want %s", bal, types.Wad(250))
	}
}

func TestAdapterPendingTooSmall(t *testing.T) {
	p, clock, _, _ := newTestAdapter(t, 0)
	ctx := context.Background()

	clock.advance(99 * time.Second)

	if _, err := p.TopUp(ctx); !errors.Is(err, ErrPendingTooSmall) {
		t.Errorf("expected ErrPendingTooSmall, got %v", err)
	}
}

func TestAdapterBufferFull(t *testing.T) {
	p, clock, asset, sink := newTestAdapter(t, 0)
	ctx := context.Background()

	// Fill the job's credits up to MaxBuffer.
	asset.Mint("payer", types.Wad(500))
	if err := asset.Approve(ctx, "payer", sink.Account(), types.Wad(500)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := sink.AddCredits(ctx, "payer", "job", "asset", types.Wad(500)); err != nil {
		t.Fatalf("AddCredits: %v", err)
	}

	clock.advance(1000 * time.Second)

	if _, err := p.TopUp(ctx); !errors.Is(err, ErrBufferFull) {
		t.Errorf("expected ErrBufferFull, got %v", err)
	}
}

func TestAdapterFee(t *testing.T) {
	// 0.3% fee: 997/1000 reaches the treasury.
	p, clock, asset, _ := newTestAdapter(t, 30)
	ctx := context.Background()

	clock.advance(1000 * time.Second)

	delivered, err := p.TopUp(ctx)
	if err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	if !delivered.Equal(types.Wad(997)) {
		t.Errorf("delivered %s, want %s", delivered, types.Wad(997))
	}

	fee, _ := asset.BalanceOf(ctx, "collector")
	if !fee.Equal(types.Wad(3)) {
		t.Errorf("fee %s, want %s", fee, types.Wad(3))
	}
}
