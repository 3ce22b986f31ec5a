package treasury_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/claim"
	"github.com/xraph/treasury/credit"
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/invoice"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/token"
	"github.com/xraph/treasury/types"
)

const (
	governor = "governor"
	maker    = "maker"
	keeper   = "keeper"
	outsider = "outsider"
)

// stubSource streams a configurable amount per vest call, in the style
// of a faked vesting contract.
type stubSource struct {
	asset *token.Memory
	award funding.Award
	next  types.Amount
}

func (s *stubSource) Award(_ context.Context, streamID uint64) (*funding.Award, error) {
	if streamID != s.award.ID {
		return nil, funding.ErrNoAward
	}
	cp := s.award
	return &cp, nil
}

func (s *stubSource) Unpaid(_ context.Context, streamID uint64) (types.Amount, error) {
	if streamID != s.award.ID {
		return types.Amount{}, funding.ErrNoAward
	}
	return s.next, nil
}

func (s *stubSource) Vest(_ context.Context, streamID uint64) (types.Amount, error) {
	if streamID != s.award.ID {
		return types.Amount{}, funding.ErrNoAward
	}
	moved := s.next
	s.asset.Mint(s.award.Beneficiary, moved)
	s.next = types.Amount{}
	return moved, nil
}

// stubAdapter delivers a fixed amount or fails with a policy error.
type stubAdapter struct {
	asset    *token.Memory
	treasury string
	amount   types.Amount
	err      error
}

func (a *stubAdapter) TopUp(_ context.Context) (types.Amount, error) {
	if a.err != nil {
		return types.Amount{}, a.err
	}
	a.asset.Mint(a.treasury, a.amount)
	return a.amount, nil
}

type fixture struct {
	eng    *treasury.Engine
	store  *memory.Store
	asset  *token.Memory
	sink   *credit.Registry
	source *stubSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	st := memory.New()
	asset := token.NewMemory()
	sink := credit.NewRegistry(asset, "sink")

	source := &stubSource{
		asset: asset,
		award: funding.Award{
			ID:          1,
			Beneficiary: "treasury",
			Begin:       time.Now().UTC(),
			End:         time.Now().UTC().Add(365 * 24 * time.Hour),
			Total:       types.Wad(1000000),
		},
	}

	eng := treasury.New(st,
		treasury.WithRoles(governor, maker, keeper),
		treasury.WithAsset(asset),
		treasury.WithFundingSource(source),
		treasury.WithCreditSink(sink, sink.Account(), "job", "dai"),
		treasury.WithSurplusSink("vow"),
	)

	if err := eng.SetBuffer(ctx, maker, types.Wad(4000), types.Wad(20000)); err != nil {
		t.Fatalf("SetBuffer: %v", err)
	}
	if err := eng.SetVestID(ctx, maker, 1); err != nil {
		t.Fatalf("SetVestID: %v", err)
	}

	return &fixture{eng: eng, store: st, asset: asset, sink: sink, source: source}
}

func (f *fixture) debt(t *testing.T) types.Amount {
	t.Helper()
	d, err := f.eng.OutstandingDebt(context.Background())
	if err != nil {
		t.Fatalf("OutstandingDebt: %v", err)
	}
	return d
}

func (f *fixture) credits(t *testing.T) types.Amount {
	t.Helper()
	c, err := f.sink.JobCredits(context.Background(), "job", "dai")
	if err != nil {
		t.Fatalf("JobCredits: %v", err)
	}
	return c
}

// ──────────────────────────────────────────────────
// Invoicing
// ──────────────────────────────────────────────────

func TestRecordInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nonce, err := f.eng.RecordInvoice(ctx, governor, types.Wad(1), types.Wad(100), "gas week 1")
	if err != nil {
		t.Fatalf("RecordInvoice: %v", err)
	}
	if nonce != 1 {
		t.Errorf("first nonce = %d, want 1", nonce)
	}

	nonce, _ = f.eng.RecordInvoice(ctx, governor, types.Wad(1), types.Wad(50), "gas week 2")
	if nonce != 2 {
		t.Errorf("second nonce = %d, want 2", nonce)
	}

	if d := f.debt(t); !d.Equal(types.Wad(150)) {
		t.Errorf("outstanding = %s, want %s", d, types.Wad(150))
	}

	inv, err := f.eng.Invoice(ctx, 1)
	if err != nil {
		t.Fatalf("Invoice: %v", err)
	}
	if inv.Status != invoice.StatusOutstanding || !inv.Amount.Equal(types.Wad(100)) {
		t.Errorf("invoice 1: %+v", inv)
	}
}

func TestNonceNeverReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(10), "a")
	if err := f.eng.DeleteInvoice(ctx, governor, 1); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}

	nonce, _ := f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(10), "b")
	if nonce != 2 {
		t.Errorf("nonce after delete = %d, want 2", nonce)
	}
}

func TestRecordInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(-1), "x"); err == nil {
		t.Error("expected error for negative amount")
	}
	if _, err := f.eng.RecordInvoice(ctx, governor, types.Wad(-1), types.Amount{}, "x"); err == nil {
		t.Error("expected error for negative gas amount")
	}

	// Zero-value invoice is legal: it advances the nonce and leaves
	// debt unchanged.
	nonce, err := f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Amount{}, "zero")
	if err != nil {
		t.Fatalf("zero invoice: %v", err)
	}
	if nonce != 1 {
		t.Errorf("nonce = %d", nonce)
	}
	if !f.debt(t).IsZero() {
		t.Errorf("debt = %s, want 0", f.debt(t))
	}
}

func TestDeleteInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(100), "a")
	_, _ = f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(40), "b")

	if err := f.eng.DeleteInvoice(ctx, governor, 1); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}

	if d := f.debt(t); !d.Equal(types.Wad(40)) {
		t.Errorf("debt after delete = %s, want %s", d, types.Wad(40))
	}

	// Deleting again fails.
	if err := f.eng.DeleteInvoice(ctx, governor, 1); !errors.Is(err, treasury.ErrInvoiceAlreadyClaimed) {
		t.Errorf("second delete: %v", err)
	}

	// Unknown nonce.
	if err := f.eng.DeleteInvoice(ctx, governor, 99); !errors.Is(err, treasury.ErrInvoiceNotFound) {
		t.Errorf("unknown delete: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Claim cycle
// ──────────────────────────────────────────────────

func TestClaimMinBufferGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(100), "a")
	f.source.next = types.Wad(3999)

	_, err := f.eng.Claim(ctx, governor)
	if !errors.Is(err, treasury.ErrMinBuffer) {
		t.Fatalf("expected ErrMinBuffer, got %v", err)
	}

	// Rejection commits nothing.
	if d := f.debt(t); !d.Equal(types.Wad(100)) {
		t.Errorf("debt after rejected claim = %s", d)
	}
	claims, _ := f.eng.Claims(ctx, claim.ListOpts{})
	if len(claims) != 0 {
		t.Errorf("claims persisted on rejection: %d", len(claims))
	}
}

func TestClaimExactMinBuffer(t *testing.T) {
	// The guard is strict less-than: streaming exactly the minimum
	// succeeds.
	f := newFixture(t)
	ctx := context.Background()

	f.source.next = types.Wad(4000)

	rcpt, err := f.eng.Claim(ctx, governor)
	if err != nil {
		t.Fatalf("Claim at boundary: %v", err)
	}
	if !rcpt.Streamed.Equal(types.Wad(4000)) {
		t.Errorf("streamed = %s", rcpt.Streamed)
	}
}

func TestClaimNoDebtFillsBuffer(t *testing.T) {
	// No debt: the full stream tops up the sink.
	f := newFixture(t)
	ctx := context.Background()

	f.source.next = types.Wad(5000)

	rcpt, err := f.eng.Claim(ctx, governor)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if !rcpt.Settled.IsZero() || !rcpt.TopUp.Equal(types.Wad(5000)) || !rcpt.Surplus.IsZero() {
		t.Errorf("split = settled %s, topUp %s, surplus %s", rcpt.Settled, rcpt.TopUp, rcpt.Surplus)
	}
	if !rcpt.Conserved() {
		t.Error("receipt not conserved")
	}
	if c := f.credits(t); !c.Equal(types.Wad(5000)) {
		t.Errorf("credits = %s", c)
	}
}

func TestClaimPartialSettlement(t *testing.T) {
	// Debt larger than the stream: everything nets debt, nothing tops
	// up, and the invoice stays outstanding but undeletable.
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(15000), "big")
	f.source.next = types.Wad(10000)

	rcpt, err := f.eng.Claim(ctx, governor)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if !rcpt.Settled.Equal(types.Wad(10000)) || !rcpt.TopUp.IsZero() || !rcpt.Surplus.IsZero() {
		t.Errorf("split = %+v", rcpt)
	}
	if d := f.debt(t); !d.Equal(types.Wad(5000)) {
		t.Errorf("debt = %s, want %s", d, types.Wad(5000))
	}

	inv, _ := f.eng.Invoice(ctx, 1)
	if inv.Status != invoice.StatusOutstanding {
		t.Errorf("invoice status = %s", inv.Status)
	}

	// Partially netted: no longer deletable.
	if err := f.eng.DeleteInvoice(ctx, governor, 1); !errors.Is(err, treasury.ErrInvoiceAlreadyClaimed) {
		t.Errorf("delete after partial net: %v", err)
	}
}

func TestClaimSurplus(t *testing.T) {
	// Sink nearly full: the stream overflows past the max buffer into
	// the surplus sink.
	f := newFixture(t)
	ctx := context.Background()

	// Pre-fill the sink to 19,000.
	f.asset.Mint("payer", types.Wad(19000))
	if err := f.asset.Approve(ctx, "payer", f.sink.Account(), types.Wad(19000)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := f.sink.AddCredits(ctx, "payer", "job", "dai", types.Wad(19000)); err != nil {
		t.Fatalf("AddCredits: %v", err)
	}

	f.source.next = types.Wad(5000)

	rcpt, err := f.eng.Claim(ctx, governor)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if !rcpt.TopUp.Equal(types.Wad(1000)) || !rcpt.Surplus.Equal(types.Wad(4000)) {
		t.Errorf("split = topUp %s, surplus %s", rcpt.TopUp, rcpt.Surplus)
	}
	if !rcpt.Conserved() {
		t.Error("receipt not conserved")
	}

	vow, _ := f.asset.BalanceOf(ctx, "vow")
	if !vow.Equal(types.Wad(4000)) {
		t.Errorf("surplus sink balance = %s", vow)
	}
	if c := f.credits(t); !c.Equal(types.Wad(20000)) {
		t.Errorf("credits = %s, want max buffer", c)
	}
}

func TestClaimDrainSettlesInvoices(t *testing.T) {
	// Stream covers all debt: invoices flip to settled and become
	// undeletable.
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(1000), "small")
	f.source.next = types.Wad(5000)

	rcpt, err := f.eng.Claim(ctx, governor)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !rcpt.Settled.Equal(types.Wad(1000)) || !rcpt.TopUp.Equal(types.Wad(4000)) {
		t.Errorf("split = %+v", rcpt)
	}

	if !f.debt(t).IsZero() {
		t.Errorf("debt = %s", f.debt(t))
	}

	inv, _ := f.eng.Invoice(ctx, 1)
	if inv.Status != invoice.StatusSettled {
		t.Errorf("invoice status = %s", inv.Status)
	}
	if err := f.eng.DeleteInvoice(ctx, governor, 1); !errors.Is(err, treasury.ErrInvoiceAlreadyClaimed) {
		t.Errorf("delete settled invoice: %v", err)
	}
}

func TestClaimIdempotentDrain(t *testing.T) {
	// Back-to-back claim with nothing accrued streams zero and trips
	// the guard; state is unchanged.
	f := newFixture(t)
	ctx := context.Background()

	f.source.next = types.Wad(5000)
	if _, err := f.eng.Claim(ctx, governor); err != nil {
		t.Fatalf("first Claim: %v", err)
	}

	creditsBefore := f.credits(t)

	if _, err := f.eng.Claim(ctx, governor); !errors.Is(err, treasury.ErrMinBuffer) {
		t.Fatalf("second Claim: %v", err)
	}
	if c := f.credits(t); !c.Equal(creditsBefore) {
		t.Errorf("credits changed: %s -> %s", creditsBefore, c)
	}
}

func TestClaimZeroMinBuffer(t *testing.T) {
	// With a zero minimum, a zero-value claim commits an all-zero
	// receipt instead of failing.
	f := newFixture(t)
	ctx := context.Background()

	if err := f.eng.SetBuffer(ctx, maker, types.Amount{}, types.Wad(20000)); err != nil {
		t.Fatalf("SetBuffer: %v", err)
	}

	rcpt, err := f.eng.Claim(ctx, governor)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !rcpt.Streamed.IsZero() || !rcpt.Conserved() {
		t.Errorf("receipt = %+v", rcpt)
	}
}

func TestClaimConservation(t *testing.T) {
	tests := []struct {
		name     string
		debt     int64
		streamed int64
		credits  int64
	}{
		{"all to debt", 20000, 10000, 0},
		{"debt then buffer", 3000, 10000, 0},
		{"debt buffer surplus", 1000, 30000, 15000},
		{"buffer only", 0, 8000, 5000},
		{"surplus only", 0, 9000, 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			if tt.debt > 0 {
				_, _ = f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(tt.debt), "d")
			}
			if tt.credits > 0 {
				f.asset.Mint("payer", types.Wad(tt.credits))
				_ = f.asset.Approve(ctx, "payer", f.sink.Account(), types.Wad(tt.credits))
				_ = f.sink.AddCredits(ctx, "payer", "job", "dai", types.Wad(tt.credits))
			}

			f.source.next = types.Wad(tt.streamed)

			rcpt, err := f.eng.Claim(ctx, governor)
			if err != nil {
				t.Fatalf("Claim: %v", err)
			}
			if !rcpt.Conserved() {
				t.Errorf("not conserved: %+v", rcpt)
			}
			if f.debt(t).IsNegative() {
				t.Errorf("debt went negative: %s", f.debt(t))
			}
			if c := f.credits(t); c.GreaterThan(types.Wad(20000)) {
				t.Errorf("credits above max buffer: %s", c)
			}
		})
	}
}

func TestClaimUpkeep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.source.next = types.Wad(6000)

	rcpt, err := f.eng.ClaimUpkeep(ctx, keeper)
	if err != nil {
		t.Fatalf("ClaimUpkeep: %v", err)
	}
	if rcpt.Trigger != claim.TriggerKeeper {
		t.Errorf("trigger = %s", rcpt.Trigger)
	}

	keeperClaims, _ := f.eng.Claims(ctx, claim.ListOpts{Trigger: claim.TriggerKeeper})
	if len(keeperClaims) != 1 {
		t.Errorf("keeper claims = %d", len(keeperClaims))
	}
}

func TestClaimNoStreamBound(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	asset := token.NewMemory()
	sink := credit.NewRegistry(asset, "sink")

	eng := treasury.New(st,
		treasury.WithRoles(governor, maker, keeper),
		treasury.WithAsset(asset),
		treasury.WithFundingSource(&stubSource{asset: asset}),
		treasury.WithCreditSink(sink, sink.Account(), "job", "dai"),
	)

	if _, err := eng.Claim(ctx, governor); !errors.Is(err, treasury.ErrNoStreamBound) {
		t.Errorf("expected ErrNoStreamBound, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// Adapter variant
// ──────────────────────────────────────────────────

func TestClaimThroughAdapter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	adapter := &stubAdapter{asset: f.asset, treasury: "treasury", amount: types.Wad(7000)}
	if err := f.eng.SetPaymentAdapter(ctx, governor, adapter); err != nil {
		t.Fatalf("SetPaymentAdapter: %v", err)
	}

	_, _ = f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(2000), "a")

	rcpt, err := f.eng.Claim(ctx, governor)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !rcpt.Settled.Equal(types.Wad(2000)) || !rcpt.TopUp.Equal(types.Wad(5000)) {
		t.Errorf("split = %+v", rcpt)
	}
}

func TestAdapterPolicyPropagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
	}{
		{"pending too small", funding.ErrPendingTooSmall},
		{"buffer full", funding.ErrBufferFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &stubAdapter{err: tt.err}
			if err := f.eng.SetPaymentAdapter(ctx, governor, adapter); err != nil {
				t.Fatalf("SetPaymentAdapter: %v", err)
			}

			_, err := f.eng.Claim(ctx, governor)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
			if !treasury.IsPolicyViolation(err) {
				t.Errorf("not classified as policy violation: %v", err)
			}
		})
	}
}

// ──────────────────────────────────────────────────
// Parameters
// ──────────────────────────────────────────────────

func TestSetBuffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.eng.SetBuffer(ctx, maker, types.Wad(5000), types.Wad(30000)); err != nil {
		t.Fatalf("SetBuffer: %v", err)
	}

	minBuf, maxBuf, err := f.eng.BufferBounds(ctx)
	if err != nil {
		t.Fatalf("BufferBounds: %v", err)
	}
	if !minBuf.Equal(types.Wad(5000)) || !maxBuf.Equal(types.Wad(30000)) {
		t.Errorf("bounds = %s / %s", minBuf, maxBuf)
	}

	// min == max is legal.
	if err := f.eng.SetBuffer(ctx, maker, types.Wad(1000), types.Wad(1000)); err != nil {
		t.Errorf("equal bounds: %v", err)
	}

	// min > max is not.
	if err := f.eng.SetBuffer(ctx, maker, types.Wad(2), types.Wad(1)); !errors.Is(err, treasury.ErrInvalidBuffer) {
		t.Errorf("inverted bounds: %v", err)
	}

	// Negative bounds are not.
	if err := f.eng.SetBuffer(ctx, maker, types.Wad(-1), types.Wad(1)); err == nil {
		t.Error("expected error for negative min")
	}
}

func TestSetVestID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	vestID, err := f.eng.VestID(ctx)
	if err != nil {
		t.Fatalf("VestID: %v", err)
	}
	if vestID != 1 {
		t.Errorf("vest id = %d", vestID)
	}

	p, _ := f.eng.Parameters(ctx)
	if p.Award == nil || p.Award.Beneficiary != "treasury" {
		t.Errorf("award snapshot missing: %+v", p)
	}

	// Unknown stream.
	if err := f.eng.SetVestID(ctx, maker, 99); !errors.Is(err, funding.ErrNoAward) {
		t.Errorf("unknown stream: %v", err)
	}

	// Stream paying someone else.
	f.source.award.Beneficiary = "someone-else"
	f.source.award.ID = 2
	if err := f.eng.SetVestID(ctx, maker, 2); !errors.Is(err, treasury.ErrIncorrectVestID) {
		t.Errorf("foreign beneficiary: %v", err)
	}

	// Rebinding the same stream is allowed.
	f.source.award.Beneficiary = "treasury"
	f.source.award.ID = 1
	if err := f.eng.SetVestID(ctx, maker, 1); err != nil {
		t.Errorf("rebind: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────

func TestRoleGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func(caller string) error
		want error
	}{
		{"RecordInvoice", func(c string) error {
			_, err := f.eng.RecordInvoice(ctx, c, types.Amount{}, types.Wad(1), "x")
			return err
		}, treasury.ErrOnlyGovernor},
		{"DeleteInvoice", func(c string) error {
			return f.eng.DeleteInvoice(ctx, c, 1)
		}, treasury.ErrOnlyGovernor},
		{"Claim", func(c string) error {
			_, err := f.eng.Claim(ctx, c)
			return err
		}, treasury.ErrOnlyGovernor},
		{"ClaimUpkeep", func(c string) error {
			_, err := f.eng.ClaimUpkeep(ctx, c)
			return err
		}, treasury.ErrOnlyKeeper},
		{"SetBuffer", func(c string) error {
			return f.eng.SetBuffer(ctx, c, types.Wad(1), types.Wad(2))
		}, treasury.ErrOnlyMaker},
		{"SetVestID", func(c string) error {
			return f.eng.SetVestID(ctx, c, 1)
		}, treasury.ErrOnlyMaker},
		{"SetKeeper", func(c string) error {
			return f.eng.SetKeeper(ctx, c, "new-keeper")
		}, treasury.ErrOnlyGovernor},
		{"SetJob", func(c string) error {
			return f.eng.SetJob(ctx, c, "new-job")
		}, treasury.ErrOnlyGovernor},
		{"SetSurplusSink", func(c string) error {
			return f.eng.SetSurplusSink(ctx, c, "vow2")
		}, treasury.ErrOnlyGovernor},
		{"SetPaymentAdapter", func(c string) error {
			return f.eng.SetPaymentAdapter(ctx, c, nil)
		}, treasury.ErrOnlyGovernor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(outsider)
			if !errors.Is(err, tt.want) {
				t.Errorf("outsider: got %v, want %v", err, tt.want)
			}
			if !treasury.IsAuthorization(err) {
				t.Errorf("not classified as authorization error: %v", err)
			}
		})
	}
}

func TestSetKeeperTakesEffect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.eng.SetKeeper(ctx, governor, "keeper2"); err != nil {
		t.Fatalf("SetKeeper: %v", err)
	}

	f.source.next = types.Wad(5000)

	if _, err := f.eng.ClaimUpkeep(ctx, keeper); !errors.Is(err, treasury.ErrOnlyKeeper) {
		t.Errorf("old keeper still accepted: %v", err)
	}
	if _, err := f.eng.ClaimUpkeep(ctx, "keeper2"); err != nil {
		t.Errorf("new keeper rejected: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Views
// ──────────────────────────────────────────────────

func TestBufferView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No credits, debt 100: slack is negative.
	_, _ = f.eng.RecordInvoice(ctx, governor, types.Amount{}, types.Wad(100), "a")

	buf, err := f.eng.Buffer(ctx)
	if err != nil {
		t.Fatalf("Buffer: %v", err)
	}
	if !buf.Equal(types.Wad(-100)) {
		t.Errorf("buffer = %s, want %s", buf, types.Wad(-100))
	}

	// Claim fills the sink; slack goes positive.
	f.source.next = types.Wad(5000)
	if _, err := f.eng.Claim(ctx, governor); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	buf, _ = f.eng.Buffer(ctx)
	if !buf.Equal(types.Wad(4900)) {
		t.Errorf("buffer after claim = %s, want %s", buf, types.Wad(4900))
	}
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Start is idempotent.
	if err := f.eng.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if err := f.eng.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Stop is idempotent too.
	if err := f.eng.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
