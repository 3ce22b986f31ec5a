package treasury

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/treasury/claim"
	"github.com/xraph/treasury/credit"
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/invoice"
	"github.com/xraph/treasury/params"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/token"
	"github.com/xraph/treasury/types"
)

// Engine is the treasury reconciliation engine. It tracks accrued
// expenses as invoices against a single outstanding debt aggregate,
// pulls funds from a bound vesting stream (or receives them through a
// payment adapter), and keeps a job's credit balance inside the
// governed buffer band.
//
// All mutating operations are serialized by a single mutex: the engine
// behaves as if every call ran alone against current state. External
// collaborator calls happen before the store commit, so a collaborator
// failure leaves the ledger untouched.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	mu sync.Mutex

	// Identity and roles
	identity string
	governor string
	maker    string
	keeper   string

	// Collaborators
	asset       token.Asset
	source      funding.Source
	adapter     funding.Adapter
	sink        credit.Sink
	sinkAccount string
	job         string
	jobAsset    string
	surplusSink string

	// Background keeper upkeep
	keeperInterval time.Duration
	stopChan       chan struct{}
	wg             sync.WaitGroup
	started        bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithPlugin registers a plugin at construction time.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		if err := e.plugins.Register(p); err != nil {
			e.logger.Warn("plugin registration failed", "plugin", p.Name(), "error", err)
		}
	}
}

// WithIdentity sets the treasury's own account address. Streamed funds
// must arrive here, and SetVestID refuses streams paying anyone else.
func WithIdentity(addr string) Option {
	return func(e *Engine) { e.identity = addr }
}

// WithRoles sets the three privileged callers: governor (invoicing and
// claims), maker (parameters), keeper (automated claims).
func WithRoles(governor, maker, keeper string) Option {
	return func(e *Engine) {
		e.governor = governor
		e.maker = maker
		e.keeper = keeper
	}
}

// WithAsset sets the settlement asset.
func WithAsset(asset token.Asset) Option {
	return func(e *Engine) { e.asset = asset }
}

// WithFundingSource sets the direct-vest funding source.
func WithFundingSource(source funding.Source) Option {
	return func(e *Engine) { e.source = source }
}

// WithPaymentAdapter routes funding through an adapter instead of
// vesting directly. The adapter enforces its own min/max policy.
func WithPaymentAdapter(adapter funding.Adapter) Option {
	return func(e *Engine) { e.adapter = adapter }
}

// WithCreditSink wires the job-credit sink: the sink itself, the
// account the treasury approves for credit pulls, the job to top up,
// and the asset key credits are denominated in.
func WithCreditSink(sink credit.Sink, account, job, jobAsset string) Option {
	return func(e *Engine) {
		e.sink = sink
		e.sinkAccount = account
		e.job = job
		e.jobAsset = jobAsset
	}
}

// WithSurplusSink sets the account that receives claim surplus. When
// unset, surplus stays on the treasury's own balance.
func WithSurplusSink(addr string) Option {
	return func(e *Engine) { e.surplusSink = addr }
}

// WithKeeperUpkeep enables the background upkeep worker, which runs
// ClaimUpkeep as the keeper every interval.
func WithKeeperUpkeep(interval time.Duration) Option {
	return func(e *Engine) { e.keeperInterval = interval }
}

// New creates an Engine over the given store.
func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		identity: "treasury",
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.plugins.WithLogger(e.logger)

	return e
}

// Plugins returns the engine's plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Identity returns the treasury's own account address.
func (e *Engine) Identity() string { return e.identity }

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start migrates the store, notifies plugins, and launches the keeper
// upkeep worker when one is configured.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	e.plugins.EmitInit(ctx, e)

	if e.keeperInterval > 0 && e.keeper != "" {
		e.wg.Add(1)
		go e.keeperUpkeepWorker()
	}

	e.started = true
	e.logger.Info("treasury started",
		"identity", e.identity,
		"upkeep_interval", e.keeperInterval,
	)

	return nil
}

// Stop halts the upkeep worker, notifies plugins, and closes the store.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false
	e.mu.Unlock()

	close(e.stopChan)
	e.wg.Wait()

	e.plugins.EmitShutdown(ctx)

	if err := e.store.Close(); err != nil {
		return err
	}

	e.logger.Info("treasury stopped")

	return nil
}

// keeperUpkeepWorker periodically claims on behalf of the keeper.
// Buffer policy rejections are routine; anything else is logged loudly.
func (e *Engine) keeperUpkeepWorker() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.keeperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.mu.Lock()
			keeper := e.keeper
			e.mu.Unlock()

			_, err := e.ClaimUpkeep(context.Background(), keeper)
			switch {
			case err == nil:
			case IsPolicyViolation(err):
				e.logger.Debug("upkeep skipped", "reason", err)
			default:
				e.logger.Warn("upkeep claim failed", "error", err)
			}
		}
	}
}

// ──────────────────────────────────────────────────
// Invoicing
// ──────────────────────────────────────────────────

// RecordInvoice records an accrued expense, advancing the invoice nonce
// and growing the outstanding debt. Governor only. Returns the assigned
// nonce.
func (e *Engine) RecordInvoice(ctx context.Context, caller string, gasAmount, amount types.Amount, description string) (uint64, error) {
	if err := e.requireGovernor(caller); err != nil {
		return 0, err
	}
	if gasAmount.IsNegative() {
		return 0, ValidationError{Field: "gas_amount", Message: "must not be negative"}
	}
	if amount.IsNegative() {
		return 0, ValidationError{Field: "amount", Message: "must not be negative"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	led, err := e.store.GetLedger(ctx)
	if err != nil {
		return 0, err
	}

	led.Nonce++
	led.Outstanding = led.Outstanding.Add(amount)
	led.UpdatedAt = time.Now().UTC()

	inv := &invoice.Invoice{
		Entity:      types.NewEntity(),
		ID:          led.Nonce,
		GasAmount:   gasAmount,
		Amount:      amount,
		Description: description,
		Status:      invoice.StatusOutstanding,
	}

	if err := e.store.ApplyInvoice(ctx, inv, led); err != nil {
		return 0, err
	}

	e.plugins.EmitInvoiceRecorded(ctx, inv)
	e.logger.Info("invoice recorded",
		"id", inv.ID,
		"amount", inv.Amount,
		"outstanding", led.Outstanding,
	)

	return inv.ID, nil
}

// DeleteInvoice backs an outstanding invoice out of the debt aggregate.
// Governor only. An invoice whose amount no longer fits in the
// outstanding debt has been netted (fully or partially) by a claim and
// can no longer be deleted.
func (e *Engine) DeleteInvoice(ctx context.Context, caller string, invoiceID uint64) error {
	if err := e.requireGovernor(caller); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inv, err := e.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}

	if !inv.Outstanding() {
		return ErrInvoiceAlreadyClaimed
	}

	led, err := e.store.GetLedger(ctx)
	if err != nil {
		return err
	}

	if inv.Amount.GreaterThan(led.Outstanding) {
		return ErrInvoiceAlreadyClaimed
	}

	led.Outstanding = led.Outstanding.Sub(inv.Amount)
	led.UpdatedAt = time.Now().UTC()

	if err := e.store.ApplyDelete(ctx, invoiceID, led); err != nil {
		return err
	}

	e.plugins.EmitInvoiceDeleted(ctx, invoiceID)
	e.logger.Info("invoice deleted",
		"id", invoiceID,
		"amount", inv.Amount,
		"outstanding", led.Outstanding,
	)

	return nil
}

// ──────────────────────────────────────────────────
// Claims
// ──────────────────────────────────────────────────

// Claim runs one claim cycle as the governor.
func (e *Engine) Claim(ctx context.Context, caller string) (*claim.Receipt, error) {
	if err := e.requireGovernor(caller); err != nil {
		return nil, err
	}

	return e.claim(ctx, claim.TriggerGovernor)
}

// ClaimUpkeep runs one claim cycle as the keeper. The algorithm is
// identical to Claim; only the authorization and the recorded trigger
// differ.
func (e *Engine) ClaimUpkeep(ctx context.Context, caller string) (*claim.Receipt, error) {
	if err := e.requireKeeper(caller); err != nil {
		return nil, err
	}

	return e.claim(ctx, claim.TriggerKeeper)
}

// claim pulls funds, nets debt, tops up the credit sink, and routes
// surplus, committing the receipt and the netted ledger row as one
// unit. Nothing is persisted when any step fails.
func (e *Engine) claim(ctx context.Context, trigger claim.Trigger) (*claim.Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.asset == nil || e.sink == nil {
		return nil, fmt.Errorf("%w: asset and credit sink required", ErrNotConfigured)
	}

	p, err := e.store.GetParameters(ctx)
	if err != nil {
		return nil, err
	}

	led, err := e.store.GetLedger(ctx)
	if err != nil {
		return nil, err
	}

	streamed, err := e.pullFunds(ctx, p)
	if err != nil {
		if IsPolicyViolation(err) {
			e.plugins.EmitClaimRejected(ctx, string(trigger), err)
			e.logger.Debug("claim rejected", "trigger", trigger, "reason", err)
		}
		return nil, err
	}

	// Net outstanding debt first.
	settled := streamed.Min(led.Outstanding)
	led.Outstanding = led.Outstanding.Sub(settled)
	remainder := streamed.Sub(settled)

	// Top the credit sink up to the max buffer.
	topUp := types.Amount{}
	if remainder.IsPositive() {
		credits, creditErr := e.sink.JobCredits(ctx, e.job, e.jobAsset)
		if creditErr != nil {
			return nil, creditErr
		}

		room := p.MaxBuffer.Sub(credits).Max(types.Amount{})
		topUp = remainder.Min(room)

		if topUp.IsPositive() {
			if err := e.asset.Approve(ctx, e.identity, e.sinkAccount, topUp); err != nil {
				return nil, err
			}
			if err := e.sink.AddCredits(ctx, e.identity, e.job, e.jobAsset, topUp); err != nil {
				return nil, err
			}

			remainder = remainder.Sub(topUp)
		}
	}

	// Whatever is left goes to the surplus sink.
	surplus := remainder
	if surplus.IsPositive() && e.surplusSink != "" {
		if err := e.asset.Transfer(ctx, e.identity, e.surplusSink, surplus); err != nil {
			return nil, err
		}
	}

	rcpt := &claim.Receipt{
		Entity:   types.NewEntity(),
		ID:       id.NewClaimID(),
		Trigger:  trigger,
		StreamID: p.VestID,
		Streamed: streamed,
		Settled:  settled,
		TopUp:    topUp,
		Surplus:  surplus,
	}

	settleAll := led.Outstanding.IsZero() && settled.IsPositive()
	led.UpdatedAt = time.Now().UTC()

	if err := e.store.ApplyClaim(ctx, rcpt, led, settleAll); err != nil {
		return nil, err
	}

	e.plugins.EmitClaimed(ctx, rcpt)
	if topUp.IsPositive() {
		e.plugins.EmitCreditsRefilled(ctx, topUp)
	}
	if surplus.IsPositive() {
		e.plugins.EmitSurplusReturned(ctx, surplus)
	}

	e.logger.Info("claim committed",
		"id", rcpt.ID,
		"trigger", trigger,
		"streamed", streamed,
		"settled", settled,
		"top_up", topUp,
		"surplus", surplus,
		"outstanding", led.Outstanding,
	)

	return rcpt, nil
}

// pullFunds obtains this cycle's streamed amount. With an adapter
// configured the adapter's own policy applies; otherwise the bound
// stream is vested directly and the minimum buffer guard applies to the
// balance delta. The guard is strict: streaming exactly the minimum
// succeeds.
func (e *Engine) pullFunds(ctx context.Context, p *params.Parameters) (types.Amount, error) {
	if e.adapter != nil {
		return e.adapter.TopUp(ctx)
	}

	if e.source == nil {
		return types.Amount{}, fmt.Errorf("%w: funding source required", ErrNotConfigured)
	}
	if !p.Bound() {
		return types.Amount{}, ErrNoStreamBound
	}

	before, err := e.asset.BalanceOf(ctx, e.identity)
	if err != nil {
		return types.Amount{}, err
	}

	if _, err := e.source.Vest(ctx, p.VestID); err != nil {
		return types.Amount{}, err
	}

	after, err := e.asset.BalanceOf(ctx, e.identity)
	if err != nil {
		return types.Amount{}, err
	}

	streamed := after.Sub(before)
	if streamed.LessThan(p.MinBuffer) {
		return types.Amount{}, ErrMinBuffer
	}

	return streamed, nil
}

// ──────────────────────────────────────────────────
// Parameters
// ──────────────────────────────────────────────────

// SetBuffer sets the credit buffer band. Maker only. The band is
// rejected unless 0 <= min <= max.
func (e *Engine) SetBuffer(ctx context.Context, caller string, minBuffer, maxBuffer types.Amount) error {
	if err := e.requireMaker(caller); err != nil {
		return err
	}
	if minBuffer.IsNegative() || maxBuffer.IsNegative() {
		return ValidationError{Field: "buffer", Message: "must not be negative"}
	}
	if minBuffer.GreaterThan(maxBuffer) {
		return ErrInvalidBuffer
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.SetBuffer(ctx, minBuffer, maxBuffer); err != nil {
		return err
	}

	e.plugins.EmitBufferSet(ctx, minBuffer, maxBuffer)
	e.logger.Info("buffer set", "min", minBuffer, "max", maxBuffer)

	return nil
}

// SetVestID binds a funding stream. Maker only. The stream's
// beneficiary must be the treasury itself; a snapshot of the award is
// stored alongside the binding. Rebinding is allowed at any time.
func (e *Engine) SetVestID(ctx context.Context, caller string, streamID uint64) error {
	if err := e.requireMaker(caller); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return fmt.Errorf("%w: funding source required", ErrNotConfigured)
	}

	award, err := e.source.Award(ctx, streamID)
	if err != nil {
		return err
	}

	if award.Beneficiary != e.identity {
		return ErrIncorrectVestID
	}

	if err := e.store.SetVestID(ctx, streamID, award); err != nil {
		return err
	}

	e.plugins.EmitStreamBound(ctx, streamID, award)
	e.logger.Info("stream bound",
		"stream_id", streamID,
		"total", award.Total,
		"end", award.End,
	)

	return nil
}

// ──────────────────────────────────────────────────
// Configuration
// ──────────────────────────────────────────────────

// SetKeeper changes the keeper address. Governor only.
func (e *Engine) SetKeeper(ctx context.Context, caller, keeper string) error {
	if err := e.requireGovernor(caller); err != nil {
		return err
	}

	e.mu.Lock()
	e.keeper = keeper
	e.mu.Unlock()

	e.plugins.EmitConfigSet(ctx, "keeper", keeper)
	e.logger.Info("keeper set", "keeper", keeper)

	return nil
}

// SetJob changes the job whose credits the treasury maintains.
// Governor only.
func (e *Engine) SetJob(ctx context.Context, caller, job string) error {
	if err := e.requireGovernor(caller); err != nil {
		return err
	}

	e.mu.Lock()
	e.job = job
	e.mu.Unlock()

	e.plugins.EmitConfigSet(ctx, "job", job)
	e.logger.Info("job set", "job", job)

	return nil
}

// SetSurplusSink changes the surplus destination. Governor only.
func (e *Engine) SetSurplusSink(ctx context.Context, caller, addr string) error {
	if err := e.requireGovernor(caller); err != nil {
		return err
	}

	e.mu.Lock()
	e.surplusSink = addr
	e.mu.Unlock()

	e.plugins.EmitConfigSet(ctx, "surplus_sink", addr)
	e.logger.Info("surplus sink set", "addr", addr)

	return nil
}

// SetPaymentAdapter switches the funding variant. Governor only. A nil
// adapter reverts to direct vesting.
func (e *Engine) SetPaymentAdapter(ctx context.Context, caller string, adapter funding.Adapter) error {
	if err := e.requireGovernor(caller); err != nil {
		return err
	}

	e.mu.Lock()
	e.adapter = adapter
	e.mu.Unlock()

	mode := "adapter"
	if adapter == nil {
		mode = "direct"
	}

	e.plugins.EmitConfigSet(ctx, "funding_mode", mode)
	e.logger.Info("payment adapter set", "mode", mode)

	return nil
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// OutstandingDebt returns the total unsettled invoice amount.
func (e *Engine) OutstandingDebt(ctx context.Context) (types.Amount, error) {
	led, err := e.store.GetLedger(ctx)
	if err != nil {
		return types.Amount{}, err
	}

	return led.Outstanding, nil
}

// InvoiceNonce returns the last assigned invoice nonce.
func (e *Engine) InvoiceNonce(ctx context.Context) (uint64, error) {
	led, err := e.store.GetLedger(ctx)
	if err != nil {
		return 0, err
	}

	return led.Nonce, nil
}

// Buffer returns the current slack: job credits minus outstanding debt.
// Negative when debt exceeds the sink's balance.
func (e *Engine) Buffer(ctx context.Context) (types.Amount, error) {
	if e.sink == nil {
		return types.Amount{}, fmt.Errorf("%w: credit sink required", ErrNotConfigured)
	}

	credits, err := e.sink.JobCredits(ctx, e.job, e.jobAsset)
	if err != nil {
		return types.Amount{}, err
	}

	led, err := e.store.GetLedger(ctx)
	if err != nil {
		return types.Amount{}, err
	}

	return credits.Sub(led.Outstanding), nil
}

// BufferBounds returns the governed buffer band.
func (e *Engine) BufferBounds(ctx context.Context) (minBuffer, maxBuffer types.Amount, err error) {
	p, err := e.store.GetParameters(ctx)
	if err != nil {
		return types.Amount{}, types.Amount{}, err
	}

	return p.MinBuffer, p.MaxBuffer, nil
}

// VestID returns the bound funding stream ID, zero when unbound.
func (e *Engine) VestID(ctx context.Context) (uint64, error) {
	p, err := e.store.GetParameters(ctx)
	if err != nil {
		return 0, err
	}

	return p.VestID, nil
}

// Parameters returns the full governed parameter set.
func (e *Engine) Parameters(ctx context.Context) (*params.Parameters, error) {
	return e.store.GetParameters(ctx)
}

// Invoice returns one invoice by nonce.
func (e *Engine) Invoice(ctx context.Context, invoiceID uint64) (*invoice.Invoice, error) {
	return e.store.GetInvoice(ctx, invoiceID)
}

// Invoices lists invoices.
func (e *Engine) Invoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	return e.store.ListInvoices(ctx, opts)
}

// ClaimReceipt returns one claim receipt.
func (e *Engine) ClaimReceipt(ctx context.Context, claimID id.ClaimID) (*claim.Receipt, error) {
	return e.store.GetClaim(ctx, claimID)
}

// Claims lists claim receipts.
func (e *Engine) Claims(ctx context.Context, opts claim.ListOpts) ([]*claim.Receipt, error) {
	return e.store.ListClaims(ctx, opts)
}

// ──────────────────────────────────────────────────
// Role guards
// ──────────────────────────────────────────────────

func (e *Engine) requireGovernor(caller string) error {
	e.mu.Lock()
	governor := e.governor
	e.mu.Unlock()

	if governor == "" || caller != governor {
		return ErrOnlyGovernor
	}
	return nil
}

func (e *Engine) requireMaker(caller string) error {
	e.mu.Lock()
	maker := e.maker
	e.mu.Unlock()

	if maker == "" || caller != maker {
		return ErrOnlyMaker
	}
	return nil
}

func (e *Engine) requireKeeper(caller string) error {
	e.mu.Lock()
	keeper := e.keeper
	e.mu.Unlock()

	if keeper == "" || caller != keeper {
		return ErrOnlyKeeper
	}
	return nil
}
