package funding

import (
	"context"
	"sync"

	"github.com/xraph/treasury/credit"
	"github.com/xraph/treasury/token"
	"github.com/xraph/treasury/types"
)

const feeDenominator = 10000

// PaymentAdapterConfig wires a PaymentAdapter.
type PaymentAdapterConfig struct {
	// StreamID is the upstream vesting stream the adapter drains. The
	// adapter's Account must be that stream's beneficiary.
	StreamID uint64

	// Account is the adapter's own address, where vested funds land
	// before delivery.
	Account string

	// Treasury is the delivery target.
	Treasury string

	// Sink and Job identify the credit buffer the adapter polices.
	Sink     credit.Sink
	Job      string
	JobAsset string

	// MinPayment rejects top-ups when the pending amount is below it.
	MinPayment types.Amount

	// MaxBuffer rejects top-ups when the job's credits already meet it.
	MaxBuffer types.Amount

	// FeeBps is an optional protocol fee in basis points, left on the
	// FeeCollector account.
	FeeBps       int64
	FeeCollector string
}

// PaymentAdapter pushes vested funds to the treasury under its own
// policy: it refuses to move amounts below MinPayment and refuses to
// deliver while the job's credit buffer is at or above MaxBuffer.
type PaymentAdapter struct {
	mu     sync.Mutex
	source Source
	asset  token.Asset
	cfg    PaymentAdapterConfig
}

var _ Adapter = (*PaymentAdapter)(nil)

// NewPaymentAdapter creates a PaymentAdapter over source and asset.
func NewPaymentAdapter(source Source, asset token.Asset, cfg PaymentAdapterConfig) *PaymentAdapter {
	return &PaymentAdapter{source: source, asset: asset, cfg: cfg}
}

// StreamID returns the upstream stream the adapter drains.
func (p *PaymentAdapter) StreamID() uint64 { return p.cfg.StreamID }

// TopUp implements Adapter. Returns the amount delivered to the
// treasury after fees.
func (p *PaymentAdapter) TopUp(ctx context.Context) (types.Amount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending, err := p.source.Unpaid(ctx, p.cfg.StreamID)
	if err != nil {
		return types.Amount{}, err
	}

	if pending.LessThan(p.cfg.MinPayment) {
		return types.Amount{}, ErrPendingTooSmall
	}

	credits, err := p.cfg.Sink.JobCredits(ctx, p.cfg.Job, p.cfg.JobAsset)
	if err != nil {
		return types.Amount{}, err
	}

	if !credits.LessThan(p.cfg.MaxBuffer) {
		return types.Amount{}, ErrBufferFull
	}

	streamed, err := p.source.Vest(ctx, p.cfg.StreamID)
	if err != nil {
		return types.Amount{}, err
	}

	delivered := streamed
	if p.cfg.FeeBps > 0 {
		fee := streamed.MulDiv(p.cfg.FeeBps, feeDenominator)
		if fee.IsPositive() {
			if err := p.asset.Transfer(ctx, p.cfg.Account, p.cfg.FeeCollector, fee); err != nil {
				return types.Amount{}, err
			}

			delivered = streamed.Sub(fee)
		}
	}

	if err := p.asset.Transfer(ctx, p.cfg.Account, p.cfg.Treasury, delivered); err != nil {
		return types.Amount{}, err
	}

	return delivered, nil
}
