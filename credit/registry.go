package credit

import (
	"context"
	"sync"

	"github.com/xraph/treasury/token"
	"github.com/xraph/treasury/types"
)

const feeDenominator = 10000

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFee sets a protocol fee in basis points, deducted from every
// credit addition. The fee stays on the registry account.
func WithFee(bps int64) RegistryOption {
	return func(r *Registry) { r.feeBps = bps }
}

// Registry is an in-memory Sink. Credits are backed one-to-one by asset
// balance pulled onto the registry's own account.
type Registry struct {
	mu      sync.Mutex
	asset   token.Asset
	account string
	feeBps  int64
	credits map[string]types.Amount // job + "\x00" + asset
}

var _ Sink = (*Registry)(nil)

// NewRegistry creates a Registry holding pulled funds on account.
func NewRegistry(asset token.Asset, account string, opts ...RegistryOption) *Registry {
	r := &Registry{
		asset:   asset,
		account: account,
		credits: make(map[string]types.Amount),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Account returns the address the registry pulls funds onto. Payers
// approve this address before calling AddCredits.
func (r *Registry) Account() string { return r.account }

// JobCredits implements Sink.
func (r *Registry) JobCredits(_ context.Context, job, asset string) (types.Amount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.credits[creditKey(job, asset)], nil
}

// AddCredits implements Sink. The payer must have approved the registry
// account for at least amount.
func (r *Registry) AddCredits(ctx context.Context, payer, job, asset string, amount types.Amount) error {
	if amount.IsNegative() {
		return token.ErrInvalidAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.asset.TransferFrom(ctx, r.account, payer, r.account, amount); err != nil {
		return err
	}

	credited := amount
	if r.feeBps > 0 {
		credited = amount.MulDiv(feeDenominator-r.feeBps, feeDenominator)
	}

	key := creditKey(job, asset)
	r.credits[key] = r.credits[key].Add(credited)

	return nil
}

// Consume burns credits from a job, simulating work paid for by the
// sink. Test helper for driving the buffer down.
func (r *Registry) Consume(job, asset string, amount types.Amount) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := creditKey(job, asset)
	r.credits[key] = r.credits[key].Sub(amount).Max(types.Amount{})
}

func creditKey(job, asset string) string {
	return job + "\x00" + asset
}
