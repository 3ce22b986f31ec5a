package claim

import (
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

// Trigger identifies which role initiated a claim.
type Trigger string

const (
	TriggerGovernor Trigger = "governor"
	TriggerKeeper   Trigger = "keeper"
)

// Receipt records the outcome of one claim cycle. Streamed funds are
// split three ways: Settled nets outstanding debt, TopUp refills the
// credit sink, Surplus goes to the surplus sink.
type Receipt struct {
	types.Entity
	ID       id.ClaimID   `json:"id"`
	Trigger  Trigger      `json:"trigger"`
	StreamID uint64       `json:"stream_id,omitempty"`
	Streamed types.Amount `json:"streamed"`
	Settled  types.Amount `json:"settled"`
	TopUp    types.Amount `json:"top_up"`
	Surplus  types.Amount `json:"surplus"`
}

// Conserved reports whether the split accounts for every streamed unit:
// settled + topUp + surplus == streamed.
func (r *Receipt) Conserved() bool {
	return types.SumAmounts(r.Settled, r.TopUp, r.Surplus).Equal(r.Streamed)
}
