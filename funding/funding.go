// Package funding defines how settlement funds reach the treasury.
//
// Two variants exist. A Source is a vest-style stream the treasury pulls
// from directly; the engine measures what arrived by balance delta. An
// Adapter pushes funds and enforces its own minimum/maximum policy,
// reporting how much it delivered.
package funding

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/treasury/types"
)

// Adapter policy errors. The engine propagates these unchanged so
// callers can distinguish "nothing to do" from real failures.
var (
	// ErrPendingTooSmall means the accrued amount is below the adapter's
	// minimum payment threshold.
	ErrPendingTooSmall = errors.New("funding: pending amount below minimum payment")

	// ErrBufferFull means the destination buffer is already at or above
	// its maximum and accepts no further top-ups.
	ErrBufferFull = errors.New("funding: buffer full")

	// ErrNoAward means the given stream ID has no award.
	ErrNoAward = errors.New("funding: no award for stream")
)

// Award describes one vesting stream: who it pays, its schedule, and
// how much has been taken so far.
type Award struct {
	ID          uint64       `json:"id"`
	Beneficiary string       `json:"beneficiary"`
	Manager     string       `json:"manager,omitempty"`
	Begin       time.Time    `json:"begin"`
	Cliff       time.Time    `json:"cliff"`
	End         time.Time    `json:"end"`
	Total       types.Amount `json:"total"`
	Claimed     types.Amount `json:"claimed"`
}

// Source is a vest-style funding stream. Vest transfers everything
// accrued and unclaimed to the award's beneficiary.
type Source interface {
	// Award returns the award bound to streamID.
	Award(ctx context.Context, streamID uint64) (*Award, error)

	// Unpaid returns the amount accrued but not yet vested for streamID.
	Unpaid(ctx context.Context, streamID uint64) (types.Amount, error)

	// Vest transfers all unpaid funds to the beneficiary and returns the
	// amount moved.
	Vest(ctx context.Context, streamID uint64) (types.Amount, error)
}

// Adapter is a push-style funding intermediary. TopUp pulls from its
// upstream source, applies its own min/max policy and fees, delivers
// the remainder to the treasury, and returns the delivered amount.
// Policy rejections are ErrPendingTooSmall and ErrBufferFull.
type Adapter interface {
	TopUp(ctx context.Context) (types.Amount, error)
}
