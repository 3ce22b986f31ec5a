// Package credit defines the job-credit sink the treasury tops up.
//
// A Sink tracks per-job credit balances of a settlement asset. The
// treasury keeps the job's credits inside a governed band: claims top
// the sink up to a maximum, a payment adapter refuses to push when the
// sink is already full.
package credit

import (
	"context"

	"github.com/xraph/treasury/types"
)

// Sink is a credit registry for jobs. AddCredits pulls funds from the
// payer, who must have approved the sink beforehand.
type Sink interface {
	// JobCredits returns the credits a job currently holds in asset.
	JobCredits(ctx context.Context, job, asset string) (types.Amount, error)

	// AddCredits pulls amount of asset from payer and credits it to job.
	// The credited amount may be less than amount if the sink charges a
	// protocol fee.
	AddCredits(ctx context.Context, payer, job, asset string, amount types.Amount) error
}
