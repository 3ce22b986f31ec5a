package claim

import (
	"context"

	"github.com/xraph/treasury/id"
)

type Store interface {
	Get(ctx context.Context, claimID id.ClaimID) (*Receipt, error)
	List(ctx context.Context, opts ListOpts) ([]*Receipt, error)
}

type ListOpts struct {
	Trigger Trigger
	Limit   int
	Offset  int
}
