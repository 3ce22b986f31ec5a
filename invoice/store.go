package invoice

import (
	"context"
)

type Store interface {
	Get(ctx context.Context, invoiceID uint64) (*Invoice, error)
	List(ctx context.Context, opts ListOpts) ([]*Invoice, error)
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
