// Package store defines the unified storage interface for Treasury.
//
// The composite Apply methods commit an entity change together with the
// aggregate ledger row (invoice nonce + outstanding debt) as one atomic
// unit, so readers never observe a half-applied claim or recording.
package store

import (
	"context"

	"github.com/xraph/treasury/claim"
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/invoice"
	"github.com/xraph/treasury/params"
	"github.com/xraph/treasury/types"
)

// Store is the unified storage interface for all Treasury entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Ledger methods. GetLedger returns the aggregate row, seeded at
	// zero by Migrate.
	GetLedger(ctx context.Context) (*invoice.Ledger, error)

	// Invoice methods. ApplyInvoice inserts the invoice and persists
	// the advanced ledger row atomically; ApplyDelete marks the invoice
	// deleted and persists the reduced ledger row atomically.
	ApplyInvoice(ctx context.Context, inv *invoice.Invoice, led *invoice.Ledger) error
	ApplyDelete(ctx context.Context, invoiceID uint64, led *invoice.Ledger) error
	GetInvoice(ctx context.Context, invoiceID uint64) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error)

	// Claim methods. ApplyClaim inserts the receipt and persists the
	// netted ledger row atomically; when settleOutstanding is true all
	// outstanding invoices are marked settled in the same unit.
	ApplyClaim(ctx context.Context, rcpt *claim.Receipt, led *invoice.Ledger, settleOutstanding bool) error
	GetClaim(ctx context.Context, claimID id.ClaimID) (*claim.Receipt, error)
	ListClaims(ctx context.Context, opts claim.ListOpts) ([]*claim.Receipt, error)

	// Parameter methods. GetParameters returns the zero parameter set
	// until values are stored.
	GetParameters(ctx context.Context) (*params.Parameters, error)
	SetBuffer(ctx context.Context, minBuffer, maxBuffer types.Amount) error
	SetVestID(ctx context.Context, vestID uint64, award *funding.Award) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
