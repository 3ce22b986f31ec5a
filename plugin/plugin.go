// Package plugin provides an extensible plugin system for Treasury.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceRecorded is called when an expense invoice is recorded.
type OnInvoiceRecorded interface {
	Plugin
	OnInvoiceRecorded(ctx context.Context, inv interface{}) error
}

// OnInvoiceDeleted is called when an invoice is deleted and its amount
// backed out of the outstanding debt.
type OnInvoiceDeleted interface {
	Plugin
	OnInvoiceDeleted(ctx context.Context, invoiceID uint64) error
}

// ──────────────────────────────────────────────────
// Claim lifecycle hooks
// ──────────────────────────────────────────────────

// OnClaimed is called after a claim cycle commits.
type OnClaimed interface {
	Plugin
	OnClaimed(ctx context.Context, receipt interface{}) error
}

// OnClaimRejected is called when a claim is refused by buffer policy.
type OnClaimRejected interface {
	Plugin
	OnClaimRejected(ctx context.Context, trigger string, err error) error
}

// OnCreditsRefilled is called when a claim tops up the credit sink.
type OnCreditsRefilled interface {
	Plugin
	OnCreditsRefilled(ctx context.Context, amount interface{}) error
}

// OnSurplusReturned is called when claim surplus is sent to the
// surplus sink.
type OnSurplusReturned interface {
	Plugin
	OnSurplusReturned(ctx context.Context, amount interface{}) error
}

// ──────────────────────────────────────────────────
// Parameter hooks
// ──────────────────────────────────────────────────

// OnBufferSet is called when the buffer bounds change.
type OnBufferSet interface {
	Plugin
	OnBufferSet(ctx context.Context, minBuffer, maxBuffer interface{}) error
}

// OnStreamBound is called when a funding stream is bound.
type OnStreamBound interface {
	Plugin
	OnStreamBound(ctx context.Context, streamID uint64, award interface{}) error
}

// OnConfigSet is called when a governor changes engine wiring
// (job, keeper, adapter, surplus sink).
type OnConfigSet interface {
	Plugin
	OnConfigSet(ctx context.Context, key, value string) error
}
