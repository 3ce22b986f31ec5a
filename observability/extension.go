// Package observability provides a metrics extension for Treasury that records
// lifecycle event counts and amounts through a pluggable MetricFactory.
package observability

import (
	"context"
	"math/big"

	"github.com/xraph/treasury/claim"
	"github.com/xraph/treasury/invoice"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceRecorded = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceDeleted  = (*MetricsExtension)(nil)
	_ plugin.OnClaimed         = (*MetricsExtension)(nil)
	_ plugin.OnClaimRejected   = (*MetricsExtension)(nil)
	_ plugin.OnCreditsRefilled = (*MetricsExtension)(nil)
	_ plugin.OnSurplusReturned = (*MetricsExtension)(nil)
	_ plugin.OnBufferSet       = (*MetricsExtension)(nil)
	_ plugin.OnStreamBound     = (*MetricsExtension)(nil)
	_ plugin.OnConfigSet       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Treasury plugin to automatically track reconciliation metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Invoice metrics
	InvoicesRecorded Counter
	InvoicesDeleted  Counter
	InvoiceAmount    Histogram

	// Claim metrics
	ClaimsExecuted Counter
	ClaimsRejected Counter
	ClaimStreamed  Histogram
	ClaimSettled   Histogram

	// Funding metrics
	CreditsRefilled Counter
	SurplusReturned Counter
	TopUpAmount     Histogram
	SurplusAmount   Histogram

	// Governance metrics
	BuffersSet   Counter
	StreamsBound Counter
	ConfigsSet   Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Invoice metrics
		InvoicesRecorded: factory.Counter("treasury.invoice.recorded"),
		InvoicesDeleted:  factory.Counter("treasury.invoice.deleted"),
		InvoiceAmount:    factory.Histogram("treasury.invoice.amount_wad"),

		// Claim metrics
		ClaimsExecuted: factory.Counter("treasury.claim.executed"),
		ClaimsRejected: factory.Counter("treasury.claim.rejected"),
		ClaimStreamed:  factory.Histogram("treasury.claim.streamed_wad"),
		ClaimSettled:   factory.Histogram("treasury.claim.settled_wad"),

		// Funding metrics
		CreditsRefilled: factory.Counter("treasury.credits.refilled"),
		SurplusReturned: factory.Counter("treasury.surplus.returned"),
		TopUpAmount:     factory.Histogram("treasury.credits.top_up_wad"),
		SurplusAmount:   factory.Histogram("treasury.surplus.amount_wad"),

		// Governance metrics
		BuffersSet:   factory.Counter("treasury.buffer.set"),
		StreamsBound: factory.Counter("treasury.stream.bound"),
		ConfigsSet:   factory.Counter("treasury.config.set"),

		// Error metrics
		StoreErrors:  factory.Counter("treasury.store.errors"),
		PluginErrors: factory.Counter("treasury.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceRecorded implements plugin.OnInvoiceRecorded.
func (m *MetricsExtension) OnInvoiceRecorded(_ context.Context, inv interface{}) error {
	m.InvoicesRecorded.Inc()
	if i, ok := inv.(*invoice.Invoice); ok {
		m.InvoiceAmount.Observe(wadFloat(i.Amount))
	}
	return nil
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (m *MetricsExtension) OnInvoiceDeleted(_ context.Context, _ uint64) error {
	m.InvoicesDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Claim lifecycle hooks
// ──────────────────────────────────────────────────

// OnClaimed implements plugin.OnClaimed.
func (m *MetricsExtension) OnClaimed(_ context.Context, receipt interface{}) error {
	m.ClaimsExecuted.Inc()
	if rcpt, ok := receipt.(*claim.Receipt); ok {
		m.ClaimStreamed.Observe(wadFloat(rcpt.Streamed))
		m.ClaimSettled.Observe(wadFloat(rcpt.Settled))
	}
	return nil
}

// OnClaimRejected implements plugin.OnClaimRejected.
func (m *MetricsExtension) OnClaimRejected(_ context.Context, _ string, _ error) error {
	m.ClaimsRejected.Inc()
	return nil
}

// OnCreditsRefilled implements plugin.OnCreditsRefilled.
func (m *MetricsExtension) OnCreditsRefilled(_ context.Context, amount interface{}) error {
	m.CreditsRefilled.Inc()
	if a, ok := amount.(types.Amount); ok {
		m.TopUpAmount.Observe(wadFloat(a))
	}
	return nil
}

// OnSurplusReturned implements plugin.OnSurplusReturned.
func (m *MetricsExtension) OnSurplusReturned(_ context.Context, amount interface{}) error {
	m.SurplusReturned.Inc()
	if a, ok := amount.(types.Amount); ok {
		m.SurplusAmount.Observe(wadFloat(a))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Governance hooks
// ──────────────────────────────────────────────────

// OnBufferSet implements plugin.OnBufferSet.
func (m *MetricsExtension) OnBufferSet(_ context.Context, _, _ interface{}) error {
	m.BuffersSet.Inc()
	return nil
}

// OnStreamBound implements plugin.OnStreamBound.
func (m *MetricsExtension) OnStreamBound(_ context.Context, _ uint64, _ interface{}) error {
	m.StreamsBound.Inc()
	return nil
}

// OnConfigSet implements plugin.OnConfigSet.
func (m *MetricsExtension) OnConfigSet(_ context.Context, _, _ string) error {
	m.ConfigsSet.Inc()
	return nil
}

// wadFloat converts an amount to whole tokens for histogram buckets.
// Precision loss is acceptable for metrics.
func wadFloat(a types.Amount) float64 {
	f, _ := new(big.Float).SetInt(a.BigInt()).Float64()
	return f / 1e18
}
