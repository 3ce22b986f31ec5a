// Package audithook bridges Treasury lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/treasury/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnInvoiceRecorded = (*Extension)(nil)
	_ plugin.OnInvoiceDeleted  = (*Extension)(nil)
	_ plugin.OnClaimed         = (*Extension)(nil)
	_ plugin.OnClaimRejected   = (*Extension)(nil)
	_ plugin.OnCreditsRefilled = (*Extension)(nil)
	_ plugin.OnSurplusReturned = (*Extension)(nil)
	_ plugin.OnBufferSet       = (*Extension)(nil)
	_ plugin.OnStreamBound     = (*Extension)(nil)
	_ plugin.OnConfigSet       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Treasury lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceRecorded implements plugin.OnInvoiceRecorded.
func (e *Extension) OnInvoiceRecorded(ctx context.Context, inv interface{}) error {
	return e.record(ctx, ActionInvoiceRecorded, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, "", CategoryTreasury, nil,
		"event", "invoice_recorded",
		"invoice", fmt.Sprintf("%+v", inv),
	)
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (e *Extension) OnInvoiceDeleted(ctx context.Context, invoiceID uint64) error {
	return e.record(ctx, ActionInvoiceDeleted, SeverityWarning, OutcomeSuccess,
		ResourceInvoice, fmt.Sprintf("%d", invoiceID), CategoryTreasury, nil,
		"invoice_id", invoiceID,
	)
}

// ──────────────────────────────────────────────────
// Claim lifecycle hooks
// ──────────────────────────────────────────────────

// OnClaimed implements plugin.OnClaimed.
func (e *Extension) OnClaimed(ctx context.Context, receipt interface{}) error {
	return e.record(ctx, ActionClaimExecuted, SeverityInfo, OutcomeSuccess,
		ResourceClaim, "", CategoryFunding, nil,
		"event", "claim_executed",
		"receipt", fmt.Sprintf("%+v", receipt),
	)
}

// OnClaimRejected implements plugin.OnClaimRejected.
func (e *Extension) OnClaimRejected(ctx context.Context, trigger string, err error) error {
	return e.record(ctx, ActionClaimRejected, SeverityWarning, OutcomeFailure,
		ResourceClaim, "", CategoryFunding, err,
		"trigger", trigger,
	)
}

// OnCreditsRefilled implements plugin.OnCreditsRefilled.
func (e *Extension) OnCreditsRefilled(ctx context.Context, amount interface{}) error {
	return e.record(ctx, ActionCreditsRefilled, SeverityInfo, OutcomeSuccess,
		ResourceCredit, "", CategoryFunding, nil,
		"amount", fmt.Sprintf("%v", amount),
	)
}

// OnSurplusReturned implements plugin.OnSurplusReturned.
func (e *Extension) OnSurplusReturned(ctx context.Context, amount interface{}) error {
	return e.record(ctx, ActionSurplusReturned, SeverityInfo, OutcomeSuccess,
		ResourceCredit, "", CategoryFunding, nil,
		"amount", fmt.Sprintf("%v", amount),
	)
}

// ──────────────────────────────────────────────────
// Governance hooks
// ──────────────────────────────────────────────────

// OnBufferSet implements plugin.OnBufferSet.
func (e *Extension) OnBufferSet(ctx context.Context, minBuffer, maxBuffer interface{}) error {
	return e.record(ctx, ActionBufferSet, SeverityInfo, OutcomeSuccess,
		ResourceBuffer, "", CategoryGovernance, nil,
		"min_buffer", fmt.Sprintf("%v", minBuffer),
		"max_buffer", fmt.Sprintf("%v", maxBuffer),
	)
}

// OnStreamBound implements plugin.OnStreamBound.
func (e *Extension) OnStreamBound(ctx context.Context, streamID uint64, award interface{}) error {
	return e.record(ctx, ActionStreamBound, SeverityInfo, OutcomeSuccess,
		ResourceStream, fmt.Sprintf("%d", streamID), CategoryGovernance, nil,
		"stream_id", streamID,
		"award", fmt.Sprintf("%+v", award),
	)
}

// OnConfigSet implements plugin.OnConfigSet.
func (e *Extension) OnConfigSet(ctx context.Context, key, value string) error {
	return e.record(ctx, ActionConfigSet, SeverityInfo, OutcomeSuccess,
		ResourceConfig, key, CategoryGovernance, nil,
		"key", key,
		"value", value,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
