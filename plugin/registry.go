package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onInvoiceRecorded []OnInvoiceRecorded
	onInvoiceDeleted  []OnInvoiceDeleted
	onClaimed         []OnClaimed
	onClaimRejected   []OnClaimRejected
	onCreditsRefilled []OnCreditsRefilled
	onSurplusReturned []OnSurplusReturned
	onBufferSet       []OnBufferSet
	onStreamBound     []OnStreamBound
	onConfigSet       []OnConfigSet
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnInvoiceRecorded); ok {
		r.onInvoiceRecorded = append(r.onInvoiceRecorded, v)
	}
	if v, ok := p.(OnInvoiceDeleted); ok {
		r.onInvoiceDeleted = append(r.onInvoiceDeleted, v)
	}
	if v, ok := p.(OnClaimed); ok {
		r.onClaimed = append(r.onClaimed, v)
	}
	if v, ok := p.(OnClaimRejected); ok {
		r.onClaimRejected = append(r.onClaimRejected, v)
	}
	if v, ok := p.(OnCreditsRefilled); ok {
		r.onCreditsRefilled = append(r.onCreditsRefilled, v)
	}
	if v, ok := p.(OnSurplusReturned); ok {
		r.onSurplusReturned = append(r.onSurplusReturned, v)
	}
	if v, ok := p.(OnBufferSet); ok {
		r.onBufferSet = append(r.onBufferSet, v)
	}
	if v, ok := p.(OnStreamBound); ok {
		r.onStreamBound = append(r.onStreamBound, v)
	}
	if v, ok := p.(OnConfigSet); ok {
		r.onConfigSet = append(r.onConfigSet, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnInvoiceRecorded)(nil)).Elem(), "OnInvoiceRecorded")
	checkInterface(reflect.TypeOf((*OnInvoiceDeleted)(nil)).Elem(), "OnInvoiceDeleted")
	checkInterface(reflect.TypeOf((*OnClaimed)(nil)).Elem(), "OnClaimed")
	checkInterface(reflect.TypeOf((*OnClaimRejected)(nil)).Elem(), "OnClaimRejected")
	checkInterface(reflect.TypeOf((*OnCreditsRefilled)(nil)).Elem(), "OnCreditsRefilled")
	checkInterface(reflect.TypeOf((*OnSurplusReturned)(nil)).Elem(), "OnSurplusReturned")
	checkInterface(reflect.TypeOf((*OnBufferSet)(nil)).Elem(), "OnBufferSet")
	checkInterface(reflect.TypeOf((*OnStreamBound)(nil)).Elem(), "OnStreamBound")
	checkInterface(reflect.TypeOf((*OnConfigSet)(nil)).Elem(), "OnConfigSet")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceRecorded emits an invoice recorded event.
func (r *Registry) EmitInvoiceRecorded(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInvoiceRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceRecorded(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceDeleted emits an invoice deleted event.
func (r *Registry) EmitInvoiceDeleted(ctx context.Context, invoiceID uint64) {
	r.mu.RLock()
	plugins := r.onInvoiceDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceDeleted(ctx, invoiceID)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitClaimed emits a claim committed event.
func (r *Registry) EmitClaimed(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onClaimed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnClaimed(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnClaimed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitClaimRejected emits a claim rejected event.
func (r *Registry) EmitClaimRejected(ctx context.Context, trigger string, rejection error) {
	r.mu.RLock()
	plugins := r.onClaimRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnClaimRejected(ctx, trigger, rejection)
		}); err != nil {
			r.logger.Warn("plugin OnClaimRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCreditsRefilled emits a credits refilled event.
func (r *Registry) EmitCreditsRefilled(ctx context.Context, amount interface{}) {
	r.mu.RLock()
	plugins := r.onCreditsRefilled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditsRefilled(ctx, amount)
		}); err != nil {
			r.logger.Warn("plugin OnCreditsRefilled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSurplusReturned emits a surplus returned event.
func (r *Registry) EmitSurplusReturned(ctx context.Context, amount interface{}) {
	r.mu.RLock()
	plugins := r.onSurplusReturned
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSurplusReturned(ctx, amount)
		}); err != nil {
			r.logger.Warn("plugin OnSurplusReturned failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBufferSet emits a buffer bounds changed event.
func (r *Registry) EmitBufferSet(ctx context.Context, minBuffer, maxBuffer interface{}) {
	r.mu.RLock()
	plugins := r.onBufferSet
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBufferSet(ctx, minBuffer, maxBuffer)
		}); err != nil {
			r.logger.Warn("plugin OnBufferSet failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStreamBound emits a funding stream bound event.
func (r *Registry) EmitStreamBound(ctx context.Context, streamID uint64, award interface{}) {
	r.mu.RLock()
	plugins := r.onStreamBound
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStreamBound(ctx, streamID, award)
		}); err != nil {
			r.logger.Warn("plugin OnStreamBound failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitConfigSet emits an engine wiring changed event.
func (r *Registry) EmitConfigSet(ctx context.Context, key, value string) {
	r.mu.RLock()
	plugins := r.onConfigSet
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnConfigSet(ctx, key, value)
		}); err != nil {
			r.logger.Warn("plugin OnConfigSet failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the claim pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
