package extension

import (
	"time"

	"github.com/xraph/grove"

	treasury "github.com/xraph/treasury"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
)

// Option configures the Treasury Forge extension.
type Option func(*Extension)

// WithStore sets the store for the treasury engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a treasury.Option through to the underlying engine.
func WithEngineOption(opt treasury.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a treasury plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, treasury.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithKeeperInterval sets how frequently the background upkeep worker runs.
func WithKeeperInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.KeeperInterval = d }
}

// WithDisableKeeper prevents the background upkeep worker from starting.
func WithDisableKeeper() Option {
	return func(e *Extension) { e.config.DisableKeeper = true }
}

// WithGroveDB supplies a grove.DB for the store. The extension constructs
// the backend selected by the config's Driver field (postgres/sqlite/mongo).
// Ignored when WithStore was also called.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.useGrove = true
	}
}
