// Package extension provides the Forge extension adapter for Treasury.
//
// It implements the forge.Extension interface to integrate Treasury
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.treasury" or "treasury" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	treasury "github.com/xraph/treasury"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/store/mongo"
	"github.com/xraph/treasury/store/postgres"
	"github.com/xraph/treasury/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "treasury"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Composable treasury reconciliation engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Treasury as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *treasury.Engine
	store      store.Store
	engineOpts []treasury.Option

	groveDB  *grove.DB
	useGrove bool
}

// New creates a new Treasury Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Treasury engine.
// This is nil until Register is called.
func (e *Extension) Engine() *treasury.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the treasury engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		st, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store = st
	}

	opts := e.buildEngineOpts()

	eng := treasury.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*treasury.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("treasury: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(ctx); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("treasury: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore constructs the store backend. With a grove.DB supplied the
// config's Driver selects the backend; otherwise the in-memory store is
// used.
func (e *Extension) buildStore() (store.Store, error) {
	if !e.useGrove || e.groveDB == nil {
		return memory.New(), nil
	}

	switch e.config.Driver {
	case "postgres", "":
		return postgres.New(e.groveDB), nil
	case "sqlite":
		return sqlite.New(e.groveDB), nil
	case "mongo":
		return mongo.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("treasury: unknown store driver %q", e.config.Driver)
	}
}

// buildEngineOpts constructs treasury.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []treasury.Option {
	opts := make([]treasury.Option, 0, len(e.engineOpts)+1)

	if e.config.KeeperInterval > 0 && !e.config.DisableKeeper {
		opts = append(opts, treasury.WithKeeperUpkeep(e.config.KeeperInterval))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("treasury: configuration is required but not found in config files; " +
				"ensure 'extensions.treasury' or 'treasury' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("treasury: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("driver", e.config.Driver),
		forge.F("keeper_interval", e.config.KeeperInterval),
		forge.F("disable_keeper", e.config.DisableKeeper),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.treasury" first (namespaced pattern).
	if cm.IsSet("extensions.treasury") {
		if err := cm.Bind("extensions.treasury", &cfg); err == nil {
			e.Logger().Debug("treasury: loaded config from file",
				forge.F("key", "extensions.treasury"),
			)
			return cfg, true
		}
		e.Logger().Warn("treasury: failed to bind extensions.treasury config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "treasury" key.
	if cm.IsSet("treasury") {
		if err := cm.Bind("treasury", &cfg); err == nil {
			e.Logger().Debug("treasury: loaded config from file",
				forge.F("key", "treasury"),
			)
			return cfg, true
		}
		e.Logger().Warn("treasury: failed to bind treasury config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.KeeperInterval == 0 {
		cfg.KeeperInterval = defaults.KeeperInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableKeeper {
		yamlConfig.DisableKeeper = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Driver == "" && programmaticConfig.Driver != "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.KeeperInterval == 0 && programmaticConfig.KeeperInterval != 0 {
		yamlConfig.KeeperInterval = programmaticConfig.KeeperInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
