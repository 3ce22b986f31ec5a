package extension

import "time"

// Config holds the Treasury extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.treasury" or "treasury" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Driver selects the store backend constructed from a grove.DB
	// supplied via WithGroveDB: "postgres", "sqlite" or "mongo"
	// (default: "postgres").
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// KeeperInterval is how frequently the background upkeep worker runs
	// automated claims (default: 1m). Zero disables the worker.
	KeeperInterval time.Duration `json:"keeper_interval" mapstructure:"keeper_interval" yaml:"keeper_interval"`

	// DisableKeeper prevents the background upkeep worker from starting
	// even when a keeper role is configured.
	DisableKeeper bool `json:"disable_keeper" mapstructure:"disable_keeper" yaml:"disable_keeper"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:         "postgres",
		KeeperInterval: time.Minute,
	}
}
