package config

import "time"

// Storage backends.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// Config is the top-level configuration structure for calsync.
type Config struct {
	Storage  StorageConfig `yaml:"storage"`
	Gateway  GatewayConfig `yaml:"gateway"`
	Flags    FlagsConfig   `yaml:"flags"`
	LogLevel string        `yaml:"logLevel,omitempty"` // debug, info, warn or error (default: info)
}

// StorageConfig selects where session data and app stores are kept.
type StorageConfig struct {
	Backend        string        `yaml:"backend,omitempty"`        // file, keyring or memory (default: file)
	Dir            string        `yaml:"dir,omitempty"`            // Directory of the file backend (default: <config dir>/storage)
	KeyringService string        `yaml:"keyringService,omitempty"` // Service name of the keyring backend (default: calsync)
	WriteTimeout   time.Duration `yaml:"writeTimeout,omitempty"`   // Bound on each schedule data write (default: 5s, 0 disables)
}

// GatewayConfig tunes calls to the calendar server.
type GatewayConfig struct {
	Timeout   time.Duration `yaml:"timeout,omitempty"`   // Per-call timeout (default: 30s)
	RateLimit float64       `yaml:"rateLimit,omitempty"` // Calls per second, 0 disables limiting
	Burst     int           `yaml:"burst,omitempty"`     // Burst size when RateLimit is set (default: 1)
}

// FlagsConfig configures the feature flag cache.
type FlagsConfig struct {
	Catalogue     []string `yaml:"catalogue,omitempty"` // Flags to check (default: built-in catalogue)
	Authenticated bool     `yaml:"authenticated"`       // Use the per-user bearer endpoint (default: true)
	Concurrency   int      `yaml:"concurrency,omitempty"`
}
