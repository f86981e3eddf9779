package config

import (
	"calsync/internal/gateway"
	"calsync/internal/kvstore"
	"calsync/internal/persist"
)

// DefaultConfig returns the configuration used when no config.yaml exists.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Backend:        BackendFile,
			KeyringService: kvstore.DefaultKeyringService,
			WriteTimeout:   persist.DefaultWriteTimeout,
		},
		Gateway: GatewayConfig{
			Timeout: gateway.DefaultTimeout,
			Burst:   1,
		},
		Flags: FlagsConfig{
			Authenticated: true,
		},
		LogLevel: "info",
	}
}
