// Package config loads calsync's configuration.
//
// Configuration lives in ~/.config/calsync/config.yaml. Every field has a
// default, so the file is optional:
//
//	storage:
//	  backend: file            # file, keyring or memory
//	  dir: ~/.config/calsync/storage
//	  keyringService: calsync
//	gateway:
//	  timeout: 30s
//	  rateLimit: 5             # calls per second, 0 disables
//	  burst: 2
//	flags:
//	  authenticated: true      # false uses the public per-flag endpoint
//	  catalogue: [rmp_ratings, ics_export]
//	logLevel: info
//
// Problems with the file are reported as *ConfigurationError, whose
// DetailedError lists every validation failure.
package config
