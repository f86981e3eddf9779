// Package logging provides subsystem-tagged structured logging for calsync.
//
// The package wraps Go's slog with a small printf-style API. Every entry
// carries a subsystem name so output from the credential manager, the flag
// cache and the persistent stores can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Session", "Switched to environment %s", env)
//	logging.Debug("Flags", "Loaded %d flags", len(state))
//	logging.Error("Store", err, "Failed to persist %s", key)
//
// Before InitForCLI is called only warnings and errors are written, to
// stderr.
//
// # Sinks
//
// Components that recover from failures locally report them through a Sink
// rather than the package functions. Default returns a Sink backed by the
// package logger; RecordingSink keeps entries in memory for tests.
//
// Token values must never be passed to any logging function.
package logging
