// Package logging provides structured logging for the tracker binaries.
//
// It wraps log/slog so every component logs the same way:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("server listening", "addr", addr)
//	storeLog := logger.With("component", "store")
//
// JSON output is meant for running under a supervisor, text output for a
// terminal. Both carry the service and version fields.
package logging
