// Package logging provides structured logging utilities for dasmpkg.
//
// It wraps log/slog with a JSON handler on stderr, module/version context
// and level parsing from the --log-level flag or the LOG_LEVEL environment
// variable. Debug level adds source locations.
//
// Set the default logger early in main():
//
//	logging.SetDefaultStructuredLoggerWithLevel("dasmpkg", version, "info")
//	slog.Info("staging headers", "dst", resourceDir)
//
// Supported levels (case-insensitive): debug, info (default), warn/warning, error.
package logging
