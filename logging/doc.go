// Package logging provides a minimal logging interface and adapters for VoxSurvey.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the dialogue engine, stores and transports use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - SurveyLogger with contextual helpers for sessions and turns
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
