// Package logger provides structured logging for AeroSense.
//
// It builds a log/slog logger from configuration:
//
//   - logger.go: handler selection (json or text) and the runtime level
//   - attrs.go: attribute rewriting, domain error codes surfaced as fields
//
// Components receive a *slog.Logger and never reach for a global.
package logger
