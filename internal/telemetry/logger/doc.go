// Package logger provides structured logging for fp4.
//
// It wraps log/slog:
//
//   - logger.go: logger construction, dynamic level, global default
//   - context.go: request-scoped loggers carrying the request ID
//   - redact.go: masking of credentials and email addresses
//
// Redaction runs inside the handler, so it also covers the *slog.Logger
// returned by Slog and handed to components.
package logger
