// Package logger provides structured logging with configurable log levels.
// It wraps the standard log/slog package: text output for development,
// JSON output in production, every record tagged with the deployment
// environment.
package logger
