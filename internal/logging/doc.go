// Package logging provides structured logging utilities for kube-dynamic.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Host/URL sanitization for security
//   - Credential masking
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "list")
//	logger.Debug("request completed",
//	    logging.Namespace("default"),
//	    logging.ResourceType("pods"),
//	    logging.StatusCode(200))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("connecting",
//	    logging.Host(apiServer),
//	    slog.String("token", logging.SanitizeToken(token)))
//
// # Security Considerations
//
//   - API server URLs have IP addresses redacted to prevent topology leakage
//   - Bearer tokens are never logged directly
package logging
