// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The crawler logs URLs, headers, and page metadata from sites it does
// not control, so log output can accidentally capture session cookies,
// tokens embedded in links, or credentials exposed by fetched markup.
// The SecureHandler masks those values before they reach the log sink:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - Session identifiers and authentication tokens
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("page fetched",
//	    "cookie", "session=abc123",  // Will be sanitized
//	    "url", "https://example.org",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
