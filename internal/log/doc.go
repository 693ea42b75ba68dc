// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (key material, passwords)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - WireGuard private and preshared keys, by attribute name and by the
//     base64 shape of the value
//   - Key lines leaking through logged file content
//   - Tor control authentication (HashedControlPassword values)
//   - Proxy list entries that carry credentials
//
// The tool reads and rewrites files that hold key material, so even in
// verbose mode sensitive values are masked to prevent accidental exposure
// of secrets in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("interface file written",
//	    "private_key", key,  // Will be sanitized to "***REDACTED***"
//	    "path", "/etc/wireguard/wg0.conf",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
