package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoWatchedFiles is returned when the watched file set is empty.
	// A snapshot of nothing cannot guard a transaction.
	ErrNoWatchedFiles = errors.New("no watched files configured: snapshots would capture nothing")

	// ErrInvalidPort is returned when a Tor listener port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidChainMode is returned when the proxychains chain mode is not
	// one of dynamic_chain, strict_chain, random_chain, round_robin_chain.
	ErrInvalidChainMode = errors.New("invalid chain mode: must be dynamic_chain, strict_chain, random_chain, or round_robin_chain")

	// ErrInvalidInterfaceName is returned when the WireGuard interface name
	// is empty or contains a path separator.
	ErrInvalidInterfaceName = errors.New("invalid interface name: must be a bare name such as wg0")

	// ErrInvalidKeepSnapshots is returned when the snapshot retention count
	// is negative. Use 0 to keep all snapshots.
	ErrInvalidKeepSnapshots = errors.New("invalid snapshot retention: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
