package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrInvalidTimeout is returned when a timeout is not positive.
	// A zero or negative timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the per-user concurrent
	// scan limit is not positive. Zero would mean no user can ever scan.
	ErrInvalidConcurrency = errors.New("invalid max concurrent scans: must be positive")

	// ErrInvalidCrawlLimit is returned when a crawl or analysis cap is
	// not positive. The caps are hard safety ceilings and must exist.
	ErrInvalidCrawlLimit = errors.New("invalid crawl limit: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
