package scan

import "errors"

// Sentinel errors returned by scan orchestration.
// Callers should use errors.Is to check for these conditions.
var (
	// ErrSiteNotFound is returned when the requested site does not exist.
	ErrSiteNotFound = errors.New("site not found")

	// ErrNotSiteOwner is returned when a user requests a scan or result
	// for a site owned by someone else.
	ErrNotSiteOwner = errors.New("site is not owned by this user")

	// ErrSiteInactive is returned when scanning a deactivated site.
	ErrSiteInactive = errors.New("site is inactive")

	// ErrTooManyActiveScans is returned when a user already has the
	// maximum number of scans pending or running.
	ErrTooManyActiveScans = errors.New("too many active scans for user")

	// ErrScanNotFound is returned when the requested scan run does not
	// exist or is not visible to the requesting user.
	ErrScanNotFound = errors.New("scan not found")
)
