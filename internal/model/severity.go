package model

// Severity represents the impact level of an accessibility finding.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed. The values are ordered ascending so
// that a > comparison means "more severe".
type Severity int

const (
	// SeverityInfo indicates an improvement recommendation.
	// Example: an empty alt attribute on an image that may not be decorative.
	// The page remains usable with assistive technology.
	SeverityInfo Severity = iota

	// SeverityWarning indicates an important but non-blocking issue.
	// Examples: missing lang attribute, heading level skips, missing
	// main landmark. Assistive technology degrades but still works.
	SeverityWarning

	// SeverityCritical indicates a blocking accessibility barrier.
	// Examples: informative images without alt text, unlabeled form
	// fields, missing page title. Some users cannot use the page at all.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a stored severity string back to a Severity.
// Unknown strings map to SeverityInfo so that malformed rows degrade
// gracefully rather than failing a whole history query.
func ParseSeverity(s string) Severity {
	switch s {
	case "CRITICAL":
		return SeverityCritical
	case "WARNING":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
