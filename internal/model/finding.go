package model

import "time"

// Finding represents one detected rule violation on one page.
// Findings are immutable values produced by the analyzer: created during
// analysis, persisted as children of the owning scan, never mutated.
type Finding struct {
	// ID is the database identifier. Zero until the finding is persisted.
	ID int64 `json:"id,omitempty"`

	// ScanRunID links the finding to the scan that produced it.
	// Set by the orchestrator before persisting.
	ScanRunID int64 `json:"scan_run_id,omitempty"`

	// Rule is the RGAA rule identifier (e.g. "RGAA_1_1").
	Rule string `json:"rule"`

	// Title is the short human-readable description of the violation.
	Title string `json:"title"`

	// Description provides more detail about the violation.
	Description string `json:"description"`

	// Severity is the impact level of the violation.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity, kept alongside the
	// numeric value for serialization.
	SeverityText string `json:"severity_text"`

	// PageURL is the URL of the page the violation was found on.
	PageURL string `json:"page_url"`

	// Selector locates the offending element (best effort, may be empty).
	Selector string `json:"selector,omitempty"`

	// ElementHTML is the raw markup of the offending element.
	ElementHTML string `json:"element_html,omitempty"`

	// FixSuggestion describes how to remediate the violation.
	FixSuggestion string `json:"fix_suggestion,omitempty"`

	// CodeExample shows corrected markup.
	CodeExample string `json:"code_example,omitempty"`

	// DetectedAt is when the analyzer produced the finding.
	DetectedAt time.Time `json:"detected_at"`
}

// NewFinding creates a finding for the given rule on the given page,
// filling title, description, severity, and remediation guidance from
// the rule catalog. The caller sets Selector and ElementHTML as needed.
func NewFinding(rule, pageURL string) Finding {
	info := GetRuleInfo(rule)
	return Finding{
		Rule:          rule,
		Title:         info.Title,
		Description:   info.Description,
		Severity:      info.Severity,
		SeverityText:  info.Severity.String(),
		PageURL:       pageURL,
		FixSuggestion: info.FixSuggestion,
		CodeExample:   info.CodeExample,
		DetectedAt:    time.Now(),
	}
}

// CountBySeverity tallies a finding list into critical, warning, and
// info counts. Used by the scorer and when finalizing a scan.
func CountBySeverity(findings []Finding) (critical, warning, info int) {
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			critical++
		case SeverityWarning:
			warning++
		case SeverityInfo:
			info++
		}
	}
	return critical, warning, info
}
