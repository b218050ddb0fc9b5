package report

import (
	"io"
	"time"

	"github.com/rgaatools/rgaascan/internal/model"
)

// Report bundles everything a writer needs to render one scan result.
type Report struct {
	// Run is the terminal scan run with its aggregate results.
	Run *model.ScanRun `json:"run"`

	// Site is the scanned site.
	Site *model.Site `json:"site"`

	// Findings are the individual violations, in detection order.
	Findings []model.Finding `json:"findings"`

	// GeneratedAt is when the report was rendered.
	GeneratedAt time.Time `json:"generated_at"`
}

// NewReport assembles a report for a scan run.
func NewReport(run *model.ScanRun, site *model.Site, findings []model.Finding) *Report {
	return &Report{
		Run:         run,
		Site:        site,
		Findings:    findings,
		GeneratedAt: time.Now().UTC(),
	}
}

// FindingsBySeverity returns the findings matching one severity, in
// detection order.
func (r *Report) FindingsBySeverity(severity model.Severity) []model.Finding {
	var matched []model.Finding
	for _, f := range r.Findings {
		if f.Severity == severity {
			matched = append(matched, f)
		}
	}
	return matched
}

// Writer defines the interface for report output.
// Implementations write scan results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *Report) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
