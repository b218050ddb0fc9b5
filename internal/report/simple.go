package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rgaatools/rgaascan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether severity sections with no findings
	// are shown.
	showEmpty bool

	// verbose enables per-finding remediation details in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with remediation details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("RGAA Accessibility Report\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Site:          %s (%s)\n", report.Site.Name, report.Site.URL)
	fmt.Fprintf(sb, "Scan ID:       %s\n", report.Run.ScanID)
	fmt.Fprintf(sb, "Scan Date:     %s\n", report.Run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Pages Scanned: %d\n", report.Run.PagesScanned)
	fmt.Fprintf(sb, "Status:        %s\n", w.statusText(report.Run))
	sb.WriteString("\n")
}

// statusText renders the terminal state of a run.
func (w *SimpleWriter) statusText(run *model.ScanRun) string {
	if run.Status == model.StatusFailed {
		return "FAILED - " + run.ErrorMessage
	}
	return strings.ToUpper(string(run.Status))
}

// writeSummary writes score, grade, and severity counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *Report) {
	run := report.Run

	sb.WriteString("Summary\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Score:    %d/100 (grade %s)\n", run.Score, run.Grade)
	fmt.Fprintf(sb, "Critical: %d\n", run.CriticalIssues)
	fmt.Fprintf(sb, "Warning:  %d\n", run.WarningIssues)
	fmt.Fprintf(sb, "Info:     %d\n", run.InfoIssues)
	fmt.Fprintf(sb, "Total:    %d\n", run.TotalIssues)
	sb.WriteString("\n")
}

// severityOrder lists severities from most to least urgent for display.
var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityWarning,
	model.SeverityInfo,
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *Report) {
	if len(report.Findings) == 0 {
		sb.WriteString("Findings\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		sb.WriteString("No accessibility issues detected.\n\n")
		return
	}

	for _, severity := range severityOrder {
		findings := report.FindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		fmt.Fprintf(sb, "%s (%d)\n", severity, len(findings))
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")

		for i, f := range findings {
			fmt.Fprintf(sb, "%d. [%s] %s\n", i+1, f.Rule, f.Title)
			fmt.Fprintf(sb, "   Page: %s\n", f.PageURL)
			if f.Selector != "" {
				fmt.Fprintf(sb, "   Element: %s\n", truncateString(f.Selector, 60))
			}
			if w.verbose {
				if f.Description != "" {
					fmt.Fprintf(sb, "   Detail: %s\n", f.Description)
				}
				if f.FixSuggestion != "" {
					fmt.Fprintf(sb, "   Fix: %s\n", f.FixSuggestion)
				}
			}
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *Report) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Generated by rgaascan at %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
}
