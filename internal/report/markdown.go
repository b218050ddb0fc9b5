package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/rgaatools/rgaascan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *Report) {
	md.H1("RGAA Accessibility Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", report.Site.Name},
			{"URL", "`" + report.Site.URL + "`"},
			{"Scan ID", "`" + report.Run.ScanID + "`"},
			{"Scan Date", report.Run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Scanned", strconv.Itoa(report.Run.PagesScanned)},
			{"Status", w.statusText(report.Run)},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on the run state.
func (w *MarkdownWriter) statusText(run *model.ScanRun) string {
	if run.Status == model.StatusFailed {
		return "❌ Failed - " + run.ErrorMessage
	}
	return "✅ Completed"
}

// writeSummary writes the score and severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *Report) {
	run := report.Run

	md.H2("Score")
	md.PlainText("")
	md.PlainTextf("**%d/100** (grade **%s**)", run.Score, run.Grade)
	md.PlainText("")

	md.H2("Severity Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(run.CriticalIssues)},
			{"🟡 Warning", strconv.Itoa(run.WarningIssues)},
			{"⚪ Info", strconv.Itoa(run.InfoIssues)},
			{"**Total**", "**" + strconv.Itoa(run.TotalIssues) + "**"},
		},
	})
	md.PlainText("")

	if run.TotalIssues > 0 {
		w.writePieChart(md, run)
	}
	w.writeAlert(md, run)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.ScanRun) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if run.CriticalIssues > 0 {
		chart.LabelAndIntValue("Critical", uint64(run.CriticalIssues))
	}
	if run.WarningIssues > 0 {
		chart.LabelAndIntValue("Warning", uint64(run.WarningIssues))
	}
	if run.InfoIssues > 0 {
		chart.LabelAndIntValue("Info", uint64(run.InfoIssues))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the results.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.ScanRun) {
	switch {
	case run.CriticalIssues > 0:
		md.Cautionf(
			"Critical accessibility barriers detected! %d critical finding(s) exclude assistive technology users.",
			run.CriticalIssues,
		)
	case run.WarningIssues > 0:
		md.Warningf(
			"Accessibility issues detected. %d warning finding(s) should be addressed.",
			run.WarningIssues,
		)
	case run.TotalIssues > 0:
		md.Note("Only informational findings detected.")
	default:
		md.Tip("No accessibility issues detected.")
	}
	md.PlainText("")
}

// severityHeaders maps display order to section headers.
var severityHeaders = []struct {
	level  model.Severity
	header string
}{
	{model.SeverityCritical, "### 🔴 Critical"},
	{model.SeverityWarning, "### 🟡 Warning"},
	{model.SeverityInfo, "### ⚪ Info"},
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *Report) {
	md.H2("Findings")
	md.PlainText("")

	if len(report.Findings) == 0 {
		md.PlainText("No accessibility issues detected.")
		md.PlainText("")
		return
	}

	for _, sev := range severityHeaders {
		findings := report.FindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		selector := f.Selector
		if selector == "" {
			selector = "-"
		}

		rows[i] = []string{
			f.Rule,
			f.Title,
			truncateString(f.PageURL, 50),
			truncateString(selector, 40),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Rule", "Title", "Page", "Element"},
		Rows:   rows,
	})
	md.PlainText("")

	// Remediation details for each finding
	for _, f := range findings {
		if f.FixSuggestion != "" {
			detail := f.FixSuggestion
			if f.CodeExample != "" {
				detail += "\n\n```html\n" + f.CodeExample + "\n```"
			}
			md.Details(f.Title, detail)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by rgaascan*")
}
