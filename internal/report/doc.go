// Package report renders scan results for humans and tools.
//
// Three formats are provided: plain text for terminals, Markdown for
// documentation and sharing, and JSON for programmatic processing. The
// Generator writes a Markdown artifact per completed scan and hands its
// path back to the orchestrator.
package report
