// Package main provides the entry point for the rgaascan CLI.
//
// rgaascan audits websites against the RGAA accessibility reference:
// it crawls a registered site, runs the rule checks on every page, and
// aggregates the findings into a scored, graded report.
//
// Usage:
//
//	rgaascan site add https://example.org
//	rgaascan scan <site>
//	rgaascan history <site>
//
// See --help for all available options.
package main

// main is the entry point for rgaascan.
func main() {
	Execute()
}
