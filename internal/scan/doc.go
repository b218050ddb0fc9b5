// Package scan orchestrates the accessibility scan pipeline: crawl the
// site, analyze every page, score the findings, and persist the result.
//
// A scan run moves through a strict lifecycle (pending, running, then
// completed or failed) and is always driven to a terminal state, even
// on timeout or panic. Scans can execute synchronously, detached in the
// background, or in concurrency-limited batches.
package scan
