package scan

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rgaatools/rgaascan/internal/model"
)

// BatchResult holds the outcome of one site's scan within a batch.
type BatchResult struct {
	// SiteID is the site this result belongs to.
	SiteID int64

	// Run is the terminal scan run, nil if the scan could not start.
	Run *model.ScanRun

	// Err is set when the scan could not be started at all
	// (validation failure, quota). Execution failures are recorded on
	// the run itself.
	Err error
}

// BatchScanner scans multiple sites concurrently with a shared limit.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each site gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
type BatchScanner struct {
	// scanner executes the individual scans.
	scanner *Scanner

	// concurrency is the maximum number of scans running at once.
	concurrency int

	// logger for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchScanner.
type BatchOption func(*BatchScanner)

// WithConcurrency sets the maximum number of concurrent scans.
// Default is 2 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchScanner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchScanner) {
		b.logger = logger
	}
}

// NewBatchScanner creates a BatchScanner on top of an existing Scanner.
func NewBatchScanner(scanner *Scanner, opts ...BatchOption) *BatchScanner {
	b := &BatchScanner{
		scanner:     scanner,
		concurrency: 2,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// ScanSites scans the given sites for one user, at most concurrency at
// a time. Results are returned in input order, one per site, whether
// the scan succeeded, failed, or never started.
//
// A scan that fails does not stop the batch; its failure lives in its
// result. The error return is only non-nil when the batch itself was
// cancelled.
func (b *BatchScanner) ScanSites(ctx context.Context, siteIDs []int64, userID string) ([]BatchResult, error) {
	b.logger.Info("starting batch scan",
		"total_sites", len(siteIDs),
		"concurrency", b.concurrency,
	)

	startTime := time.Now()
	results := make([]BatchResult, len(siteIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, siteID := range siteIDs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = BatchResult{SiteID: siteID, Err: gctx.Err()}
				return gctx.Err()
			default:
			}

			b.logger.Info("scanning site",
				"site_id", siteID,
				"index", i+1,
				"total", len(siteIDs),
			)

			run, _, err := b.scanner.Scan(gctx, siteID, userID)
			results[i] = BatchResult{SiteID: siteID, Run: run, Err: err}

			if err != nil {
				b.logger.Warn("scan not started",
					"site_id", siteID,
					"error", err,
				)
				// Keep scanning the remaining sites; the error is
				// recorded in the result.
				return nil
			}
			return nil
		})
	}

	err := g.Wait()

	b.logger.Info("batch scan complete",
		"total_sites", len(siteIDs),
		"elapsed", time.Since(startTime),
	)

	return results, err
}
