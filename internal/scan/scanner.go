package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rgaatools/rgaascan/internal/config"
	"github.com/rgaatools/rgaascan/internal/model"
)

// Store is the persistence surface the scanner needs.
// *database.ScanDB satisfies it; tests substitute fakes.
type Store interface {
	GetSite(ctx context.Context, id int64) (*model.Site, error)
	InsertScanRun(ctx context.Context, run *model.ScanRun) error
	GetScanRun(ctx context.Context, id int64) (*model.ScanRun, error)
	GetScanRunByScanID(ctx context.Context, scanID string) (*model.ScanRun, error)
	UpdateScanRunStatus(ctx context.Context, run *model.ScanRun) error
	UpdateScanProgress(ctx context.Context, runID int64, pagesScanned int) error
	CountActiveScans(ctx context.Context, userID string) (int, error)
	ListScanHistory(ctx context.Context, siteID int64, limit int) ([]*model.ScanRun, error)
	ListUserScanHistory(ctx context.Context, userID string, limit int) ([]*model.ScanRun, error)
	FinalizeScanRun(ctx context.Context, run *model.ScanRun, findings []model.Finding) error
	ListFindings(ctx context.Context, scanRunID int64) ([]model.Finding, error)
}

// Crawler discovers and fetches pages of one site.
// *crawler.Crawler satisfies it.
type Crawler interface {
	Crawl(ctx context.Context, rootURL string, maxDepth int, includeSubdomains bool) ([]string, error)
	FetchContent(ctx context.Context, pageURL string) (string, error)
}

// Analyzer produces accessibility findings for one page.
// *analyzer.Analyzer satisfies it.
type Analyzer interface {
	Analyze(pageURL, content string) []model.Finding
}

// Scorer computes the aggregate score for a scan. analyzer.Score
// satisfies it.
type Scorer func(findings []model.Finding, pagesScanned int) int

// ReportGenerator renders a report artifact for a completed scan and
// returns its filesystem path.
type ReportGenerator interface {
	Generate(ctx context.Context, run *model.ScanRun, site *model.Site, findings []model.Finding) (string, error)
}

// progressInterval is how many pages are analyzed between persisted
// progress updates.
const progressInterval = 5

// persistTimeout bounds the final persistence write of a scan whose own
// context already expired.
const persistTimeout = 30 * time.Second

// Scanner orchestrates scan runs end to end.
//
// Design decision: The scanner depends on small interfaces rather than
// the concrete crawler, analyzer, and database types because:
// 1. Tests can drive the full lifecycle without network or disk
// 2. The pipeline stages stay replaceable independently
// 3. It documents exactly which operations orchestration needs
type Scanner struct {
	// store persists sites, runs, and findings.
	store Store

	// crawler discovers and fetches pages.
	crawler Crawler

	// analyzer produces findings per page.
	analyzer Analyzer

	// score aggregates findings into a 0-100 score.
	score Scorer

	// reports renders report artifacts. Optional; nil disables artifacts.
	reports ReportGenerator

	// scanTimeout bounds one full scan execution.
	scanTimeout time.Duration

	// maxPages caps how many discovered pages are analyzed.
	maxPages int

	// maxActiveScans is the per-user concurrency quota.
	maxActiveScans int

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithScanTimeout bounds the execution time of one scan.
func WithScanTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.scanTimeout = d
		}
	}
}

// WithMaxPages caps the number of pages analyzed per scan.
func WithMaxPages(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithMaxActiveScans sets the per-user quota of concurrent scans.
func WithMaxActiveScans(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxActiveScans = n
		}
	}
}

// WithReportGenerator enables report artifact generation.
func WithReportGenerator(g ReportGenerator) Option {
	return func(s *Scanner) {
		s.reports = g
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner with the given pipeline stages.
func New(store Store, crawler Crawler, analyzer Analyzer, score Scorer, opts ...Option) *Scanner {
	s := &Scanner{
		store:          store,
		crawler:        crawler,
		analyzer:       analyzer,
		score:          score,
		scanTimeout:    config.DefaultScanTimeout,
		maxPages:       config.DefaultMaxPagesPerScan,
		maxActiveScans: config.DefaultMaxConcurrentScans,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CanUserStartScan reports whether the user is below the active scan
// quota.
func (s *Scanner) CanUserStartScan(ctx context.Context, userID string) (bool, error) {
	active, err := s.store.CountActiveScans(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to count active scans: %w", err)
	}
	return active < s.maxActiveScans, nil
}

// prepareScan validates a scan request and persists a pending run.
// All user-facing validation happens here, synchronously, so that the
// caller gets a definite answer before any crawling starts.
func (s *Scanner) prepareScan(ctx context.Context, siteID int64, userID string) (*model.ScanRun, *model.Site, error) {
	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load site: %w", err)
	}
	if site == nil {
		return nil, nil, ErrSiteNotFound
	}
	if site.UserID != userID {
		return nil, nil, ErrNotSiteOwner
	}
	if !site.IsActive {
		return nil, nil, ErrSiteInactive
	}

	ok, err := s.CanUserStartScan(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrTooManyActiveScans
	}

	run := model.NewScanRun(site.ID, userID)
	if err := s.store.InsertScanRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to persist scan run: %w", err)
	}

	return run, site, nil
}

// StartScan validates the request, persists a pending run, and executes
// the scan in a detached goroutine. The returned run is pending; poll
// GetScanResult with its ScanID for progress and outcome.
//
// Design decision: The detached execution gets its own context with the
// scan timeout rather than inheriting the caller's, because the caller
// is typically a short-lived request whose cancellation must not kill a
// scan it already accepted.
func (s *Scanner) StartScan(ctx context.Context, siteID int64, userID string) (*model.ScanRun, error) {
	run, site, err := s.prepareScan(ctx, siteID, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("scan accepted",
		"scan_id", run.ScanID,
		"site", site.URL,
		"user", userID,
	)

	runCtx, cancel := context.WithTimeout(context.Background(), s.scanTimeout)
	go func() {
		defer cancel()
		s.execute(runCtx, run, site)
	}()

	return run, nil
}

// Scan validates the request and executes the scan synchronously,
// returning the terminal run and its findings. This is the CLI path:
// one command, one scan, wait for the result.
func (s *Scanner) Scan(ctx context.Context, siteID int64, userID string) (*model.ScanRun, []model.Finding, error) {
	run, site, err := s.prepareScan(ctx, siteID, userID)
	if err != nil {
		return nil, nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.scanTimeout)
	defer cancel()

	s.execute(runCtx, run, site)

	findings, err := s.store.ListFindings(ctx, run.ID)
	if err != nil {
		return run, nil, fmt.Errorf("failed to load findings: %w", err)
	}
	return run, findings, nil
}

// execute drives one scan run to a terminal state. It never returns an
// error: every failure path marks the run failed with a reason, and a
// panic in any stage is converted into a failed run rather than lost.
func (s *Scanner) execute(ctx context.Context, run *model.ScanRun, site *model.Site) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan panicked",
				"scan_id", run.ScanID,
				"panic", r,
			)
			run.Fail(fmt.Sprintf("internal error: %v", r))
			s.persistTerminal(run, nil)
		}
	}()

	if err := run.Transition(model.StatusRunning); err != nil {
		s.logger.Error("scan in unexpected state", "scan_id", run.ScanID, "error", err)
		return
	}
	if err := s.store.UpdateScanRunStatus(ctx, run); err != nil {
		s.logger.Error("failed to mark scan running", "scan_id", run.ScanID, "error", err)
		run.Fail("failed to update scan status")
		s.persistTerminal(run, nil)
		return
	}

	s.logger.Info("scan started",
		"scan_id", run.ScanID,
		"site", site.URL,
		"max_depth", site.MaxDepth,
	)

	pages, err := s.crawler.Crawl(ctx, site.URL, site.MaxDepth, site.IncludeSubdomains)
	if err != nil {
		s.failScan(run, fmt.Sprintf("crawl failed: %v", err))
		return
	}
	if len(pages) == 0 {
		s.failScan(run, "no accessible pages found")
		return
	}
	if len(pages) > s.maxPages {
		pages = pages[:s.maxPages]
	}

	findings, pagesScanned, err := s.analyzePages(ctx, run, pages)
	if err != nil {
		// Progress committed before the abort stays visible in history.
		run.PagesScanned = pagesScanned
		s.failScan(run, abortReason(err))
		return
	}
	if pagesScanned == 0 {
		s.failScan(run, "no pages could be fetched for analysis")
		return
	}

	score := s.score(findings, pagesScanned)
	critical, warning, info := model.CountBySeverity(findings)
	if err := run.Complete(pagesScanned, score, critical, warning, info); err != nil {
		s.failScan(run, fmt.Sprintf("failed to finalize scan: %v", err))
		return
	}

	for i := range findings {
		findings[i].ScanRunID = run.ID
	}

	if s.reports != nil {
		path, err := s.reports.Generate(ctx, run, site, findings)
		if err != nil {
			// A missing artifact is not worth failing a finished scan.
			s.logger.Warn("report generation failed", "scan_id", run.ScanID, "error", err)
		} else {
			run.ReportPath = path
		}
	}

	s.persistTerminal(run, findings)

	s.logger.Info("scan completed",
		"scan_id", run.ScanID,
		"pages", pagesScanned,
		"findings", len(findings),
		"score", score,
		"grade", run.Grade,
	)
}

// analyzePages fetches and analyzes each page, collecting findings.
// A page that fails to fetch is skipped; cancellation aborts the loop.
// Progress is persisted every few pages so status queries see movement.
func (s *Scanner) analyzePages(ctx context.Context, run *model.ScanRun, pages []string) ([]model.Finding, int, error) {
	var findings []model.Finding
	pagesScanned := 0

	for _, pageURL := range pages {
		select {
		case <-ctx.Done():
			return findings, pagesScanned, ctx.Err()
		default:
		}

		content, err := s.crawler.FetchContent(ctx, pageURL)
		if err != nil {
			s.logger.Warn("skipping page",
				"scan_id", run.ScanID,
				"url", pageURL,
				"error", err,
			)
			continue
		}

		findings = append(findings, s.analyzer.Analyze(pageURL, content)...)
		pagesScanned++

		if pagesScanned%progressInterval == 0 {
			if err := s.store.UpdateScanProgress(ctx, run.ID, pagesScanned); err != nil {
				s.logger.Warn("failed to persist progress", "scan_id", run.ScanID, "error", err)
			}
		}
	}

	return findings, pagesScanned, nil
}

// abortReason turns an analysis abort into a stable failure reason.
// Timeouts and cancellations often arrive wrapped, so match with
// errors.Is rather than the error text.
func abortReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "scan timed out"
	case errors.Is(err, context.Canceled):
		return "scan cancelled"
	default:
		return fmt.Sprintf("scan aborted: %v", err)
	}
}

// failScan marks the run failed and persists it.
func (s *Scanner) failScan(run *model.ScanRun, reason string) {
	s.logger.Warn("scan failed", "scan_id", run.ScanID, "reason", reason)
	run.Fail(reason)
	s.persistTerminal(run, nil)
}

// persistTerminal writes a terminal run and its findings with a fresh
// context. The scan's own context may already be expired, and a run
// stuck in running state forever is worse than one late write.
func (s *Scanner) persistTerminal(run *model.ScanRun, findings []model.Finding) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.store.FinalizeScanRun(ctx, run, findings); err != nil {
		s.logger.Error("failed to persist scan result",
			"scan_id", run.ScanID,
			"status", run.Status,
			"error", err,
		)
	}
}

// GetScanResult returns the scan run identified by the external scan
// ID together with its findings. Users only see their own scans.
func (s *Scanner) GetScanResult(ctx context.Context, scanID, userID string) (*model.ScanRun, []model.Finding, error) {
	run, err := s.store.GetScanRunByScanID(ctx, scanID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scan run: %w", err)
	}
	if run == nil || run.UserID != userID {
		// Hide other users' scans entirely rather than revealing that
		// the scan ID exists.
		return nil, nil, ErrScanNotFound
	}

	findings, err := s.store.ListFindings(ctx, run.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load findings: %w", err)
	}
	return run, findings, nil
}

// GetUserScanHistory returns the user's scan runs across all of their
// sites, newest first.
func (s *Scanner) GetUserScanHistory(ctx context.Context, userID string, limit int) ([]*model.ScanRun, error) {
	runs, err := s.store.ListUserScanHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan history: %w", err)
	}
	return runs, nil
}

// GetSiteScanHistory returns one site's scan runs, newest first, after
// verifying the site belongs to the user.
func (s *Scanner) GetSiteScanHistory(ctx context.Context, siteID int64, userID string, limit int) ([]*model.ScanRun, error) {
	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	if site == nil {
		return nil, ErrSiteNotFound
	}
	if site.UserID != userID {
		return nil, ErrNotSiteOwner
	}

	runs, err := s.store.ListScanHistory(ctx, siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan history: %w", err)
	}
	return runs, nil
}
