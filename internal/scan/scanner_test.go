package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rgaatools/rgaascan/internal/analyzer"
	"github.com/rgaatools/rgaascan/internal/model"
)

// fakeStore is an in-memory Store for lifecycle tests.
type fakeStore struct {
	mu       sync.Mutex
	sites    map[int64]*model.Site
	runs     map[int64]*model.ScanRun
	findings map[int64][]model.Finding
	nextID   int64

	// progressUpdates records every persisted pages_scanned value.
	progressUpdates []int

	// finalizeErr forces FinalizeScanRun to fail.
	finalizeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sites:    make(map[int64]*model.Site),
		runs:     make(map[int64]*model.ScanRun),
		findings: make(map[int64][]model.Finding),
	}
}

func (f *fakeStore) addSite(site *model.Site) *model.Site {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	site.ID = f.nextID
	f.sites[site.ID] = site
	return site
}

func (f *fakeStore) GetSite(_ context.Context, id int64) (*model.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	site, ok := f.sites[id]
	if !ok {
		return nil, nil
	}
	copied := *site
	return &copied, nil
}

func (f *fakeStore) InsertScanRun(_ context.Context, run *model.ScanRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	run.ID = f.nextID
	copied := *run
	f.runs[run.ID] = &copied
	return nil
}

func (f *fakeStore) GetScanRun(_ context.Context, id int64) (*model.ScanRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

func (f *fakeStore) GetScanRunByScanID(_ context.Context, scanID string) (*model.ScanRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, run := range f.runs {
		if run.ScanID == scanID {
			copied := *run
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateScanRunStatus(_ context.Context, run *model.ScanRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *run
	f.runs[run.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateScanProgress(_ context.Context, runID int64, pagesScanned int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressUpdates = append(f.progressUpdates, pagesScanned)
	if run, ok := f.runs[runID]; ok {
		run.PagesScanned = pagesScanned
	}
	return nil
}

func (f *fakeStore) CountActiveScans(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, run := range f.runs {
		if run.UserID == userID && !run.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListScanHistory(_ context.Context, siteID int64, limit int) ([]*model.ScanRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var runs []*model.ScanRun
	for _, run := range f.runs {
		if run.SiteID == siteID {
			copied := *run
			runs = append(runs, &copied)
		}
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (f *fakeStore) ListUserScanHistory(_ context.Context, userID string, limit int) ([]*model.ScanRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var runs []*model.ScanRun
	for _, run := range f.runs {
		if run.UserID == userID {
			copied := *run
			runs = append(runs, &copied)
		}
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (f *fakeStore) FinalizeScanRun(_ context.Context, run *model.ScanRun, findings []model.Finding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	copied := *run
	f.runs[run.ID] = &copied
	f.findings[run.ID] = findings
	return nil
}

func (f *fakeStore) ListFindings(_ context.Context, scanRunID int64) ([]model.Finding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findings[scanRunID], nil
}

// fakeCrawler serves canned pages without the network.
type fakeCrawler struct {
	pages    map[string]string // url -> content
	order    []string
	crawlErr error
	fetchErr map[string]error
}

func (f *fakeCrawler) Crawl(_ context.Context, _ string, _ int, _ bool) ([]string, error) {
	if f.crawlErr != nil {
		return nil, f.crawlErr
	}
	return f.order, nil
}

func (f *fakeCrawler) FetchContent(_ context.Context, pageURL string) (string, error) {
	if err := f.fetchErr[pageURL]; err != nil {
		return "", err
	}
	content, ok := f.pages[pageURL]
	if !ok {
		return "", fmt.Errorf("unexpected fetch of %s", pageURL)
	}
	return content, nil
}

// newTestScanner wires a Scanner from fakes with the real analyzer and
// scorer.
func newTestScanner(store *fakeStore, crawler Crawler, opts ...Option) *Scanner {
	return New(store, crawler, analyzer.New(), analyzer.Score, opts...)
}

// cleanPage passes every check; brokenPage violates several.
const cleanPage = `<html lang="fr"><head><title>Accueil</title></head>
<body><main><h1>Bienvenue</h1><a href="/contact">Contacter le support</a></main></body></html>`

const brokenPage = `<html><head></head>
<body><img src="chart.png"><a href="/x">cliquez ici</a></body></html>`

func TestScanner_Scan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("clean site completes with perfect score", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))
		crawler := &fakeCrawler{
			order: []string{"https://example.org/"},
			pages: map[string]string{"https://example.org/": cleanPage},
		}

		run, findings, err := newTestScanner(store, crawler).Scan(ctx, site.ID, "user-1")
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if run.Status != model.StatusCompleted {
			t.Fatalf("Status = %v (%s), want completed", run.Status, run.ErrorMessage)
		}
		if run.Score != 100 || run.Grade != model.GradeA {
			t.Errorf("Score/Grade = %d/%v, want 100/A", run.Score, run.Grade)
		}
		if len(findings) != 0 {
			t.Errorf("got %d findings, want 0", len(findings))
		}
		if run.CompletedAt == nil {
			t.Error("CompletedAt = nil, want set")
		}
	})

	t.Run("broken site is penalized", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))
		crawler := &fakeCrawler{
			order: []string{"https://example.org/"},
			pages: map[string]string{"https://example.org/": brokenPage},
		}

		run, findings, err := newTestScanner(store, crawler).Scan(ctx, site.ID, "user-1")
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if run.Status != model.StatusCompleted {
			t.Fatalf("Status = %v, want completed", run.Status)
		}
		if run.Score >= 100 {
			t.Errorf("Score = %d, want below 100 for a broken page", run.Score)
		}
		if run.CriticalIssues < 2 {
			t.Errorf("CriticalIssues = %d, want at least 2 (missing alt, vague link)", run.CriticalIssues)
		}
		if run.TotalIssues != len(findings) {
			t.Errorf("TotalIssues = %d, want %d", run.TotalIssues, len(findings))
		}
		if got := run.CriticalIssues + run.WarningIssues + run.InfoIssues; got != run.TotalIssues {
			t.Errorf("severity counts sum to %d, want %d", got, run.TotalIssues)
		}
	})

	t.Run("empty crawl fails the scan", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))
		crawler := &fakeCrawler{order: nil}

		run, _, err := newTestScanner(store, crawler).Scan(ctx, site.ID, "user-1")
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if run.Status != model.StatusFailed {
			t.Fatalf("Status = %v, want failed", run.Status)
		}
		if run.ErrorMessage != "no accessible pages found" {
			t.Errorf("ErrorMessage = %q, want no accessible pages found", run.ErrorMessage)
		}
	})

	t.Run("crawl error fails the scan", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))
		crawler := &fakeCrawler{crawlErr: errors.New("connection refused")}

		run, _, err := newTestScanner(store, crawler).Scan(ctx, site.ID, "user-1")
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if run.Status != model.StatusFailed {
			t.Fatalf("Status = %v, want failed", run.Status)
		}
	})

	t.Run("unfetchable pages are skipped not fatal", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))
		crawler := &fakeCrawler{
			order: []string{"https://example.org/", "https://example.org/gone", "https://example.org/about"},
			pages: map[string]string{
				"https://example.org/":      cleanPage,
				"https://example.org/about": cleanPage,
			},
			fetchErr: map[string]error{
				"https://example.org/gone": errors.New("503 service unavailable"),
			},
		}

		run, _, err := newTestScanner(store, crawler).Scan(ctx, site.ID, "user-1")
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if run.Status != model.StatusCompleted {
			t.Fatalf("Status = %v, want completed", run.Status)
		}
		if run.PagesScanned != 2 {
			t.Errorf("PagesScanned = %d, want 2", run.PagesScanned)
		}
	})

	t.Run("page cap limits analysis", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))

		crawler := &fakeCrawler{pages: map[string]string{}}
		for i := 0; i < 10; i++ {
			url := fmt.Sprintf("https://example.org/p%d", i)
			crawler.order = append(crawler.order, url)
			crawler.pages[url] = cleanPage
		}

		run, _, err := newTestScanner(store, crawler, WithMaxPages(3)).Scan(ctx, site.ID, "user-1")
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if run.PagesScanned != 3 {
			t.Errorf("PagesScanned = %d, want 3", run.PagesScanned)
		}
	})

	t.Run("progress is persisted periodically", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))

		crawler := &fakeCrawler{pages: map[string]string{}}
		for i := 0; i < 12; i++ {
			url := fmt.Sprintf("https://example.org/p%d", i)
			crawler.order = append(crawler.order, url)
			crawler.pages[url] = cleanPage
		}

		if _, _, err := newTestScanner(store, crawler).Scan(ctx, site.ID, "user-1"); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		store.mu.Lock()
		updates := append([]int(nil), store.progressUpdates...)
		store.mu.Unlock()
		want := []int{5, 10}
		if len(updates) != len(want) {
			t.Fatalf("progress updates = %v, want %v", updates, want)
		}
		for i := range want {
			if updates[i] != want[i] {
				t.Errorf("progress updates = %v, want %v", updates, want)
				break
			}
		}
	})
}

func TestScanner_Scan_validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	crawler := &fakeCrawler{
		order: []string{"https://example.org/"},
		pages: map[string]string{"https://example.org/": cleanPage},
	}

	t.Run("unknown site", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		_, _, err := newTestScanner(store, crawler).Scan(ctx, 42, "user-1")
		if !errors.Is(err, ErrSiteNotFound) {
			t.Errorf("error = %v, want ErrSiteNotFound", err)
		}
	})

	t.Run("foreign site", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := store.addSite(model.NewSite("https://example.org", "Example", "owner"))
		_, _, err := newTestScanner(store, crawler).Scan(ctx, site.ID, "intruder")
		if !errors.Is(err, ErrNotSiteOwner) {
			t.Errorf("error = %v, want ErrNotSiteOwner", err)
		}
	})

	t.Run("inactive site", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := model.NewSite("https://example.org", "Example", "user-1")
		site.IsActive = false
		store.addSite(site)
		_, _, err := newTestScanner(store, crawler).Scan(ctx, site.ID, "user-1")
		if !errors.Is(err, ErrSiteInactive) {
			t.Errorf("error = %v, want ErrSiteInactive", err)
		}
	})

	t.Run("quota exhausted", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))

		// Two non-terminal runs exhaust the default quota.
		for i := 0; i < 2; i++ {
			run := model.NewScanRun(site.ID, "user-1")
			if err := store.InsertScanRun(ctx, run); err != nil {
				t.Fatalf("InsertScanRun() error = %v", err)
			}
		}

		s := newTestScanner(store, crawler)
		ok, err := s.CanUserStartScan(ctx, "user-1")
		if err != nil {
			t.Fatalf("CanUserStartScan() error = %v", err)
		}
		if ok {
			t.Error("CanUserStartScan() = true, want false at quota")
		}

		_, _, err = s.Scan(ctx, site.ID, "user-1")
		if !errors.Is(err, ErrTooManyActiveScans) {
			t.Errorf("error = %v, want ErrTooManyActiveScans", err)
		}
	})
}

func TestScanner_StartScan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newFakeStore()
	site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))
	crawler := &fakeCrawler{
		order: []string{"https://example.org/"},
		pages: map[string]string{"https://example.org/": brokenPage},
	}

	s := newTestScanner(store, crawler)
	run, err := s.StartScan(ctx, site.ID, "user-1")
	if err != nil {
		t.Fatalf("StartScan() error = %v", err)
	}
	if run.Status != model.StatusPending {
		t.Errorf("initial Status = %v, want pending", run.Status)
	}
	if run.ScanID == "" {
		t.Error("ScanID is empty")
	}

	// The detached execution should reach a terminal state shortly.
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, _, err := s.GetScanResult(ctx, run.ScanID, "user-1")
		if err != nil {
			t.Fatalf("GetScanResult() error = %v", err)
		}
		if got.Status.Terminal() {
			if got.Status != model.StatusCompleted {
				t.Fatalf("Status = %v (%s), want completed", got.Status, got.ErrorMessage)
			}
			if got.TotalIssues == 0 {
				t.Error("TotalIssues = 0, want findings from broken page")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("scan still %v after deadline", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScanner_Scan_timeout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newFakeStore()
	site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))

	// Enough pages that the timeout trips mid-analysis.
	crawler := &slowCrawler{pageCount: 50, delay: 20 * time.Millisecond}

	s := newTestScanner(store, crawler, WithScanTimeout(50*time.Millisecond))
	run, _, err := s.Scan(ctx, site.ID, "user-1")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if run.Status != model.StatusFailed {
		t.Fatalf("Status = %v, want failed after timeout", run.Status)
	}
	if run.ErrorMessage != "scan timed out" {
		t.Errorf("ErrorMessage = %q, want scan timed out", run.ErrorMessage)
	}
	if run.CompletedAt == nil {
		t.Error("CompletedAt = nil, want set for terminal run")
	}
}

// slowCrawler delays every fetch to trigger timeouts.
type slowCrawler struct {
	pageCount int
	delay     time.Duration
}

func (c *slowCrawler) Crawl(_ context.Context, _ string, _ int, _ bool) ([]string, error) {
	pages := make([]string, c.pageCount)
	for i := range pages {
		pages[i] = fmt.Sprintf("https://example.org/p%d", i)
	}
	return pages, nil
}

func (c *slowCrawler) FetchContent(ctx context.Context, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.delay):
		return cleanPage, nil
	}
}

// cancellingCrawler cancels the scan after serving a fixed number of
// pages, so a scan can be interrupted at a known point.
type cancellingCrawler struct {
	pageCount int
	stopAfter int
	served    int
	cancel    context.CancelFunc
}

func (c *cancellingCrawler) Crawl(_ context.Context, _ string, _ int, _ bool) ([]string, error) {
	pages := make([]string, c.pageCount)
	for i := range pages {
		pages[i] = fmt.Sprintf("https://example.org/p%d", i)
	}
	return pages, nil
}

func (c *cancellingCrawler) FetchContent(_ context.Context, _ string) (string, error) {
	c.served++
	if c.served == c.stopAfter {
		c.cancel()
	}
	return cleanPage, nil
}

func TestScanner_Scan_keepsProgressOnCancel(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancellation trips after page 6, past the progress write at 5.
	crawler := &cancellingCrawler{pageCount: 7, stopAfter: 6, cancel: cancel}

	run, _, err := newTestScanner(store, crawler).Scan(ctx, site.ID, "user-1")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if run.Status != model.StatusFailed {
		t.Fatalf("Status = %v, want failed after cancellation", run.Status)
	}
	if run.ErrorMessage != "scan cancelled" {
		t.Errorf("ErrorMessage = %q, want scan cancelled", run.ErrorMessage)
	}
	if run.PagesScanned != 6 {
		t.Errorf("PagesScanned = %d, want 6", run.PagesScanned)
	}

	// The persisted run must not roll back below the committed progress.
	stored, err := store.GetScanRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetScanRun() error = %v", err)
	}
	if stored.PagesScanned != 6 {
		t.Errorf("persisted PagesScanned = %d, want 6", stored.PagesScanned)
	}
}

func TestScanner_GetScanResult(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newFakeStore()
	site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))
	crawler := &fakeCrawler{
		order: []string{"https://example.org/"},
		pages: map[string]string{"https://example.org/": brokenPage},
	}

	s := newTestScanner(store, crawler)
	run, _, err := s.Scan(ctx, site.ID, "user-1")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	t.Run("owner sees run and findings", func(t *testing.T) {
		got, findings, err := s.GetScanResult(ctx, run.ScanID, "user-1")
		if err != nil {
			t.Fatalf("GetScanResult() error = %v", err)
		}
		if got.ScanID != run.ScanID {
			t.Errorf("ScanID = %q, want %q", got.ScanID, run.ScanID)
		}
		if len(findings) != got.TotalIssues {
			t.Errorf("got %d findings, want %d", len(findings), got.TotalIssues)
		}
	})

	t.Run("other user sees nothing", func(t *testing.T) {
		_, _, err := s.GetScanResult(ctx, run.ScanID, "intruder")
		if !errors.Is(err, ErrScanNotFound) {
			t.Errorf("error = %v, want ErrScanNotFound", err)
		}
	})

	t.Run("unknown scan id", func(t *testing.T) {
		_, _, err := s.GetScanResult(ctx, "no-such-scan", "user-1")
		if !errors.Is(err, ErrScanNotFound) {
			t.Errorf("error = %v, want ErrScanNotFound", err)
		}
	})
}

func TestScanner_ScanHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newFakeStore()
	siteA := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))
	siteB := store.addSite(model.NewSite("https://example.net", "Other", "user-1"))
	crawler := &fakeCrawler{
		order: []string{"https://example.org/"},
		pages: map[string]string{"https://example.org/": cleanPage},
	}

	s := newTestScanner(store, crawler)
	for _, siteID := range []int64{siteA.ID, siteA.ID, siteB.ID} {
		if _, _, err := s.Scan(ctx, siteID, "user-1"); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
	}

	t.Run("site history is scoped and owner-checked", func(t *testing.T) {
		t.Parallel()
		runs, err := s.GetSiteScanHistory(ctx, siteA.ID, "user-1", 10)
		if err != nil {
			t.Fatalf("GetSiteScanHistory() error = %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("got %d runs, want 2", len(runs))
		}

		if _, err := s.GetSiteScanHistory(ctx, siteA.ID, "intruder", 10); !errors.Is(err, ErrNotSiteOwner) {
			t.Errorf("error = %v, want ErrNotSiteOwner", err)
		}
		if _, err := s.GetSiteScanHistory(ctx, 404, "user-1", 10); !errors.Is(err, ErrSiteNotFound) {
			t.Errorf("error = %v, want ErrSiteNotFound", err)
		}
	})

	t.Run("user history spans all of the user's sites", func(t *testing.T) {
		t.Parallel()
		runs, err := s.GetUserScanHistory(ctx, "user-1", 10)
		if err != nil {
			t.Fatalf("GetUserScanHistory() error = %v", err)
		}
		if len(runs) != 3 {
			t.Errorf("got %d runs, want 3", len(runs))
		}

		other, err := s.GetUserScanHistory(ctx, "someone-else", 10)
		if err != nil {
			t.Fatalf("GetUserScanHistory() error = %v", err)
		}
		if len(other) != 0 {
			t.Errorf("got %d runs for another user, want 0", len(other))
		}
	})
}

// panicAnalyzer simulates an analyzer bug.
type panicAnalyzer struct{}

func (panicAnalyzer) Analyze(string, string) []model.Finding {
	panic("analyzer bug")
}

func TestScanner_Scan_recoversPanic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newFakeStore()
	site := store.addSite(model.NewSite("https://example.org", "Example", "user-1"))
	crawler := &fakeCrawler{
		order: []string{"https://example.org/"},
		pages: map[string]string{"https://example.org/": cleanPage},
	}

	s := New(store, crawler, panicAnalyzer{}, analyzer.Score)
	run, _, err := s.Scan(ctx, site.ID, "user-1")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if run.Status != model.StatusFailed {
		t.Fatalf("Status = %v, want failed after panic", run.Status)
	}
	if run.ErrorMessage == "" {
		t.Error("ErrorMessage is empty, want panic reason")
	}
}
