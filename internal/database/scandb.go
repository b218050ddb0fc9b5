package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rgaatools/rgaascan/internal/model"
)

// ScanDB provides SQLite-based storage for sites, scan runs, and findings.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all sites rather
// than one file per site. This simplifies history queries across sites
// and backup/restore operations.
type ScanDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, "rgaascan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScanDB) createTables() error {
	schema := `
	-- Sites are registered crawl targets, one row per user and URL
	CREATE TABLE IF NOT EXISTS sites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		user_id TEXT NOT NULL,
		max_depth INTEGER NOT NULL DEFAULT 3,
		include_subdomains INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_scan_at DATETIME,
		UNIQUE(url, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_sites_user ON sites(user_id);

	-- Scan runs record one pipeline execution each, with aggregate results
	CREATE TABLE IF NOT EXISTS scan_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL UNIQUE,
		site_id INTEGER NOT NULL REFERENCES sites(id),
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME,
		pages_scanned INTEGER NOT NULL DEFAULT 0,
		score INTEGER NOT NULL DEFAULT 0,
		grade TEXT NOT NULL DEFAULT 'F',
		total_issues INTEGER NOT NULL DEFAULT 0,
		critical_issues INTEGER NOT NULL DEFAULT 0,
		warning_issues INTEGER NOT NULL DEFAULT 0,
		info_issues INTEGER NOT NULL DEFAULT 0,
		error_message TEXT DEFAULT '',
		report_path TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON scan_runs(site_id);
	CREATE INDEX IF NOT EXISTS idx_runs_user_status ON scan_runs(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at);

	-- Findings are the individual violations detected during a run
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_run_id INTEGER NOT NULL REFERENCES scan_runs(id),
		rule TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		severity INTEGER NOT NULL,
		page_url TEXT NOT NULL,
		selector TEXT DEFAULT '',
		element_html TEXT DEFAULT '',
		fix_suggestion TEXT DEFAULT '',
		code_example TEXT DEFAULT '',
		detected_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(scan_run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_rule ON findings(rule);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// storedTimeFormat is how timestamps are written. SQLite compares
// lexicographically, so one canonical format keeps ordering correct.
const storedTimeFormat = "2006-01-02 15:04:05"

// formatTime renders a time for storage, in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeFormat)
}

// InsertSite inserts a new site and sets its database ID.
func (sdb *ScanDB) InsertSite(ctx context.Context, site *model.Site) error {
	query := `
	INSERT INTO sites (url, name, description, user_id, max_depth, include_subdomains, is_active, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sdb.db.ExecContext(ctx, query,
		site.URL,
		site.Name,
		site.Description,
		site.UserID,
		site.MaxDepth,
		site.IncludeSubdomains,
		site.IsActive,
		formatTime(site.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert site: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get site id: %w", err)
	}
	site.ID = id
	return nil
}

const siteColumns = "id, url, name, description, user_id, max_depth, include_subdomains, is_active, created_at, last_scan_at"

// scanSite scans one site row.
func scanSite(row interface{ Scan(...any) error }) (*model.Site, error) {
	var site model.Site
	var createdAt string
	var lastScanAt sql.NullString

	err := row.Scan(
		&site.ID,
		&site.URL,
		&site.Name,
		&site.Description,
		&site.UserID,
		&site.MaxDepth,
		&site.IncludeSubdomains,
		&site.IsActive,
		&createdAt,
		&lastScanAt,
	)
	if err != nil {
		return nil, err
	}

	site.CreatedAt = parseTimestamp(createdAt)
	if lastScanAt.Valid && lastScanAt.String != "" {
		t := parseTimestamp(lastScanAt.String)
		site.LastScanAt = &t
	}
	return &site, nil
}

// GetSite retrieves a site by ID. Returns nil without error if the
// site does not exist.
func (sdb *ScanDB) GetSite(ctx context.Context, id int64) (*model.Site, error) {
	query := "SELECT " + siteColumns + " FROM sites WHERE id = ?"

	site, err := scanSite(sdb.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

// GetSiteByURL retrieves a user's site by its root URL. Returns nil
// without error if no such site exists.
func (sdb *ScanDB) GetSiteByURL(ctx context.Context, url, userID string) (*model.Site, error) {
	query := "SELECT " + siteColumns + " FROM sites WHERE url = ? AND user_id = ?"

	site, err := scanSite(sdb.db.QueryRowContext(ctx, query, url, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site by url: %w", err)
	}
	return site, nil
}

// ListSites returns all sites owned by a user, newest first.
func (sdb *ScanDB) ListSites(ctx context.Context, userID string) ([]*model.Site, error) {
	query := "SELECT " + siteColumns + " FROM sites WHERE user_id = ? ORDER BY created_at DESC, id DESC"

	rows, err := sdb.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*model.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// UpdateSiteLastScan records when a site was last scanned.
func (sdb *ScanDB) UpdateSiteLastScan(ctx context.Context, siteID int64, scannedAt time.Time) error {
	query := "UPDATE sites SET last_scan_at = ? WHERE id = ?"

	if _, err := sdb.db.ExecContext(ctx, query, formatTime(scannedAt), siteID); err != nil {
		return fmt.Errorf("failed to update site last scan: %w", err)
	}
	return nil
}

// InsertScanRun inserts a new scan run and sets its database ID.
func (sdb *ScanDB) InsertScanRun(ctx context.Context, run *model.ScanRun) error {
	query := `
	INSERT INTO scan_runs (scan_id, site_id, user_id, status, started_at, pages_scanned, score, grade,
		total_issues, critical_issues, warning_issues, info_issues, error_message, report_path)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sdb.db.ExecContext(ctx, query,
		run.ScanID,
		run.SiteID,
		run.UserID,
		string(run.Status),
		formatTime(run.StartedAt),
		run.PagesScanned,
		run.Score,
		string(run.Grade),
		run.TotalIssues,
		run.CriticalIssues,
		run.WarningIssues,
		run.InfoIssues,
		run.ErrorMessage,
		run.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get scan run id: %w", err)
	}
	run.ID = id
	return nil
}

const scanRunColumns = `id, scan_id, site_id, user_id, status, started_at, completed_at, pages_scanned,
	score, grade, total_issues, critical_issues, warning_issues, info_issues, error_message, report_path`

// scanRun scans one scan_runs row.
func scanRun(row interface{ Scan(...any) error }) (*model.ScanRun, error) {
	var run model.ScanRun
	var status, grade, startedAt string
	var completedAt sql.NullString

	err := row.Scan(
		&run.ID,
		&run.ScanID,
		&run.SiteID,
		&run.UserID,
		&status,
		&startedAt,
		&completedAt,
		&run.PagesScanned,
		&run.Score,
		&grade,
		&run.TotalIssues,
		&run.CriticalIssues,
		&run.WarningIssues,
		&run.InfoIssues,
		&run.ErrorMessage,
		&run.ReportPath,
	)
	if err != nil {
		return nil, err
	}

	run.Status = model.Status(status)
	run.Grade = model.Grade(grade)
	run.StartedAt = parseTimestamp(startedAt)
	if completedAt.Valid && completedAt.String != "" {
		t := parseTimestamp(completedAt.String)
		run.CompletedAt = &t
	}
	return &run, nil
}

// GetScanRun retrieves a scan run by database ID. Returns nil without
// error if the run does not exist.
func (sdb *ScanDB) GetScanRun(ctx context.Context, id int64) (*model.ScanRun, error) {
	query := "SELECT " + scanRunColumns + " FROM scan_runs WHERE id = ?"

	run, err := scanRun(sdb.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan run: %w", err)
	}
	return run, nil
}

// GetScanRunByScanID retrieves a scan run by its external scan
// identifier. Returns nil without error if the run does not exist.
func (sdb *ScanDB) GetScanRunByScanID(ctx context.Context, scanID string) (*model.ScanRun, error) {
	query := "SELECT " + scanRunColumns + " FROM scan_runs WHERE scan_id = ?"

	run, err := scanRun(sdb.db.QueryRowContext(ctx, query, scanID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan run: %w", err)
	}
	return run, nil
}

// UpdateScanRunStatus persists a status change, including the error
// message and completion time for terminal states.
func (sdb *ScanDB) UpdateScanRunStatus(ctx context.Context, run *model.ScanRun) error {
	query := `
	UPDATE scan_runs SET status = ?, error_message = ?, completed_at = ?
	WHERE id = ?
	`

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = formatTime(*run.CompletedAt)
	}

	if _, err := sdb.db.ExecContext(ctx, query, string(run.Status), run.ErrorMessage, completedAt, run.ID); err != nil {
		return fmt.Errorf("failed to update scan run status: %w", err)
	}
	return nil
}

// UpdateScanProgress persists the number of pages analyzed so far.
// Called periodically while a scan runs so that status queries see
// progress.
func (sdb *ScanDB) UpdateScanProgress(ctx context.Context, runID int64, pagesScanned int) error {
	query := "UPDATE scan_runs SET pages_scanned = ? WHERE id = ?"

	if _, err := sdb.db.ExecContext(ctx, query, pagesScanned, runID); err != nil {
		return fmt.Errorf("failed to update scan progress: %w", err)
	}
	return nil
}

// CountActiveScans returns the number of a user's scans that are
// pending or running. Used to enforce the per-user concurrency quota.
func (sdb *ScanDB) CountActiveScans(ctx context.Context, userID string) (int, error) {
	query := `
	SELECT COUNT(*) FROM scan_runs
	WHERE user_id = ? AND status IN (?, ?)
	`

	var count int
	err := sdb.db.QueryRowContext(ctx, query, userID, string(model.StatusPending), string(model.StatusRunning)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active scans: %w", err)
	}
	return count, nil
}

// ListScanHistory returns a site's scan runs, newest first, capped at
// limit. A limit of zero or less returns all runs.
func (sdb *ScanDB) ListScanHistory(ctx context.Context, siteID int64, limit int) ([]*model.ScanRun, error) {
	query := "SELECT " + scanRunColumns + " FROM scan_runs WHERE site_id = ? ORDER BY started_at DESC, id DESC"
	args := []any{siteID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan history: %w", err)
	}
	defer rows.Close()

	var runs []*model.ScanRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ListUserScanHistory returns a user's scan runs across all of their
// sites, newest first, capped at limit. A limit of zero or less
// returns all runs.
func (sdb *ScanDB) ListUserScanHistory(ctx context.Context, userID string, limit int) ([]*model.ScanRun, error) {
	query := "SELECT " + scanRunColumns + " FROM scan_runs WHERE user_id = ? ORDER BY started_at DESC, id DESC"
	args := []any{userID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan history: %w", err)
	}
	defer rows.Close()

	var runs []*model.ScanRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// FinalizeScanRun persists a terminal scan run together with its
// findings in one transaction, and stamps the site's last scan time.
// Either everything lands or nothing does: a completed run without its
// findings would misreport history.
func (sdb *ScanDB) FinalizeScanRun(ctx context.Context, run *model.ScanRun, findings []model.Finding) error {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	updateRun := `
	UPDATE scan_runs SET status = ?, completed_at = ?, pages_scanned = ?, score = ?, grade = ?,
		total_issues = ?, critical_issues = ?, warning_issues = ?, info_issues = ?,
		error_message = ?, report_path = ?
	WHERE id = ?
	`

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = formatTime(*run.CompletedAt)
	}

	if _, err := tx.ExecContext(ctx, updateRun,
		string(run.Status),
		completedAt,
		run.PagesScanned,
		run.Score,
		string(run.Grade),
		run.TotalIssues,
		run.CriticalIssues,
		run.WarningIssues,
		run.InfoIssues,
		run.ErrorMessage,
		run.ReportPath,
		run.ID,
	); err != nil {
		return fmt.Errorf("failed to finalize scan run: %w", err)
	}

	insertFinding := `
	INSERT INTO findings (scan_run_id, rule, title, description, severity, page_url, selector,
		element_html, fix_suggestion, code_example, detected_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, f := range findings {
		if _, err := tx.ExecContext(ctx, insertFinding,
			run.ID,
			f.Rule,
			f.Title,
			f.Description,
			int(f.Severity),
			f.PageURL,
			f.Selector,
			f.ElementHTML,
			f.FixSuggestion,
			f.CodeExample,
			formatTime(f.DetectedAt),
		); err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if run.Status == model.StatusCompleted {
		// The site's last scan time is when the scan finished, not when
		// it started.
		lastScan := run.StartedAt
		if run.CompletedAt != nil {
			lastScan = *run.CompletedAt
		}
		updateSite := "UPDATE sites SET last_scan_at = ? WHERE id = ?"
		if _, err := tx.ExecContext(ctx, updateSite, formatTime(lastScan), run.SiteID); err != nil {
			return fmt.Errorf("failed to update site last scan: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan run: %w", err)
	}
	return nil
}

// ListFindings returns all findings recorded for a scan run, in
// insertion order.
func (sdb *ScanDB) ListFindings(ctx context.Context, scanRunID int64) ([]model.Finding, error) {
	query := `
	SELECT id, scan_run_id, rule, title, description, severity, page_url, selector,
		element_html, fix_suggestion, code_example, detected_at
	FROM findings
	WHERE scan_run_id = ?
	ORDER BY id
	`

	rows, err := sdb.db.QueryContext(ctx, query, scanRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	var findings []model.Finding
	for rows.Next() {
		var f model.Finding
		var severity int
		var detectedAt string

		if err := rows.Scan(
			&f.ID,
			&f.ScanRunID,
			&f.Rule,
			&f.Title,
			&f.Description,
			&severity,
			&f.PageURL,
			&f.Selector,
			&f.ElementHTML,
			&f.FixSuggestion,
			&f.CodeExample,
			&detectedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}

		f.Severity = model.Severity(severity)
		f.SeverityText = f.Severity.String()
		f.DetectedAt = parseTimestamp(detectedAt)
		findings = append(findings, f)
	}

	return findings, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
