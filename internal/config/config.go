package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The crawl and scan limits mirror the resource model of the scan
// pipeline: they are hard ceilings, not soft targets.
const (
	// DefaultHTTPTimeout is the per-request timeout for crawl fetches.
	// 30 seconds is generous for public websites while keeping a stuck
	// server from eating into the overall scan budget.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultScanTimeout bounds one whole scan execution (crawl, analysis,
	// scoring). Scans that exceed it are marked failed with a timeout
	// reason rather than left running forever.
	DefaultScanTimeout = 10 * time.Minute

	// DefaultMaxConcurrentScans is the per-user cap on scans in the
	// pending or running state. This is a local concurrency gate,
	// independent of any subscription-tier quota.
	DefaultMaxConcurrentScans = 2

	// DefaultMaxPagesPerScan caps how many discovered pages one scan
	// analyzes. Discovery order decides which pages make the cut; this
	// truncation is an accepted policy, not a bug.
	DefaultMaxPagesPerScan = 50

	// DefaultMaxURLsPerCrawl is the hard ceiling on URLs one crawl may
	// discover, guarding against explosive fan-out or malicious sites.
	DefaultMaxURLsPerCrawl = 100

	// DefaultMaxLinksPerPage limits how many new links the crawler
	// enqueues from a single page.
	DefaultMaxLinksPerPage = 10

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is sufficient for HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies rgaascan in HTTP requests so that site
	// operators can recognize scanner traffic in their logs.
	DefaultUserAgent = "rgaascan/1.0 (Accessibility Scanner)"

	// DefaultHistoryLimit is how many scans a history query returns
	// when the caller doesn't specify a limit.
	DefaultHistoryLimit = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "rgaascan"
)

// Config holds all configuration options for rgaascan.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ScanConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// HTTPTimeout is the timeout for each HTTP request during crawling.
	HTTPTimeout time.Duration

	// ScanTimeout is the wall-clock budget for one whole scan execution.
	ScanTimeout time.Duration

	// MaxConcurrentScans is the per-user cap on active scans.
	MaxConcurrentScans int

	// MaxPagesPerScan is the cap on pages analyzed per scan.
	MaxPagesPerScan int

	// MaxURLsPerCrawl is the hard ceiling on URLs discovered per crawl.
	MaxURLsPerCrawl int

	// MaxLinksPerPage limits links enqueued from a single page.
	MaxLinksPerPage int

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// ReportDir is the directory where report artifacts are written.
	ReportDir string

	// ConfigFilePath is the path to the YAML overrides file. If empty,
	// the tool searches for .rgaascan in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// UserID identifies the acting user for ownership and concurrency
	// checks. The core treats it as an opaque string key.
	UserID string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (timeouts, caps).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		HTTPTimeout:        DefaultHTTPTimeout,
		ScanTimeout:        DefaultScanTimeout,
		MaxConcurrentScans: DefaultMaxConcurrentScans,
		MaxPagesPerScan:    DefaultMaxPagesPerScan,
		MaxURLsPerCrawl:    DefaultMaxURLsPerCrawl,
		MaxLinksPerPage:    DefaultMaxLinksPerPage,
		MaxBodySize:        DefaultMaxBodySize,
		UserAgent:          DefaultUserAgent,
		DBDir:              XDGDataDir(),
		ReportDir:          filepath.Join(XDGDataDir(), "reports"),
	}
}

// XDGDataDir returns the XDG data directory for rgaascan.
// On Linux: ~/.local/share/rgaascan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for rgaascan.
// On Linux: ~/.config/rgaascan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first sentinel error found; fixing one error often
// makes others irrelevant, so we don't collect them.
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 || c.ScanTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxConcurrentScans <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxPagesPerScan <= 0 || c.MaxURLsPerCrawl <= 0 || c.MaxLinksPerPage <= 0 {
		return ErrInvalidCrawlLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
