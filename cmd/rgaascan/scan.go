package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rgaatools/rgaascan/internal/analyzer"
	"github.com/rgaatools/rgaascan/internal/config"
	"github.com/rgaatools/rgaascan/internal/crawler"
	"github.com/rgaatools/rgaascan/internal/database"
	"github.com/rgaatools/rgaascan/internal/model"
	"github.com/rgaatools/rgaascan/internal/report"
	"github.com/rgaatools/rgaascan/internal/scan"
)

// reportOptions holds the output-format flags for the scan command.
// Kept out of config.Config because they describe where one invocation
// writes its report, not how scans behave.
type reportOptions struct {
	json     bool
	markdown bool
	file     string
}

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [site]...",
		Short: "Run an accessibility scan on registered sites",
		Long: `Scan crawls each site and checks every page against the RGAA rule
catalog: missing text alternatives, unlabeled form fields, vague link
text, heading structure, page language, landmarks, and more.

Each site argument is either a numeric site ID or a root URL. A URL
that is not registered yet is registered on the fly. Findings are
aggregated into a 0-100 score with a letter grade and persisted to
scan history.

Examples:
  # Scan a single site by URL
  rgaascan scan https://example.org

  # Scan several sites concurrently
  rgaascan scan 1 2 3 --batch 3

  # Output JSON report
  rgaascan scan --json https://example.org

  # Write a Markdown report to a file
  rgaascan scan --markdown -o report.md https://example.org

Configuration file (.rgaascan) example:
  defaults:
    maxDepth: 2
  sites:
    https://example.org:
      maxDepth: 4
      includeSubdomains: true`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultHTTPTimeout,
		"Timeout for each HTTP request during crawling")
	cmd.Flags().Duration("scan-timeout", config.DefaultScanTimeout,
		"Wall-clock budget for one whole scan")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPagesPerScan,
		"Maximum number of pages to analyze per site")

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultMaxConcurrentScans,
		"Number of concurrent scans")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .rgaascan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ropts, err := buildReportOptions(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	db, err := openDatabase(cmd, cfg.DBDir)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

	// Resolve all site arguments before starting any scan so that a typo
	// in the last argument doesn't waste the scans before it. A URL that
	// isn't registered yet is registered on the fly.
	sites := make([]*model.Site, 0, len(args))
	for _, arg := range args {
		site, err := resolveSite(cmd, db, arg, cfg.UserID)
		if err != nil {
			siteURL, uerr := normalizeSiteURL(arg)
			if uerr != nil {
				return err
			}
			site = newSiteFromOverrides(siteURL, cfg.UserID, cfg.SiteConfigs.GetSiteConfig(siteURL))
			if ierr := db.InsertSite(ctx, site); ierr != nil {
				return ierr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered new site %s (ID %d)\n", site.URL, site.ID)
		}
		sites = append(sites, site)
	}

	scanner := newScanner(db, cfg, logger)

	if len(sites) > 1 && cfg.MaxConcurrentScans > 1 {
		return runBatchScan(ctx, cmd, scanner, db, sites, cfg, ropts, logger)
	}
	return runSequentialScan(ctx, cmd, scanner, sites, cfg, ropts, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.HTTPTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.ScanTimeout, err = cmd.Flags().GetDuration("scan-timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPagesPerScan, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.MaxConcurrentScans, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.UserID = getUserFlag(cmd)

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	return cfg, nil
}

// buildReportOptions reads the report-format flags.
func buildReportOptions(cmd *cobra.Command) (reportOptions, error) {
	var ropts reportOptions
	var err error

	ropts.json, err = cmd.Flags().GetBool("json")
	if err != nil {
		return ropts, err
	}
	ropts.markdown, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return ropts, err
	}
	ropts.file, err = cmd.Flags().GetString("output")
	if err != nil {
		return ropts, err
	}
	return ropts, nil
}

// newScanner assembles the scan pipeline from the configuration.
func newScanner(db *database.ScanDB, cfg *config.Config, logger *slog.Logger) *scan.Scanner {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	c := crawler.New(httpClient,
		crawler.WithMaxURLs(cfg.MaxURLsPerCrawl),
		crawler.WithMaxLinksPerPage(cfg.MaxLinksPerPage),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithLogger(logger),
	)

	return scan.New(db, c, analyzer.New(), analyzer.Score,
		scan.WithScanTimeout(cfg.ScanTimeout),
		scan.WithMaxPages(cfg.MaxPagesPerScan),
		scan.WithMaxActiveScans(cfg.MaxConcurrentScans),
		scan.WithReportGenerator(report.NewGenerator(cfg.ReportDir, report.WithGeneratorLogger(logger))),
		scan.WithLogger(logger),
	)
}

// runSequentialScan scans sites one at a time.
func runSequentialScan(ctx context.Context, cmd *cobra.Command, scanner *scan.Scanner, sites []*model.Site, cfg *config.Config, ropts reportOptions, logger *slog.Logger) error {
	out := cmd.OutOrStdout()

	for _, site := range sites {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprintf(out, "Scanning %s...\n", site.URL)
		startTime := time.Now()

		run, findings, err := scanner.Scan(ctx, site.ID, cfg.UserID)
		if err != nil {
			logger.Error("scan not started", "site", site.URL, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", site.URL, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Fprintf(out, "Scan completed in %s\n\n", elapsed.Round(time.Millisecond))

		if err := outputReport(cmd, ropts, run, site, findings); err != nil {
			logger.Error("report failed", "site", site.URL, "error", err)
		}
	}

	return nil
}

// runBatchScan scans multiple sites concurrently using BatchScanner.
func runBatchScan(ctx context.Context, cmd *cobra.Command, scanner *scan.Scanner, db *database.ScanDB, sites []*model.Site, cfg *config.Config, ropts reportOptions, logger *slog.Logger) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Starting batch scan of %d sites (concurrency: %d)...\n\n",
		len(sites), cfg.MaxConcurrentScans)

	startTime := time.Now()

	siteIDs := make([]int64, len(sites))
	siteByID := make(map[int64]*model.Site, len(sites))
	for i, site := range sites {
		siteIDs[i] = site.ID
		siteByID[site.ID] = site
	}

	bs := scan.NewBatchScanner(scanner,
		scan.WithConcurrency(cfg.MaxConcurrentScans),
		scan.WithBatchLogger(logger),
	)

	results, err := bs.ScanSites(ctx, siteIDs, cfg.UserID)

	for i, result := range results {
		site := siteByID[result.SiteID]
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] Scan error for %s: %v\n",
				i+1, len(results), site.URL, result.Err)
			continue
		}

		fmt.Fprintf(out, "[%d/%d] Scan completed: %s\n", i+1, len(results), site.URL)

		findings, ferr := db.ListFindings(ctx, result.Run.ID)
		if ferr != nil {
			logger.Error("failed to load findings", "site", site.URL, "error", ferr)
			continue
		}

		if rerr := outputReport(cmd, ropts, result.Run, site, findings); rerr != nil {
			logger.Error("report failed", "site", site.URL, "error", rerr)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(out, "\nBatch scan completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport writes the scan report in the requested format.
func outputReport(cmd *cobra.Command, ropts reportOptions, run *model.ScanRun, site *model.Site, findings []model.Finding) error {
	rep := report.NewReport(run, site, findings)

	// Determine output destination
	output := cmd.OutOrStdout()
	if ropts.file != "" {
		dir := filepath.Dir(ropts.file)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(ropts.file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	if ropts.json {
		writer := report.NewJSONWriter(output, report.WithPrettyPrint())
		_, err := writer.Write(rep)
		return err
	}

	if ropts.markdown {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(rep)
		return err
	}

	writer := report.NewSimpleWriter(output, report.WithVerbose(getVerboseFlag(cmd)))
	_, err := writer.Write(rep)
	return err
}
