package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rgaatools/rgaascan/internal/config"
	"github.com/rgaatools/rgaascan/internal/model"
)

// NewSiteCmd creates the site command group.
func NewSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Manage registered sites",
		Long: `Site manages the registry of crawl targets.

A site must be registered before it can be scanned. Each site belongs
to one user and carries its own crawl policy (depth, subdomain scope).`,
	}

	cmd.AddCommand(newSiteAddCmd())
	cmd.AddCommand(newSiteListCmd())

	return cmd
}

// newSiteAddCmd creates the site add command.
func newSiteAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Register a site for scanning",
		Long: `Add registers a site so it can be scanned.

The URL must be absolute with an http or https scheme. Overrides from
a .rgaascan configuration file (name, crawl depth, subdomain scope)
are applied unless the corresponding flag is given explicitly.

Examples:
  rgaascan site add https://example.org
  rgaascan site add https://example.org --name "Example" --depth 5
  rgaascan site add https://example.org --include-subdomains`,
		Args: cobra.ExactArgs(1),
		RunE: runSiteAddCmd,
	}

	cmd.Flags().StringP("name", "n", "", "Display name for the site (default: host name)")
	cmd.Flags().String("description", "", "Optional description")
	cmd.Flags().IntP("depth", "d", 0,
		fmt.Sprintf("Maximum crawl depth (default %d)", model.DefaultMaxDepth))
	cmd.Flags().Bool("include-subdomains", false, "Also crawl subdomains of the site host")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .rgaascan in current or home directory)")

	return cmd
}

// runSiteAddCmd executes the site add command.
func runSiteAddCmd(cmd *cobra.Command, args []string) error {
	setupLogger(cmd)

	siteURL, err := normalizeSiteURL(args[0])
	if err != nil {
		return err
	}

	userID := getUserFlag(cmd)

	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	description, err := cmd.Flags().GetString("description")
	if err != nil {
		return err
	}
	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return err
	}
	includeSubdomains, err := cmd.Flags().GetBool("include-subdomains")
	if err != nil {
		return err
	}

	// Config file overrides fill in what flags left unset.
	siteConfig, err := loadSiteConfig(cmd, siteURL)
	if err != nil {
		return err
	}
	if name == "" {
		name = siteConfig.Name
	}
	if depth == 0 {
		depth = siteConfig.MaxDepth
	}
	if !cmd.Flags().Changed("include-subdomains") && siteConfig.IncludeSubdomains != nil {
		includeSubdomains = *siteConfig.IncludeSubdomains
	}

	if name == "" {
		u, _ := url.Parse(siteURL)
		name = u.Host
	}

	db, err := openDatabase(cmd, config.XDGDataDir())
	if err != nil {
		return err
	}
	defer db.Close()

	existing, err := db.GetSiteByURL(cmd.Context(), siteURL, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("site %s is already registered (ID %d)", siteURL, existing.ID)
	}

	site := model.NewSite(siteURL, name, userID)
	site.Description = description
	site.IncludeSubdomains = includeSubdomains
	if depth > 0 {
		site.MaxDepth = depth
	}

	if err := db.InsertSite(cmd.Context(), site); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered site %s (ID %d)\n", site.URL, site.ID)
	return nil
}

// newSiteListCmd creates the site list command.
func newSiteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sites",
		Args:  cobra.NoArgs,
		RunE:  runSiteListCmd,
	}
}

// runSiteListCmd executes the site list command.
func runSiteListCmd(cmd *cobra.Command, _ []string) error {
	setupLogger(cmd)

	userID := getUserFlag(cmd)

	db, err := openDatabase(cmd, config.XDGDataDir())
	if err != nil {
		return err
	}
	defer db.Close()

	sites, err := db.ListSites(cmd.Context(), userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sites) == 0 {
		fmt.Fprintln(out, "No sites registered. Add one with \"rgaascan site add <url>\".")
		return nil
	}

	fmt.Fprintf(out, "%-4s %-40s %-20s %-6s %s\n", "ID", "URL", "NAME", "DEPTH", "LAST SCAN")
	for _, site := range sites {
		lastScan := "never"
		if site.LastScanAt != nil {
			lastScan = site.LastScanAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "%-4d %-40s %-20s %-6d %s\n",
			site.ID, site.URL, site.Name, site.MaxDepth, lastScan)
	}
	return nil
}

// newSiteFromOverrides builds a site for registration, applying config
// file overrides for name, depth, and subdomain scope. The display name
// defaults to the URL host.
func newSiteFromOverrides(siteURL, userID string, sc config.SiteConfig) *model.Site {
	name := sc.Name
	if name == "" {
		u, _ := url.Parse(siteURL)
		name = u.Host
	}

	site := model.NewSite(siteURL, name, userID)
	if sc.MaxDepth > 0 {
		site.MaxDepth = sc.MaxDepth
	}
	if sc.IncludeSubdomains != nil {
		site.IncludeSubdomains = *sc.IncludeSubdomains
	}
	return site
}

// loadSiteConfig loads per-site overrides from the configuration file,
// if one exists. The same explicit-path semantics as the scan command
// apply: an explicitly named file that does not exist is an error.
func loadSiteConfig(cmd *cobra.Command, siteURL string) (config.SiteConfig, error) {
	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.SiteConfig{}, err
	}

	configPath := config.FindConfigFile(configFlag)
	if configPath == "" {
		if configFlag != "" {
			return config.SiteConfig{}, fmt.Errorf("configuration file not found: %s", configFlag)
		}
		return config.SiteConfig{}, nil
	}

	cf, err := config.LoadConfigFile(configPath)
	if err != nil {
		return config.SiteConfig{}, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return cf.GetSiteConfig(siteURL), nil
}

// normalizeSiteURL validates a site URL and strips trailing slashes so
// that the same site registered twice always collides.
func normalizeSiteURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid site URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid site URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid site URL %q: missing host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
