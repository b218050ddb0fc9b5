// Package main provides the entry point for the rgaascan CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rgaatools/rgaascan/internal/database"
	"github.com/rgaatools/rgaascan/internal/log"
	"github.com/rgaatools/rgaascan/internal/model"
)

// defaultUserID identifies the acting user when --user is not given.
// Single-user installs never need to care; multi-user setups pass
// --user to keep sites and quotas separate.
const defaultUserID = "default"

// NewRootCmd creates the root command for rgaascan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rgaascan",
		Short: "RGAA accessibility scanner for websites",
		Long: `rgaascan audits websites against the RGAA accessibility reference.

It crawls a registered site, checks every page against the rule catalog
(missing text alternatives, unlabeled form fields, vague links, heading
structure, and more), and aggregates the findings into a 0-100 score
with a letter grade.

Register a site once with "site add", then scan it as often as needed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("user", "u", defaultUserID, "Acting user for site ownership and quotas")
	cmd.PersistentFlags().String("db-dir", "", "Database directory (default: XDG data directory)")

	// Add subcommands
	cmd.AddCommand(NewSiteCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getStringFlag retrieves a string flag from the command or its parent.
// Returns empty string when the flag is not defined, so subcommands can
// run without the root command's persistent flags.
func getStringFlag(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return value
}

// getUserFlag retrieves the acting user, falling back to the default
// user for single-user installs.
func getUserFlag(cmd *cobra.Command) string {
	if user := getStringFlag(cmd, "user"); user != "" {
		return user
	}
	return defaultUserID
}

// setupLogger creates the sanitizing structured logger and installs it
// as the default.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := log.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return logger
}

// openDatabase opens the scan database honoring the --db-dir flag.
func openDatabase(cmd *cobra.Command, defaultDir string) (*database.ScanDB, error) {
	dir := getStringFlag(cmd, "db-dir")
	if dir == "" {
		dir = defaultDir
	}

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// resolveSite finds a site by numeric ID or by root URL.
func resolveSite(cmd *cobra.Command, db *database.ScanDB, arg, userID string) (*model.Site, error) {
	ctx := cmd.Context()

	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		site, err := db.GetSite(ctx, id)
		if err != nil {
			return nil, err
		}
		// A foreign site looks the same as a missing one.
		if site != nil && site.UserID == userID {
			return site, nil
		}
	}

	lookup := arg
	if normalized, err := normalizeSiteURL(arg); err == nil {
		lookup = normalized
	}

	site, err := db.GetSiteByURL(ctx, lookup, userID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("site %q not found (register it with \"rgaascan site add\")", arg)
	}
	return site, nil
}
