package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rgaatools/rgaascan/internal/config"
	"github.com/rgaatools/rgaascan/internal/model"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "Show scan history",
		Long: `History lists past scan runs, newest first.

With a site argument (a numeric site ID or the site's root URL) only
that site's runs are shown; without one, all of the user's runs are.

Examples:
  rgaascan history
  rgaascan history https://example.org
  rgaascan history 1 --limit 25`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", config.DefaultHistoryLimit,
		"Maximum number of scans to show (0 for all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	setupLogger(cmd)

	userID := getUserFlag(cmd)

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd, config.XDGDataDir())
	if err != nil {
		return err
	}
	defer db.Close()

	var runs []*model.ScanRun
	scope := fmt.Sprintf("user %s", userID)
	if len(args) == 1 {
		site, err := resolveSite(cmd, db, args[0], userID)
		if err != nil {
			return err
		}
		scope = site.URL
		runs, err = db.ListScanHistory(cmd.Context(), site.ID, limit)
		if err != nil {
			return err
		}
	} else {
		runs, err = db.ListUserScanHistory(cmd.Context(), userID, limit)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintf(out, "No scans recorded for %s.\n", scope)
		return nil
	}

	fmt.Fprintf(out, "Scan history for %s:\n\n", scope)
	fmt.Fprintf(out, "%-36s %-10s %-16s %-6s %-5s %-6s %s\n",
		"SCAN ID", "STATUS", "DATE", "PAGES", "SCORE", "GRADE", "ISSUES")
	for _, run := range runs {
		score := "-"
		grade := "-"
		issues := "-"
		if run.Status == model.StatusCompleted {
			score = fmt.Sprintf("%d", run.Score)
			grade = string(run.Grade)
			issues = fmt.Sprintf("%d", run.TotalIssues)
		}
		fmt.Fprintf(out, "%-36s %-10s %-16s %-6d %-5s %-6s %s\n",
			run.ScanID,
			run.Status,
			run.StartedAt.Format("2006-01-02 15:04"),
			run.PagesScanned,
			score,
			grade,
			issues,
		)
		if run.Status == model.StatusFailed && run.ErrorMessage != "" {
			fmt.Fprintf(out, "    failure: %s\n", run.ErrorMessage)
		}
	}
	return nil
}
