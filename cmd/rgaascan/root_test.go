package main

import (
	"context"
	"strconv"
	"testing"

	"github.com/rgaatools/rgaascan/internal/database"
	"github.com/rgaatools/rgaascan/internal/model"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "rgaascan" {
			t.Errorf("expected use 'rgaascan', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has user flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("user")
		if flag == nil {
			t.Fatal("expected user flag")
		}
		if flag.DefValue != defaultUserID {
			t.Errorf("expected default %q, got %q", defaultUserID, flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		subcommands := cmd.Commands()
		if len(subcommands) == 0 {
			t.Error("expected subcommands")
		}

		hasScan := false
		hasSite := false
		hasHistory := false
		for _, sub := range subcommands {
			switch sub.Use {
			case "scan [site]...":
				hasScan = true
			case "site":
				hasSite = true
			case "history <site>":
				hasHistory = true
			}
		}
		if !hasScan {
			t.Error("expected scan subcommand")
		}
		if !hasSite {
			t.Error("expected site subcommand")
		}
		if !hasHistory {
			t.Error("expected history subcommand")
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewScanCmd()
		if getVerboseFlag(cmd) {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		scanCmd, _, err := root.Find([]string{"scan"})
		if err != nil {
			t.Fatalf("failed to find scan command: %v", err)
		}

		if !getVerboseFlag(scanCmd) {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestGetUserFlag tests the user flag retrieval.
func TestGetUserFlag(t *testing.T) {
	t.Run("falls back to default user", func(t *testing.T) {
		cmd := NewScanCmd()
		if got := getUserFlag(cmd); got != defaultUserID {
			t.Errorf("expected %q, got %q", defaultUserID, got)
		}
	})

	t.Run("returns value from parent user flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("user", "alice")

		scanCmd, _, err := root.Find([]string{"scan"})
		if err != nil {
			t.Fatalf("failed to find scan command: %v", err)
		}

		if got := getUserFlag(scanCmd); got != "alice" {
			t.Errorf("expected 'alice', got %q", got)
		}
	})
}

// TestResolveSite tests site resolution by ID and URL.
func TestResolveSite(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cmd := NewRootCmd()
	ctx := context.Background()
	cmd.SetContext(ctx)

	site := model.NewSite("https://example.org", "Example", "alice")
	if err := db.InsertSite(ctx, site); err != nil {
		t.Fatalf("failed to insert site: %v", err)
	}
	siteID := strconv.FormatInt(site.ID, 10)

	t.Run("resolves by numeric ID", func(t *testing.T) {
		got, err := resolveSite(cmd, db, siteID, "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.URL != "https://example.org" {
			t.Errorf("expected URL 'https://example.org', got %q", got.URL)
		}
	})

	t.Run("resolves by URL", func(t *testing.T) {
		got, err := resolveSite(cmd, db, "https://example.org", "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != site.ID {
			t.Errorf("expected ID %d, got %d", site.ID, got.ID)
		}
	})

	t.Run("foreign site by ID is not found", func(t *testing.T) {
		if _, err := resolveSite(cmd, db, siteID, "bob"); err == nil {
			t.Error("expected error for foreign site")
		}
	})

	t.Run("unknown site errors", func(t *testing.T) {
		if _, err := resolveSite(cmd, db, "https://unknown.example", "alice"); err == nil {
			t.Error("expected error for unknown site")
		}
	})
}
