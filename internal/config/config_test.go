package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.MaxConcurrentScans != DefaultMaxConcurrentScans {
		t.Errorf("MaxConcurrentScans = %d, want %d", cfg.MaxConcurrentScans, DefaultMaxConcurrentScans)
	}
	if cfg.MaxPagesPerScan != 50 {
		t.Errorf("MaxPagesPerScan = %d, want 50", cfg.MaxPagesPerScan)
	}
	if cfg.MaxURLsPerCrawl != 100 {
		t.Errorf("MaxURLsPerCrawl = %d, want 100", cfg.MaxURLsPerCrawl)
	}
	if cfg.MaxLinksPerPage != 10 {
		t.Errorf("MaxLinksPerPage = %d, want 10", cfg.MaxLinksPerPage)
	}
	if cfg.ScanTimeout != 10*time.Minute {
		t.Errorf("ScanTimeout = %v, want 10m", cfg.ScanTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "zero http timeout",
			mutate:  func(c *Config) { c.HTTPTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative scan timeout",
			mutate:  func(c *Config) { c.ScanTimeout = -time.Second },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.MaxConcurrentScans = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "zero page cap",
			mutate:  func(c *Config) { c.MaxPagesPerScan = 0 },
			wantErr: ErrInvalidCrawlLimit,
		},
		{
			name:    "zero url cap",
			mutate:  func(c *Config) { c.MaxURLsPerCrawl = 0 },
			wantErr: ErrInvalidCrawlLimit,
		},
		{
			name:    "negative body size",
			mutate:  func(c *Config) { c.MaxBodySize = -1 },
			wantErr: ErrInvalidMaxBodySize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		content := `
defaults:
  maxDepth: 2
sites:
  https://example.com:
    maxDepth: 5
    includeSubdomains: true
    name: Example
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile: %v", err)
		}

		sc := cf.GetSiteConfig("https://example.com")
		if sc.MaxDepth != 5 {
			t.Errorf("MaxDepth = %d, want 5", sc.MaxDepth)
		}
		if sc.IncludeSubdomains == nil || !*sc.IncludeSubdomains {
			t.Error("IncludeSubdomains override not applied")
		}
		if sc.Name != "Example" {
			t.Errorf("Name = %q, want Example", sc.Name)
		}

		// Unknown site falls back to defaults.
		def := cf.GetSiteConfig("https://other.example")
		if def.MaxDepth != 2 {
			t.Errorf("default MaxDepth = %d, want 2", def.MaxDepth)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("sites: {}"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%q) = %q", path, got)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})
}
