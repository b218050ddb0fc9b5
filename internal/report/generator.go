package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rgaatools/rgaascan/internal/model"
)

// Generator writes one Markdown report artifact per completed scan.
// It satisfies the orchestrator's ReportGenerator interface.
type Generator struct {
	// dir is where report artifacts are written.
	dir string

	// logger for structured logging.
	logger *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets a custom logger.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a Generator writing artifacts under dir.
func NewGenerator(dir string, opts ...GeneratorOption) *Generator {
	g := &Generator{
		dir:    dir,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate renders a Markdown report for the scan and returns the path
// of the written artifact. The file is named after the external scan ID
// so that paths stay stable and unique across runs.
func (g *Generator) Generate(_ context.Context, run *model.ScanRun, site *model.Site, findings []model.Finding) (string, error) {
	if err := os.MkdirAll(g.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(g.dir, run.ScanID+".md")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	if _, err := NewMarkdownWriter(file).Write(NewReport(run, site, findings)); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}

	g.logger.Debug("report artifact written", "scan_id", run.ScanID, "path", path)
	return path, nil
}
