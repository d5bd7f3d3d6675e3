package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/merge"
	"absenteeismgap.org/internal/socrata"
)

// Pipeline runs acquisition followed by both merge variants.
type Pipeline struct {
	Fetcher *socrata.Fetcher
	DataDir string
	Logger  *slog.Logger
}

// NewPipeline builds a pipeline from the catalog named in config, or the
// embedded default catalog.
func NewPipeline(config Config, logger *slog.Logger) (*Pipeline, error) {
	catalog, err := socrata.LoadCatalog(config.CatalogPath)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Fetcher: &socrata.Fetcher{
			Client:  socrata.NewClient(catalog.BaseURL, config.AppToken, logger),
			Catalog: catalog,
			Logger:  logging.ForComponent(logger, logging.ComponentOpenData),
		},
		DataDir: config.DataDir,
		Logger:  logging.ForComponent(logger, logging.ComponentPipeline),
	}, nil
}

// Run fetches every dataset and rewrites merged.csv. The multi-year merge is
// best effort: its failure is logged and the current-year result stands.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()

	summary, err := p.Fetcher.Run(ctx, p.DataDir)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	current := merge.Options{}
	res, err := merge.Run(ctx, merge.DefaultPaths(p.DataDir, current), current, p.Logger)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	byYear := merge.Options{ByYear: true}
	if _, err := merge.Run(ctx, merge.DefaultPaths(p.DataDir, byYear), byYear, p.Logger); err != nil {
		logging.LogError(p.Logger, "multi-year merge failed", err)
	}

	logging.LogOperation(p.Logger, "pipeline_completed",
		slog.Int("files", len(summary)),
		slog.Int("merged_rows", res.Table.Len()),
		slog.Duration("duration", time.Since(start)))
	return nil
}
