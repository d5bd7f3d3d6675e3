// Command fetch downloads the housing and attendance datasets from NYC Open
// Data into flat CSV files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/socrata"
)

func main() {
	var dataDir, catalogPath, appToken, logLevel string
	var timeout time.Duration

	flag.StringVar(&dataDir, "data-dir", "data", "Output directory for the flat files")
	flag.StringVar(&catalogPath, "catalog", "", "Dataset catalog YAML (embedded default when empty)")
	flag.StringVar(&appToken, "app-token", os.Getenv("SOCRATA_APP_TOKEN"), "Socrata app token")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall deadline for all requests")
	flag.Parse()

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := run(ctx, dataDir, catalogPath, appToken, logger); err != nil {
		logging.LogError(logger, "fetch failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dataDir, catalogPath, appToken string, logger *slog.Logger) error {
	catalog, err := socrata.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}

	fetcher := &socrata.Fetcher{
		Client:  socrata.NewClient(catalog.BaseURL, appToken, logger),
		Catalog: catalog,
		Logger:  logging.ForComponent(logger, logging.ComponentOpenData),
	}
	summary, err := fetcher.Run(ctx, dataDir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-28s %6d rows\n", name, summary[name])
	}
	return nil
}
