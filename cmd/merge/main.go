// Command merge cleans and joins the fetched flat files into merged.csv, and
// optionally loads the result into sqlite or an xlsx workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"absenteeismgap.org/internal/appconf"
	"absenteeismgap.org/internal/export"
	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/merge"
	"absenteeismgap.org/internal/schools"
	"absenteeismgap.org/schooldb"
)

type config struct {
	dataDir       string
	byYear        bool
	verifyMinRows int
	dbPath        string
	xlsxPath      string
	year          string
}

func main() {
	var cfg config
	var logLevel string

	flag.StringVar(&cfg.dataDir, "data-dir", "data", "Directory holding the fetched flat files")
	flag.BoolVar(&cfg.byYear, "by-year", false, "Join on (dbn, year) across all fetched years")
	flag.IntVar(&cfg.verifyMinRows, "verify-min-rows", 0, "Fail unless the merged file has at least this many clean rows (0 skips)")
	flag.StringVar(&cfg.dbPath, "db", "", "Load the merged schools into this SQLite database")
	flag.StringVar(&cfg.xlsxPath, "xlsx", "", "Also write the merged schools for -year to this workbook")
	flag.StringVar(&cfg.year, "year", "", "School year for -xlsx (latest when empty)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)

	if err := run(context.Background(), cfg, logger); err != nil {
		logging.LogError(logger, "merge failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	opts := merge.Options{ByYear: cfg.byYear}
	paths := merge.DefaultPaths(cfg.dataDir, opts)

	res, err := merge.Run(ctx, paths, opts, logging.ForComponent(logger, logging.ComponentMerge))
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d rows (%d joined, %d dropped)\n", paths.Output, res.Table.Len(), res.Joined, res.Dropped)

	if cfg.verifyMinRows > 0 {
		if err := merge.Verify(res.Table, cfg.verifyMinRows); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		fmt.Println("verification passed")
	}

	if cfg.dbPath == "" && cfg.xlsxPath == "" {
		return nil
	}

	managerConfig := schools.Config{DataDir: cfg.dataDir, Logger: logger}
	if cfg.dbPath != "" {
		store, err := schooldb.NewClient(schooldb.NewConfig(cfg.dbPath, appconf.Production), logger)
		if err != nil {
			return err
		}
		defer logging.SafeCloseWithLogging(store, logger, "sqlite_store")
		managerConfig.OnLoad = store.ReplaceAll
	}

	manager, err := schools.NewManager(managerConfig)
	if err != nil {
		return err
	}
	defer manager.Shutdown()

	if cfg.xlsxPath != "" {
		list, err := manager.Schools(cfg.year)
		if err != nil {
			return err
		}
		if err := export.SaveAs(cfg.xlsxPath, list); err != nil {
			return fmt.Errorf("error writing %s: %w", cfg.xlsxPath, err)
		}
		fmt.Printf("%s: %d schools\n", cfg.xlsxPath, len(list))
	}
	return nil
}
