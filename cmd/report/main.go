// Command report writes the dashboard figures as standalone HTML files.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"absenteeismgap.org/internal/charts"
	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/schools"
)

func main() {
	var dataDir, outDir, year, logLevel string

	flag.StringVar(&dataDir, "data-dir", "data", "Directory holding merged.csv")
	flag.StringVar(&outDir, "out", "report", "Output directory")
	flag.StringVar(&year, "year", "", "School year (latest when empty)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)

	if err := run(dataDir, outDir, year, logger); err != nil {
		logging.LogError(logger, "report failed", err)
		os.Exit(1)
	}
}

func run(dataDir, outDir, year string, logger *slog.Logger) error {
	manager, err := schools.NewManager(schools.Config{DataDir: dataDir, Logger: logger})
	if err != nil {
		return err
	}
	defer manager.Shutdown()

	list, err := manager.Schools(year)
	if err != nil {
		return err
	}
	if year == "" {
		year = manager.DefaultYear()
	}

	if err := charts.WriteReport(outDir, year, list, logger); err != nil {
		return err
	}
	fmt.Printf("report for %s written to %s\n", year, outDir)
	return nil
}
