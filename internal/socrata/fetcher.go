package socrata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/table"
)

// Flat file names written by Fetcher.Run.
const (
	HousingFile              = "housing.csv"
	AttendanceFile           = "attendance.csv"
	HousingAllYearsFile      = "housing_all_years.csv"
	AttendanceAllYearsFile   = "attendance_all_years.csv"
	SchoolYearColumn         = "school_year"
	housingPerYearFilePrefix = "housing_"
)

// HousingYearFile is the per-year housing file name, e.g. housing_2019_20.csv.
func HousingYearFile(year string) string {
	return housingPerYearFilePrefix + YearFileSuffix(year) + ".csv"
}

// Fetcher downloads every dataset in a catalog.
type Fetcher struct {
	Client  *Client
	Catalog Catalog
	Logger  *slog.Logger
}

// Summary maps each written file name to its row count.
type Summary map[string]int

// Run fetches all housing years and attendance years into dir. Any failed
// dataset-year request aborts the run. Write failures are collected and
// returned together once every file has been attempted; empty result sets
// are skipped.
func (f *Fetcher) Run(ctx context.Context, dir string) (Summary, error) {
	start := time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating data dir %s: %w", dir, err)
	}

	summary := Summary{}
	var writeErrs []error
	write := func(name string, t *table.Table) {
		path := filepath.Join(dir, name)
		if err := t.WriteFile(path); err != nil {
			if errors.Is(err, table.ErrEmpty) {
				logging.LogOperation(f.Logger, "skipped_empty_file", slog.String("file", name))
				return
			}
			logging.LogError(f.Logger, "failed to write flat file", err, slog.String("file", name))
			writeErrs = append(writeErrs, fmt.Errorf("writing %s: %w", name, err))
			return
		}
		summary[name] = t.Len()
	}

	housingAll := table.New()
	var currentHousing *table.Table
	for _, year := range f.Catalog.HousingYears() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		id, _ := f.Catalog.HousingDataset(year)
		t, err := f.Client.Fetch(ctx, id, Query{Limit: f.Catalog.Limit})
		if err != nil {
			return summary, fmt.Errorf("housing year %s: %w", year, err)
		}
		t.Fill(SchoolYearColumn, year)

		if year == f.Catalog.CurrentYear {
			currentHousing = t
		} else {
			write(HousingYearFile(year), t)
		}
		housingAll.Concat(t)
	}

	attendanceAll := table.New()
	var currentAttendance *table.Table
	for _, year := range f.Catalog.Attendance.Years {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		t, err := f.Client.Fetch(ctx, f.Catalog.Attendance.Dataset, Query{
			Limit: f.Catalog.Limit,
			Where: f.Catalog.AttendanceWhere(year),
		})
		if err != nil {
			return summary, fmt.Errorf("attendance year %s: %w", year, err)
		}
		if year == f.Catalog.CurrentYear {
			currentAttendance = t
		}
		attendanceAll.Concat(t)
	}

	if currentHousing != nil {
		write(HousingFile, currentHousing)
	}
	if currentAttendance != nil {
		write(AttendanceFile, currentAttendance)
	}
	write(HousingAllYearsFile, housingAll)
	write(AttendanceAllYearsFile, attendanceAll)

	if err := errors.Join(writeErrs...); err != nil {
		return summary, fmt.Errorf("fetch incomplete: %w", err)
	}

	logging.LogOperation(f.Logger, "fetch_completed",
		slog.String("dir", dir),
		slog.Int("files", len(summary)),
		slog.Duration("duration", time.Since(start)))
	return summary, nil
}
