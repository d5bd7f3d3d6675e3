// Package merge cleans the raw housing and attendance flat files and joins
// them into the single merged table the dashboard reads.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"absenteeismgap.org/internal/clean"
	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/socrata"
	"absenteeismgap.org/internal/table"
)

// Output file names.
const (
	MergedFile         = "merged.csv"
	MergedAllYearsFile = "merged_all_years.csv"
)

// Options selects the join variant.
type Options struct {
	// ByYear keys the join on (dbn, year) and reads the all-years files.
	ByYear bool
}

// Result is the outcome of a join.
type Result struct {
	Table         *table.Table
	Joined        int
	Dropped       int
	BoroughCounts map[string]int
}

// CleanHousing normalizes the numeric housing columns, renames them and
// appends the derived borough.
func CleanHousing(t *table.Table) *table.Table {
	return cleanTable(t, housingColumns)
}

// CleanAttendance normalizes the numeric attendance columns, renames the
// ones the dashboard reads and appends the derived borough.
func CleanAttendance(t *table.Table) *table.Table {
	return cleanTable(t, attendanceColumns)
}

func cleanTable(t *table.Table, columns []rename) *table.Table {
	target := make(map[string]string, len(columns))
	for _, c := range columns {
		to := c.to
		if to == "" {
			to = c.from
		}
		target[c.from] = to
	}

	header := make([]string, 0, len(t.Header)+1)
	for _, h := range t.Header {
		if to, ok := target[h]; ok {
			header = append(header, to)
			continue
		}
		header = append(header, h)
	}
	header = append(header, ColBorough)

	out := table.New(header...)
	for _, row := range t.Rows {
		cleaned := make(table.Row, len(row)+1)
		for k, v := range row {
			if to, ok := target[k]; ok {
				cleaned[to] = clean.Cell(v)
				continue
			}
			cleaned[k] = v
		}
		cleaned[ColBorough] = clean.Borough(row[ColDBN])
		out.Rows = append(out.Rows, cleaned)
	}
	return out
}

func joinKey(dbn, year string, byYear bool) string {
	if !byYear {
		return dbn
	}
	return dbn + "|" + year
}

func outputName(col, suffix string) string {
	if suffixed[col] {
		return col + suffix
	}
	return col
}

// Join inner-joins cleaned housing and attendance tables on DBN (and school
// year when opts.ByYear is set) and drops rows missing a required column.
// When attendance repeats a key the last row wins.
func Join(housing, attendance *table.Table, opts Options) *Result {
	index := make(map[string]table.Row, attendance.Len())
	for _, row := range attendance.Rows {
		dbn := row[ColDBN]
		if dbn == "" {
			continue
		}
		index[joinKey(dbn, row[ColYear], opts.ByYear)] = row
	}

	header := []string{}
	for _, h := range housing.Header {
		header = append(header, outputName(h, HousingSuffix))
	}
	for _, h := range attendance.Header {
		if h == ColDBN {
			continue
		}
		header = append(header, outputName(h, AttendanceSuffix))
	}

	res := &Result{
		Table:         table.New(header...),
		BoroughCounts: map[string]int{},
	}
	for _, h := range housing.Rows {
		a, ok := index[joinKey(h[ColDBN], h[ColSchoolYear], opts.ByYear)]
		if !ok {
			continue
		}
		res.Joined++

		merged := make(table.Row, len(h)+len(a))
		for k, v := range h {
			merged[outputName(k, HousingSuffix)] = v
		}
		for k, v := range a {
			if k == ColDBN {
				continue
			}
			merged[outputName(k, AttendanceSuffix)] = v
		}

		if !complete(merged) {
			res.Dropped++
			continue
		}
		res.Table.Rows = append(res.Table.Rows, merged)
		res.BoroughCounts[merged[ColBorough+HousingSuffix]]++
	}
	return res
}

func complete(row table.Row) bool {
	for _, col := range RequiredColumns {
		if row[col] == "" {
			return false
		}
	}
	return true
}

// Verify checks a merged table the way the dashboard depends on it: at least
// minRows rows, and every required column numeric with no suppression or
// percent markers left behind.
func Verify(t *table.Table, minRows int) error {
	if t.Len() < minRows {
		return fmt.Errorf("expected at least %d merged rows, got %d", minRows, t.Len())
	}
	var errs []error
	for i, row := range t.Rows {
		for _, col := range RequiredColumns {
			v := row[col]
			if strings.ContainsAny(v, "%sS") {
				errs = append(errs, fmt.Errorf("row %d: %s has uncleaned value %q", i+1, col, v))
				continue
			}
			if _, ok := clean.Percent(v); !ok {
				errs = append(errs, fmt.Errorf("row %d: %s not numeric: %q", i+1, col, v))
			}
		}
	}
	return errors.Join(errs...)
}

// Paths locates the merge inputs and output.
type Paths struct {
	Housing    string
	Attendance string
	Output     string
}

// DefaultPaths returns the conventional file locations under dir.
func DefaultPaths(dir string, opts Options) Paths {
	if opts.ByYear {
		return Paths{
			Housing:    filepath.Join(dir, socrata.HousingAllYearsFile),
			Attendance: filepath.Join(dir, socrata.AttendanceAllYearsFile),
			Output:     filepath.Join(dir, MergedAllYearsFile),
		}
	}
	return Paths{
		Housing:    filepath.Join(dir, socrata.HousingFile),
		Attendance: filepath.Join(dir, socrata.AttendanceFile),
		Output:     filepath.Join(dir, MergedFile),
	}
}

// Run reads both flat files, cleans and joins them, and writes the merged
// file. No file is written when nothing survives the filter.
func Run(ctx context.Context, paths Paths, opts Options, logger *slog.Logger) (*Result, error) {
	start := time.Now()

	housingRaw, err := table.ReadFile(paths.Housing)
	if err != nil {
		return nil, fmt.Errorf("error loading housing data: %w", err)
	}
	attendanceRaw, err := table.ReadFile(paths.Attendance)
	if err != nil {
		return nil, fmt.Errorf("error loading attendance data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logging.LogOperation(logger, "merge_inputs_loaded",
		slog.Int("housing_rows", housingRaw.Len()),
		slog.Int("attendance_rows", attendanceRaw.Len()),
		slog.Bool("by_year", opts.ByYear))

	res := Join(CleanHousing(housingRaw), CleanAttendance(attendanceRaw), opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := res.Table.WriteFile(paths.Output); err != nil {
		if errors.Is(err, table.ErrEmpty) {
			return res, fmt.Errorf("no rows to save after filtering: %w", err)
		}
		return res, fmt.Errorf("error writing merged data: %w", err)
	}

	boroughs := make([]string, 0, len(res.BoroughCounts))
	for b := range res.BoroughCounts {
		boroughs = append(boroughs, b)
	}
	sort.Strings(boroughs)
	counts := make([]any, 0, len(boroughs))
	for _, b := range boroughs {
		counts = append(counts, slog.Int(b, res.BoroughCounts[b]))
	}

	logging.LogOperation(logger, "merge_completed",
		slog.String("output", paths.Output),
		slog.Int("joined", res.Joined),
		slog.Int("dropped", res.Dropped),
		slog.Int("rows", res.Table.Len()),
		slog.Int("columns", len(res.Table.Header)),
		slog.Group("boroughs", counts...),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}
