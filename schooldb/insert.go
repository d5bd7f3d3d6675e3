package schooldb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/schools"
)

// ReplaceSchools swaps every row for year with the given schools in a
// single transaction.
func (c *Client) ReplaceSchools(ctx context.Context, year string, list []schools.School) error {
	start := time.Now()

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "replace_schools")

	if _, err := tx.ExecContext(ctx, `DELETE FROM schools WHERE school_year = ?`, year); err != nil {
		return fmt.Errorf("error clearing year %s: %w", year, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO schools (
			dbn, school_year, school_name, borough, total_enrollment,
			n_students_temp_housing, pct_students_temp_housing, n_students_in_shelter,
			n_dhs_shelter, n_non_dhs_shelter, n_doubled_up,
			pct_chronically_absent, n_chronically_absent, attendance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.SafeCloseWithLogging(stmt, c.logger, "close_insert_statement")

	for _, s := range list {
		_, err := stmt.ExecContext(ctx,
			s.DBN, year, s.Name, s.Borough, s.Enrollment,
			s.NTempHousing, s.PctTempHousing, s.NInShelter,
			s.NDHSShelter, s.NNonDHSShelter, s.NDoubledUp,
			s.PctChronicallyAbsent, s.NChronicallyAbsent, s.AttendanceRate,
		)
		if err != nil {
			return fmt.Errorf("error inserting school %s: %w", s.DBN, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO imports (school_year, row_count, imported_at)
		VALUES (?, ?, ?)`, year, len(list), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("error recording import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	logging.LogOperation(c.logger, "schools_stored",
		slog.String("year", year),
		slog.Int("rows", len(list)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// ReplaceAll stores every year of a loaded dataset. It matches the
// schools.Config OnLoad hook.
func (c *Client) ReplaceAll(ctx context.Context, data map[string][]schools.School) error {
	for year, list := range data {
		if err := c.ReplaceSchools(ctx, year, list); err != nil {
			return err
		}
	}
	return nil
}
