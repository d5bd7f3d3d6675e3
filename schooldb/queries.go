package schooldb

import (
	"context"
	"fmt"

	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/schools"
)

const schoolColumns = `dbn, school_year, school_name, borough, total_enrollment,
	n_students_temp_housing, pct_students_temp_housing, n_students_in_shelter,
	n_dhs_shelter, n_non_dhs_shelter, n_doubled_up,
	pct_chronically_absent, n_chronically_absent, attendance`

type scanner interface {
	Scan(dest ...any) error
}

func scanSchool(row scanner) (schools.School, error) {
	var s schools.School
	err := row.Scan(
		&s.DBN, &s.Year, &s.Name, &s.Borough, &s.Enrollment,
		&s.NTempHousing, &s.PctTempHousing, &s.NInShelter,
		&s.NDHSShelter, &s.NNonDHSShelter, &s.NDoubledUp,
		&s.PctChronicallyAbsent, &s.NChronicallyAbsent, &s.AttendanceRate,
	)
	return s, err
}

// TopSchools returns the n schools with the highest share of students in
// temporary housing, ties broken by DBN.
func (c *Client) TopSchools(ctx context.Context, year string, n int) ([]schools.School, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT `+schoolColumns+`
		FROM schools
		WHERE school_year = ?
		ORDER BY pct_students_temp_housing DESC, dbn
		LIMIT ?`, year, n)
	if err != nil {
		return nil, fmt.Errorf("error querying top schools: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "close_top_schools_rows")

	var out []schools.School
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning school: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// BoroughTotal is one row of the per-borough aggregation.
type BoroughTotal struct {
	Borough               string  `json:"borough"`
	StudentsInTempHousing float64 `json:"studentsInTempHousing"`
	Schools               int     `json:"schools"`
	MeanPctTempHousing    float64 `json:"meanPctTempHousing"`
	DoubledUp             float64 `json:"doubledUp"`
	DHSShelter            float64 `json:"dhsShelter"`
	NonDHSShelter         float64 `json:"nonDhsShelter"`
}

// BoroughTotals aggregates a year by borough, largest population first.
func (c *Client) BoroughTotals(ctx context.Context, year string) ([]BoroughTotal, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT borough,
			SUM(n_students_temp_housing),
			COUNT(dbn),
			AVG(pct_students_temp_housing),
			SUM(n_doubled_up),
			SUM(n_dhs_shelter),
			SUM(n_non_dhs_shelter)
		FROM schools
		WHERE school_year = ?
		GROUP BY borough
		ORDER BY SUM(n_students_temp_housing) DESC, borough`, year)
	if err != nil {
		return nil, fmt.Errorf("error querying borough totals: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "close_borough_rows")

	var out []BoroughTotal
	for rows.Next() {
		var b BoroughTotal
		if err := rows.Scan(&b.Borough, &b.StudentsInTempHousing, &b.Schools, &b.MeanPctTempHousing,
			&b.DoubledUp, &b.DHSShelter, &b.NonDHSShelter); err != nil {
			return nil, fmt.Errorf("error scanning borough total: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SchoolHistory returns every stored year for one school, oldest first.
func (c *Client) SchoolHistory(ctx context.Context, dbn string) ([]schools.School, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT `+schoolColumns+`
		FROM schools
		WHERE dbn = ?
		ORDER BY school_year`, dbn)
	if err != nil {
		return nil, fmt.Errorf("error querying school history: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "close_history_rows")

	var out []schools.School
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning school: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
