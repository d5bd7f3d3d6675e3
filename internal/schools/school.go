// Package schools holds the typed view of the merged flat file and the
// in-memory dataset the dashboard serves from.
package schools

import (
	"fmt"

	"absenteeismgap.org/internal/clean"
	"absenteeismgap.org/internal/merge"
	"absenteeismgap.org/internal/table"
)

// School is one merged housing + attendance record.
type School struct {
	DBN                  string  `json:"dbn"`
	Name                 string  `json:"schoolName"`
	Borough              string  `json:"borough"`
	Year                 string  `json:"year"`
	Enrollment           float64 `json:"totalEnrollment"`
	NTempHousing         float64 `json:"studentsInTempHousing"`
	PctTempHousing       float64 `json:"pctTempHousing"`
	NInShelter           float64 `json:"studentsInShelter"`
	NDHSShelter          float64 `json:"dhsShelter"`
	NNonDHSShelter       float64 `json:"nonDhsShelter"`
	NDoubledUp           float64 `json:"doubledUp"`
	PctChronicallyAbsent float64 `json:"pctChronicallyAbsent"`
	NChronicallyAbsent   float64 `json:"chronicallyAbsent"`
	AttendanceRate       float64 `json:"attendanceRate"`
}

// FromRow converts a merged row. Required columns must parse; optional
// counts default to zero.
func FromRow(row table.Row) (School, error) {
	s := School{
		DBN:  row[merge.ColDBN],
		Name: firstNonEmpty(row[merge.ColSchoolName+merge.HousingSuffix], row[merge.ColSchoolName+merge.AttendanceSuffix]),
		Year: firstNonEmpty(row[merge.ColSchoolYear], row[merge.ColYear]),
	}
	if s.DBN == "" {
		return School{}, fmt.Errorf("row has no %s", merge.ColDBN)
	}
	s.Borough = firstNonEmpty(row[merge.ColBorough+merge.HousingSuffix], clean.Borough(s.DBN))

	required := []struct {
		col string
		dst *float64
	}{
		{merge.ColTotalEnrollment, &s.Enrollment},
		{merge.ColNStudentsTempHousing, &s.NTempHousing},
		{merge.ColPctStudentsTempHousing, &s.PctTempHousing},
		{merge.ColPctChronicallyAbsent, &s.PctChronicallyAbsent},
	}
	for _, r := range required {
		v, ok := clean.Percent(row[r.col])
		if !ok {
			return School{}, fmt.Errorf("school %s: %s is not numeric: %q", s.DBN, r.col, row[r.col])
		}
		*r.dst = v
	}

	optional := []struct {
		col string
		dst *float64
	}{
		{merge.ColNStudentsInShelter, &s.NInShelter},
		{merge.ColNDHSShelter, &s.NDHSShelter},
		{merge.ColNNonDHSShelter, &s.NNonDHSShelter},
		{merge.ColNDoubledUp, &s.NDoubledUp},
		{merge.ColNChronicallyAbsent, &s.NChronicallyAbsent},
		{merge.ColAttendance, &s.AttendanceRate},
	}
	for _, o := range optional {
		if v, ok := clean.Percent(row[o.col]); ok {
			*o.dst = v
		}
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
