// Package charts turns a year of school records into the dashboard's
// aggregates, ranked tables and plotly figures.
package charts

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"absenteeismgap.org/internal/schools"
)

// MinScatterEnrollment excludes very small schools from the scatter plot.
const MinScatterEnrollment = 20

// ErrNoSchools is returned when there is nothing to aggregate.
var ErrNoSchools = errors.New("no schools to chart")

// BoroughSummary is one borough's totals for a year.
type BoroughSummary struct {
	Borough               string  `json:"borough"`
	StudentsInTempHousing float64 `json:"studentsInTempHousing"`
	Schools               int     `json:"schools"`
	MeanPctTempHousing    float64 `json:"meanPctTempHousing"`
	DoubledUp             float64 `json:"doubledUp"`
	DHSShelter            float64 `json:"dhsShelter"`
	NonDHSShelter         float64 `json:"nonDhsShelter"`
}

type frameRow struct {
	Borough  string  `dataframe:"borough"`
	DBN      string  `dataframe:"dbn"`
	Students float64 `dataframe:"students"`
	Pct      float64 `dataframe:"pct"`
	Doubled  float64 `dataframe:"doubled"`
	DHS      float64 `dataframe:"dhs"`
	NonDHS   float64 `dataframe:"nondhs"`
}

// Frame loads schools into a dataframe keyed by borough.
func Frame(list []schools.School) (dataframe.DataFrame, error) {
	if len(list) == 0 {
		return dataframe.DataFrame{}, ErrNoSchools
	}
	rows := make([]frameRow, len(list))
	for i, s := range list {
		rows[i] = frameRow{
			Borough:  s.Borough,
			DBN:      s.DBN,
			Students: s.NTempHousing,
			Pct:      s.PctTempHousing,
			Doubled:  s.NDoubledUp,
			DHS:      s.NDHSShelter,
			NonDHS:   s.NNonDHSShelter,
		}
	}
	df := dataframe.LoadStructs(rows)
	if df.Err != nil {
		return df, fmt.Errorf("error loading dataframe: %w", df.Err)
	}
	return df, nil
}

// ByBorough sums temp-housing students, counts schools and averages the
// temp-housing share per borough, largest population first.
func ByBorough(list []schools.School) ([]BoroughSummary, error) {
	df, err := Frame(list)
	if err != nil {
		return nil, err
	}

	groups := df.GroupBy("borough")
	if groups.Err != nil {
		return nil, fmt.Errorf("error grouping by borough: %w", groups.Err)
	}
	agg := groups.Aggregation(
		[]dataframe.AggregationType{
			dataframe.Aggregation_SUM,
			dataframe.Aggregation_COUNT,
			dataframe.Aggregation_MEAN,
			dataframe.Aggregation_SUM,
			dataframe.Aggregation_SUM,
			dataframe.Aggregation_SUM,
		},
		[]string{"students", "dbn", "pct", "doubled", "dhs", "nondhs"},
	)
	if agg.Err != nil {
		return nil, fmt.Errorf("error aggregating boroughs: %w", agg.Err)
	}
	agg = agg.Arrange(dataframe.RevSort("students_SUM"), dataframe.Sort("borough"))
	if agg.Err != nil {
		return nil, fmt.Errorf("error sorting boroughs: %w", agg.Err)
	}

	boroughs := agg.Col("borough").Records()
	students := agg.Col("students_SUM").Float()
	counts := agg.Col("dbn_COUNT").Float()
	means := agg.Col("pct_MEAN").Float()
	doubled := agg.Col("doubled_SUM").Float()
	dhs := agg.Col("dhs_SUM").Float()
	nonDHS := agg.Col("nondhs_SUM").Float()

	out := make([]BoroughSummary, len(boroughs))
	for i := range boroughs {
		out[i] = BoroughSummary{
			Borough:               boroughs[i],
			StudentsInTempHousing: students[i],
			Schools:               int(counts[i]),
			MeanPctTempHousing:    means[i],
			DoubledUp:             doubled[i],
			DHSShelter:            dhs[i],
			NonDHSShelter:         nonDHS[i],
		}
	}
	return out, nil
}

// ScatterSchools keeps schools with at least MinScatterEnrollment students.
func ScatterSchools(list []schools.School) []schools.School {
	out := make([]schools.School, 0, len(list))
	for _, s := range list {
		if s.Enrollment >= MinScatterEnrollment {
			out = append(out, s)
		}
	}
	return out
}
