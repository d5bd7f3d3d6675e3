package charts

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"absenteeismgap.org/internal/schools"
)

// TopN is the size of the ranked table on the dashboard.
const TopN = 20

// TopColumns are the display headers of the ranked table.
var TopColumns = []string{"School", "Borough", "% Temp Housing", "% Chronically Absent", "Enrollment"}

// TopRow is one line of the ranked table.
type TopRow struct {
	Rank                 int     `json:"rank"`
	DBN                  string  `json:"dbn"`
	School               string  `json:"school"`
	Borough              string  `json:"borough"`
	PctTempHousing       float64 `json:"pctTempHousing"`
	PctChronicallyAbsent float64 `json:"pctChronicallyAbsent"`
	Enrollment           float64 `json:"enrollment"`
}

// Top ranks schools by share of students in temporary housing, highest
// first, and returns at most n rows numbered from 1. Ties keep input order.
func Top(list []schools.School, n int) []TopRow {
	ranked := make([]schools.School, len(list))
	copy(ranked, list)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PctTempHousing > ranked[j].PctTempHousing
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}

	out := make([]TopRow, len(ranked))
	for i, s := range ranked {
		out[i] = TopRow{
			Rank:                 i + 1,
			DBN:                  s.DBN,
			School:               s.Name,
			Borough:              s.Borough,
			PctTempHousing:       s.PctTempHousing,
			PctChronicallyAbsent: s.PctChronicallyAbsent,
			Enrollment:           s.Enrollment,
		}
	}
	return out
}

// Metrics are the headline numbers under the borough chart.
type Metrics struct {
	TotalSchools          int     `json:"totalSchools"`
	StudentsInTempHousing int     `json:"studentsInTempHousing"`
	CitywideAverage       float64 `json:"citywideAverage"`
}

// ComputeMetrics totals a year of schools. The citywide average is the
// unweighted mean of per-school shares.
func ComputeMetrics(list []schools.School) Metrics {
	m := Metrics{TotalSchools: len(list)}
	total, pct := 0.0, 0.0
	for _, s := range list {
		total += s.NTempHousing
		pct += s.PctTempHousing
	}
	m.StudentsInTempHousing = int(total)
	if len(list) > 0 {
		m.CitywideAverage = pct / float64(len(list))
	}
	return m
}

// FormattedMetrics is Metrics rendered for display.
type FormattedMetrics struct {
	TotalSchools          string `json:"totalSchools"`
	StudentsInTempHousing string `json:"studentsInTempHousing"`
	CitywideAverage       string `json:"citywideAverage"`
}

var printer = message.NewPrinter(language.English)

// Format renders counts with thousands separators and the average with one
// decimal and a percent sign.
func (m Metrics) Format() FormattedMetrics {
	return FormattedMetrics{
		TotalSchools:          printer.Sprintf("%d", m.TotalSchools),
		StudentsInTempHousing: printer.Sprintf("%d", m.StudentsInTempHousing),
		CitywideAverage:       printer.Sprintf("%.1f%%", m.CitywideAverage),
	}
}

// FormatCount renders a count with thousands separators.
func FormatCount(v float64) string {
	return printer.Sprintf("%d", int64(v))
}
