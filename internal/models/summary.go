package models

import (
	"time"

	"absenteeismgap.org/internal/charts"
)

// SummaryModel is the headline view of one school year.
type SummaryModel struct {
	Year        string                  `json:"year"`
	Metrics     charts.Metrics          `json:"metrics"`
	Formatted   charts.FormattedMetrics `json:"formatted"`
	Boroughs    []charts.BoroughSummary `json:"boroughs"`
	Trend       *charts.Trend           `json:"trend,omitempty"`
	LastUpdated int64                   `json:"lastUpdated"`
}

// YearsModel lists the loaded school years.
type YearsModel struct {
	Years       []string `json:"years"`
	Default     string   `json:"default"`
	LastUpdated int64    `json:"lastUpdated"`
}

// RefreshModel reports the outcome of a pipeline refresh.
type RefreshModel struct {
	Years       []string `json:"years"`
	LastUpdated int64    `json:"lastUpdated"`
	DurationMs  int64    `json:"durationMs"`
}

// UnixMilli converts t to milliseconds, mapping the zero time to 0.
func UnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
