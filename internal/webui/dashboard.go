package webui

import (
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"
	"time"

	"absenteeismgap.org/internal/charts"
	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/schools"
	"absenteeismgap.org/internal/utils"
)

const (
	dashboardTitle    = "The Absenteeism Gap"
	dashboardSubtitle = "How Homelessness Steals School Days in NYC"
)

// covidNotices flag school years disrupted by the pandemic.
var covidNotices = map[string]string{
	"2019-20": "Data from the 2019-20 school year, which was interrupted in March 2020 by COVID-19 school closures.",
	"2020-21": "Data from the 2020-21 school year, which was significantly impacted by COVID-19 and remote/hybrid learning.",
}

// Narrative holds the rounded figures quoted in the introduction.
type Narrative struct {
	Year            string
	ApproxStudents  string
	OneIn           int
	ApproxSchools   string
	HasTempHousing  bool
	TrendSlope      float64
	TrendRSquared   float64
	HasTrend        bool
	LargestBorough  string
	SmallestBorough string
}

type dashboardView struct {
	Title       string
	Subtitle    string
	Year        string
	Years       []string
	CovidNotice string
	Narrative   Narrative
	Metrics     charts.FormattedMetrics
	Top         []charts.TopRow
	TopColumns  []string
	Figures     map[string]template.JS
	Caption     string
	LastUpdated string
	Message     string
}

func roundTo(v, unit float64) float64 {
	return math.Round(v/unit) * unit
}

// buildNarrative rounds the year's totals the way the introduction quotes them.
func buildNarrative(year string, list []schools.School, boroughs []charts.BoroughSummary) Narrative {
	n := Narrative{Year: year}
	var students, enrollment float64
	for _, s := range list {
		students += s.NTempHousing
		enrollment += s.Enrollment
	}
	n.ApproxStudents = charts.FormatCount(roundTo(students, 1000))
	n.ApproxSchools = charts.FormatCount(roundTo(float64(len(list)), 100))
	if students > 0 {
		n.HasTempHousing = true
		n.OneIn = int(math.Round(enrollment / students))
	}
	if len(boroughs) > 0 {
		n.LargestBorough = boroughs[0].Borough
		n.SmallestBorough = boroughs[len(boroughs)-1].Borough
	}
	if trend, ok := charts.FitTrend(charts.ScatterSchools(list)); ok {
		n.HasTrend = true
		n.TrendSlope = trend.Slope
		n.TrendRSquared = trend.RSquared
	}
	return n
}

func (webUI *WebUI) caption(year string) string {
	housing, _ := webUI.catalog.HousingDataset(year)
	if housing == "" {
		housing, _ = webUI.catalog.HousingDataset(webUI.catalog.CurrentYear)
	}
	return "Data sources: NYC Open Data, Students in Temporary Housing (" + housing +
		"), School End-of-Year Attendance (" + webUI.catalog.Attendance.Dataset + "). " +
		year + " school year."
}

func (webUI *WebUI) render(w http.ResponseWriter, status int, view dashboardView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := webUI.templates.ExecuteTemplate(w, "dashboard.html", view); err != nil {
		logging.LogError(webUI.Logger, "failed to render dashboard", err)
	}
}

func (webUI *WebUI) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{
		Title:      dashboardTitle,
		Subtitle:   dashboardSubtitle,
		TopColumns: charts.TopColumns,
	}

	year := r.URL.Query().Get("year")
	if err := utils.ValidateYear(year); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if webUI.Schools == nil {
		view.Message = "No merged data has been loaded yet."
		webUI.render(w, http.StatusServiceUnavailable, view)
		return
	}

	list, err := webUI.Schools.Schools(year)
	switch {
	case errors.Is(err, schools.ErrNotLoaded):
		view.Message = "No merged data has been loaded yet. Run the fetch and merge commands, or POST /api/refresh."
		webUI.render(w, http.StatusServiceUnavailable, view)
		return
	case errors.Is(err, schools.ErrUnknownYear):
		http.NotFound(w, r)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if year == "" {
		year = webUI.Schools.DefaultYear()
	}

	boroughs, err := charts.ByBorough(list)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	figures, err := charts.Figures(year, list)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	view.Figures = make(map[string]template.JS, len(figures))
	for name, fig := range figures {
		b, err := json.Marshal(fig)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// encoding/json escapes <, > and &, so the figure is safe inside <script>.
		view.Figures[name] = template.JS(b)
	}

	view.Year = year
	view.Years = webUI.Schools.Years()
	view.CovidNotice = covidNotices[year]
	view.Narrative = buildNarrative(year, list, boroughs)
	view.Metrics = charts.ComputeMetrics(list).Format()
	view.Top = charts.Top(list, charts.TopN)
	view.Caption = webUI.caption(year)
	if updated := webUI.Schools.LastUpdated(); !updated.IsZero() {
		view.LastUpdated = updated.Format(time.RFC1123)
	}

	webUI.render(w, http.StatusOK, view)
}
