package restapi

import (
	"net/http"

	"absenteeismgap.org/internal/charts"
	"absenteeismgap.org/internal/models"
)

func (api *RestAPI) summaryHandler(w http.ResponseWriter, r *http.Request) {
	year, list, ok := api.schoolsForRequest(w, r)
	if !ok {
		return
	}

	boroughs, err := charts.ByBorough(list)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	metrics := charts.ComputeMetrics(list)
	summary := models.SummaryModel{
		Year:        year,
		Metrics:     metrics,
		Formatted:   metrics.Format(),
		Boroughs:    boroughs,
		LastUpdated: models.UnixMilli(api.Schools.LastUpdated()),
	}
	if trend, ok := charts.FitTrend(charts.ScatterSchools(list)); ok {
		summary.Trend = &trend
	}

	refs := api.yearReferences()
	refs.Boroughs = boroughs
	api.sendResponse(w, r, models.NewEntryResponse(summary, refs))
}
