package webui

import (
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"absenteeismgap.org/internal/charts"
)

type debugData struct {
	Title string
	Pre   string
}

func (webUI *WebUI) writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := webUI.templates.ExecuteTemplate(w, "debug_index.html", debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")
	year := r.URL.Query().Get("year")

	var data interface{}
	var title string

	if webUI.Schools == nil {
		webUI.writeDebugData(w, "No dataset", map[string]string{"error": "no schools manager configured"})
		return
	}

	list, err := webUI.Schools.Schools(year)
	if err != nil && dataType != "years" && dataType != "store" {
		webUI.writeDebugData(w, "Dataset error", map[string]string{"error": err.Error()})
		return
	}

	switch dataType {
	case "years":
		data = map[string]interface{}{
			"years":       webUI.Schools.Years(),
			"default":     webUI.Schools.DefaultYear(),
			"lastUpdated": webUI.Schools.LastUpdated(),
		}
		title = "Dataset - Years"
	case "summary":
		data = charts.ComputeMetrics(list)
		title = "Dataset - Summary"
	case "boroughs":
		boroughs, err := charts.ByBorough(list)
		if err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = boroughs
		}
		title = "Dataset - Boroughs"
	case "top":
		data = charts.Top(list, charts.TopN)
		title = "Dataset - Top Schools"
	case "schools":
		data = list
		title = "Dataset - Schools"
	case "store":
		if webUI.Store == nil {
			data = map[string]string{"error": "no sqlite store configured"}
			break
		}
		if year == "" {
			year = webUI.Schools.DefaultYear()
		}
		counts, err := webUI.Store.TableCounts(r.Context())
		if err != nil {
			data = map[string]string{"error": err.Error()}
			break
		}
		totals, err := webUI.Store.BoroughTotals(r.Context(), year)
		if err != nil {
			data = map[string]string{"error": err.Error()}
			break
		}
		top, err := webUI.Store.TopSchools(r.Context(), year, charts.TopN)
		if err != nil {
			data = map[string]string{"error": err.Error()}
			break
		}
		data = map[string]interface{}{
			"tableCounts":   counts,
			"boroughTotals": totals,
			"topSchools":    top,
			"year":          year,
		}
		title = "SQLite - Table Counts"
	default:
		data = map[string]string{
			"error": "Please use one of the following: years, summary, boroughs, top, schools, store.",
		}
		title = "Choose a data type"
	}

	webUI.writeDebugData(w, title, data)
}
