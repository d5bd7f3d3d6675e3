package restapi

import (
	"net/http"

	"absenteeismgap.org/internal/charts"
	"absenteeismgap.org/internal/models"
	"absenteeismgap.org/internal/utils"
)

// chartHandler returns one plotly figure as the envelope entry.
func (api *RestAPI) chartHandler(w http.ResponseWriter, r *http.Request) {
	name := utils.ExtractIDFromParams(r, "name")
	if err := utils.ValidateID(name); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"name": {err.Error()}})
		return
	}

	year, list, ok := api.schoolsForRequest(w, r)
	if !ok {
		return
	}

	figures, err := charts.Figures(year, list)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	fig, found := figures[name]
	if !found {
		api.sendNotFound(w, r)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(fig, api.yearReferences()))
}
