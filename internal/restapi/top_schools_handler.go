package restapi

import (
	"net/http"

	"absenteeismgap.org/internal/charts"
	"absenteeismgap.org/internal/models"
	"absenteeismgap.org/internal/utils"
)

const maxTopSchools = 100

// topSchoolsHandler ranks the loaded year by share in temporary housing.
// The ranking always comes from the in-memory dataset so it agrees with the
// summary and the dashboard even when the sqlite copy is stale.
func (api *RestAPI) topSchoolsHandler(w http.ResponseWriter, r *http.Request) {
	limit, fieldErrors := utils.ParseIntParam(r.URL.Query(), "limit", charts.TopN, nil)
	if len(fieldErrors) == 0 {
		if err := utils.ValidateLimit(limit, maxTopSchools); err != nil {
			fieldErrors["limit"] = append(fieldErrors["limit"], err.Error())
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	_, list, ok := api.schoolsForRequest(w, r)
	if !ok {
		return
	}

	api.sendResponse(w, r, models.NewListResponse(charts.Top(list, limit), api.yearReferences()))
}
