package restapi

import (
	"net/http"

	"absenteeismgap.org/internal/models"
	"absenteeismgap.org/internal/schools"
	"absenteeismgap.org/internal/utils"
)

// schoolsForRequest resolves the "year" query parameter and returns that
// year's schools. It writes the error response and reports false on failure.
func (api *RestAPI) schoolsForRequest(w http.ResponseWriter, r *http.Request) (string, []schools.School, bool) {
	if api.Schools == nil {
		api.notLoadedResponse(w, r)
		return "", nil, false
	}

	year := r.URL.Query().Get("year")
	if err := utils.ValidateYear(year); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"year": {err.Error()}})
		return "", nil, false
	}

	list, err := api.Schools.Schools(year)
	if err != nil {
		api.datasetErrorResponse(w, r, err)
		return "", nil, false
	}
	if year == "" {
		year = api.Schools.DefaultYear()
	}
	return year, list, true
}

func (api *RestAPI) yearReferences() models.ReferencesModel {
	refs := models.NewEmptyReferences()
	if api.Schools != nil {
		refs.Years = append(refs.Years, api.Schools.Years()...)
	}
	return refs
}
