package restapi

import (
	"net/http"

	"absenteeismgap.org/internal/models"
	"absenteeismgap.org/internal/utils"
)

// schoolHandler returns one school for a year, with every stored year of
// that school as history. The loaded years are used when the store has none.
func (api *RestAPI) schoolHandler(w http.ResponseWriter, r *http.Request) {
	dbn := utils.ExtractIDFromParams(r, "dbn")
	fieldErrors := map[string][]string{}
	if err := utils.ValidateDBN(dbn); err != nil {
		fieldErrors["dbn"] = append(fieldErrors["dbn"], err.Error())
	}
	year := r.URL.Query().Get("year")
	if err := utils.ValidateYear(year); err != nil {
		fieldErrors["year"] = append(fieldErrors["year"], err.Error())
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if api.Schools == nil {
		api.notLoadedResponse(w, r)
		return
	}

	school, found := api.Schools.Find(dbn, year)
	if !found {
		api.sendNotFound(w, r)
		return
	}

	refs := api.yearReferences()
	if api.Store != nil {
		history, err := api.Store.SchoolHistory(r.Context(), dbn)
		if err != nil {
			api.serverErrorResponse(w, r, err)
			return
		}
		refs.History = append(refs.History, history...)
	}
	if len(refs.History) == 0 {
		for _, y := range api.Schools.Years() {
			if s, ok := api.Schools.Find(dbn, y); ok {
				refs.History = append(refs.History, s)
			}
		}
	}

	api.sendResponse(w, r, models.NewEntryResponse(school, refs))
}
