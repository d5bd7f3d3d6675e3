package restapi

import (
	"net/http"

	"absenteeismgap.org/internal/models"
)

func (api *RestAPI) yearsHandler(w http.ResponseWriter, r *http.Request) {
	if api.Schools == nil || len(api.Schools.Years()) == 0 {
		api.notLoadedResponse(w, r)
		return
	}

	api.sendResponse(w, r, models.NewOKResponse(models.YearsModel{
		Years:       api.Schools.Years(),
		Default:     api.Schools.DefaultYear(),
		LastUpdated: models.UnixMilli(api.Schools.LastUpdated()),
	}))
}
