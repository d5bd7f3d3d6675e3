package restapi

import (
	"net/http"
	"time"

	"absenteeismgap.org/internal/models"
)

// refreshHandler reruns fetch and merge, then reloads the dataset.
func (api *RestAPI) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if api.Schools == nil {
		api.notLoadedResponse(w, r)
		return
	}

	start := time.Now()
	if err := api.Schools.Refresh(r.Context()); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewOKResponse(models.RefreshModel{
		Years:       api.Schools.Years(),
		LastUpdated: models.UnixMilli(api.Schools.LastUpdated()),
		DurationMs:  time.Since(start).Milliseconds(),
	}))
}
