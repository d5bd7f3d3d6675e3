package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"absenteeismgap.org/internal/models"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// SetRoutes registers the JSON API on router.
func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/api/years.json", api.yearsHandler)
	router.HandlerFunc(http.MethodGet, "/api/summary.json", api.summaryHandler)
	router.HandlerFunc(http.MethodGet, "/api/charts/:name", api.chartHandler)
	router.HandlerFunc(http.MethodGet, "/api/top-schools.json", api.topSchoolsHandler)
	router.HandlerFunc(http.MethodGet, "/api/school/:dbn", api.schoolHandler)
	router.HandlerFunc(http.MethodGet, "/api/export.xlsx", api.exportHandler)
	router.Handler(http.MethodPost, "/api/refresh", validateAPIKey(api, api.refreshHandler))

	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed", models.ResponseVersion)
	})
}
