// Package restapi serves the merged school data as JSON, plotly figures and
// spreadsheets.
package restapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"absenteeismgap.org/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
	}
}

// Handler wraps router with the shared middleware chain.
func (api *RestAPI) Handler(router *httprouter.Router) http.Handler {
	var h http.Handler = router
	h = CompressionMiddleware(h)
	if api.rateLimiter != nil {
		h = api.rateLimiter.Handler(h)
	}
	h = securityHeaders(h)
	return NewRequestLoggingMiddleware(api.Logger)(h)
}

// Shutdown stops background work owned by the API.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
