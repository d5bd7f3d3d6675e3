package app

import (
	"crypto/subtle"
	"net/http"
)

// RefreshKeyParam is the query parameter that carries the key for
// POST /api/refresh.
const RefreshKeyParam = "key"

// RequestHasInvalidAPIKey reports whether r lacks a configured refresh key.
func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	return app.IsInvalidAPIKey(r.URL.Query().Get(RefreshKeyParam))
}

// IsInvalidAPIKey compares key against every configured key in constant
// time. Blank keys never match, including blank entries in the config.
func (app *Application) IsInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}

	matched := 0
	for _, valid := range app.Config.ApiKeys {
		if valid == "" {
			continue
		}
		matched |= subtle.ConstantTimeCompare([]byte(key), []byte(valid))
	}
	return matched == 0
}
