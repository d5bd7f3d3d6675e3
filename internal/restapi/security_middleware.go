package restapi

import (
	"net/http"
	"strings"
)

const (
	// pageCSP lets the dashboard run its inline figure script and load
	// plotly.js from the CDN.
	pageCSP = "default-src 'none'; script-src 'self' 'unsafe-inline' https://cdn.plot.ly; " +
		"style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none';"
	// apiCSP covers JSON and xlsx responses, which never render.
	apiCSP = "default-src 'none'; frame-ancestors 'none';"
)

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// securityHeaders sets the browser hardening headers. The school data is
// public, so /api/ answers any origin; preflights stop here.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if !isAPIPath(r.URL.Path) {
			h.Set("Content-Security-Policy", pageCSP)
			next.ServeHTTP(w, r)
			return
		}

		h.Set("Content-Security-Policy", apiCSP)
		if r.Header.Get("Origin") != "" {
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Max-Age", "86400")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
