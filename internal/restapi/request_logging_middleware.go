package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"absenteeismgap.org/internal/logging"
)

// statusRecorder remembers the status and body size a handler produced.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// NewRequestLoggingMiddleware logs one http_request line per request. The
// requested school year is logged as its own attribute; the raw query,
// which may carry the refresh key, is not. Handlers find the tagged logger
// with logging.FromContext.
func NewRequestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logging.ForComponent(logger, logging.ComponentHTTPServer)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(logging.WithLogger(r.Context(), logger)))

			attrs := []slog.Attr{
				slog.Int("bytes", rec.bytes),
				slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if year := r.URL.Query().Get("year"); year != "" {
				attrs = append(attrs, slog.String("school_year", year))
			}
			logging.LogHTTPRequest(logger, r.Method, r.URL.Path, rec.status,
				float64(time.Since(start).Microseconds())/1e3, attrs...)
		})
	}
}
