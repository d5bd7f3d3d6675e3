package restapi

import (
	"mime"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"absenteeismgap.org/internal/export"
)

const (
	// compressionMinSize leaves error envelopes and small lists alone.
	compressionMinSize = 1024
	compressionLevel   = 6
)

// compressible reports whether a response of contentType is worth gzipping.
// The xlsx export is already a zip archive.
func compressible(contentType string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == export.ContentType {
		return false
	}
	return gzhttp.DefaultContentTypeFilter(contentType)
}

// CompressionMiddleware gzips figure JSON, API envelopes and the dashboard
// page for clients that accept it.
func CompressionMiddleware(next http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(compressionMinSize),
		gzhttp.CompressionLevel(compressionLevel),
		gzhttp.ContentTypeFilter(compressible),
	)
	if err != nil {
		return gzhttp.GzipHandler(next)
	}
	return wrap(next)
}
