package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/models"
	"absenteeismgap.org/internal/schools"
)

type errorResponse struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func (api *RestAPI) writeError(w http.ResponseWriter, code int, text string, version int) {
	setJSONResponseType(&w)
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(errorResponse{
		Code:        code,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     version,
	})
	if err != nil {
		logging.LogError(api.Logger, "failed to encode error response", err)
	}
}

// invalidAPIKeyResponse sends a 401 Unauthorized response. The envelope
// version is 1, unlike successful responses.
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.writeError(w, http.StatusUnauthorized, "permission denied", 1)
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request failed", err)
	api.writeError(w, http.StatusInternalServerError, "internal server error", 1)
}

func (api *RestAPI) notLoadedResponse(w http.ResponseWriter, r *http.Request) {
	api.writeError(w, http.StatusServiceUnavailable, "no merged data loaded", models.ResponseVersion)
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.Logger, "failed to encode validation error response", err)
	}
}

// datasetErrorResponse maps manager errors onto the envelope.
func (api *RestAPI) datasetErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, schools.ErrNotLoaded):
		api.notLoadedResponse(w, r)
	case errors.Is(err, schools.ErrUnknownYear):
		api.sendNotFound(w, r)
	default:
		api.serverErrorResponse(w, r, err)
	}
}
