package restapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"absenteeismgap.org/internal/export"
)

// exportHandler streams the year's schools as an xlsx workbook.
func (api *RestAPI) exportHandler(w http.ResponseWriter, r *http.Request) {
	year, list, ok := api.schoolsForRequest(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, list); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	filename := fmt.Sprintf("absenteeism_gap_%s.xlsx", strings.ReplaceAll(year, "-", "_"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := buf.WriteTo(w); err != nil {
		api.Logger.Error("failed to write export", "error", err)
	}
}
