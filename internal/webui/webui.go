// Package webui renders the dashboard page and a debug view of the loaded data.
package webui

import (
	"embed"
	"fmt"
	"html/template"

	"absenteeismgap.org/internal/app"
	"absenteeismgap.org/internal/charts"
	"absenteeismgap.org/internal/socrata"
)

//go:embed templates/*.html
var templateFS embed.FS

type WebUI struct {
	*app.Application
	catalog   socrata.Catalog
	templates *template.Template
}

var templateFuncs = template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"count": charts.FormatCount,
}

// NewWebUI parses the embedded templates and the dataset catalog used for
// source captions.
func NewWebUI(application *app.Application) (*WebUI, error) {
	catalog, err := socrata.LoadCatalog(application.Config.CatalogPath)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("webui").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}
	return &WebUI{Application: application, catalog: catalog, templates: tmpl}, nil
}
