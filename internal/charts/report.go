package charts

import (
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/MetalBlueberry/go-plotly/offline"

	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/schools"
)

var reportIndex = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>The Absenteeism Gap ({{.Year}})</title></head>
<body>
<h1>The Absenteeism Gap</h1>
<h2>How Homelessness Steals School Days in NYC ({{.Year}})</h2>
<p>{{.Metrics.TotalSchools}} schools, {{.Metrics.StudentsInTempHousing}} students in temporary housing, citywide average {{.Metrics.CitywideAverage}}.</p>
<ul>
{{range .Figures}}<li><a href="{{.}}.html">{{.}}</a></li>
{{end}}</ul>
<table>
<tr><th>#</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Top}}<tr><td>{{.Rank}}</td><td>{{.School}}</td><td>{{.Borough}}</td><td>{{printf "%.1f" .PctTempHousing}}</td><td>{{printf "%.1f" .PctChronicallyAbsent}}</td><td>{{printf "%.0f" .Enrollment}}</td></tr>
{{end}}</table>
</body>
</html>
`))

// WriteReport renders every figure for a year as a standalone HTML file in
// dir, plus an index.html with the metrics and ranked table.
func WriteReport(dir, year string, list []schools.School, logger *slog.Logger) error {
	figs, err := Figures(year, list)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating report dir %s: %w", dir, err)
	}

	for _, name := range FigureNames() {
		path := filepath.Join(dir, name+".html")
		writeFigure(figs[name], path)
		logging.LogOperation(logger, "figure_written", slog.String("path", path))
	}

	return writeIndex(filepath.Join(dir, "index.html"), year, list)
}

func writeFigure(fig *grob.Fig, path string) {
	offline.ToHtml(fig, path)
}

func writeIndex(path, year string, list []schools.School) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer logging.HandleDeferredError(&err, f.Close, slog.Default(), "close_report_index")

	return reportIndex.Execute(f, struct {
		Year    string
		Metrics FormattedMetrics
		Figures []string
		Columns []string
		Top     []TopRow
	}{
		Year:    year,
		Metrics: ComputeMetrics(list).Format(),
		Figures: FigureNames(),
		Columns: TopColumns,
		Top:     Top(list, TopN),
	})
}
