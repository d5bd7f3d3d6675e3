package charts

import (
	"fmt"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"absenteeismgap.org/internal/clean"
	"absenteeismgap.org/internal/schools"
)

// Figure names served by the API and drawn on the dashboard.
const (
	FigureScale        = "scale"
	FigureGap          = "gap"
	FigureHousingTypes = "housing-types"
)

// FigureNames lists every figure in tab order.
func FigureNames() []string {
	return []string{FigureScale, FigureGap, FigureHousingTypes}
}

var boroughColors = map[string]string{
	"Bronx":         "#636efa",
	"Brooklyn":      "#ef553b",
	"Manhattan":     "#00cc96",
	"Queens":        "#ab63fa",
	"Staten Island": "#ffa15a",
	clean.Citywide:  "#19d3f3",
}

func newFigure(title, xLabel, yLabel string) *grob.Fig {
	return &grob.Fig{
		Layout: &grob.Layout{
			Title:      &grob.LayoutTitle{Text: title},
			Xaxis:      &grob.LayoutXaxis{Title: &grob.LayoutXaxisTitle{Text: xLabel}},
			Yaxis:      &grob.LayoutYaxis{Title: &grob.LayoutYaxisTitle{Text: yLabel}},
			Showlegend: grob.True,
		},
	}
}

// ScaleFigure is the bar chart of temp-housing students per borough.
func ScaleFigure(year string, boroughs []BoroughSummary) *grob.Fig {
	fig := newFigure(
		fmt.Sprintf("Students in Temporary Housing by Borough (%s)", year),
		"Borough", "Total Students")
	for _, b := range boroughs {
		fig.AddTraces(&grob.Bar{
			Type: grob.TraceTypeBar,
			Name: b.Borough,
			X:    []string{b.Borough},
			Y:    []float64{b.StudentsInTempHousing},
		})
	}
	return fig
}

// Trend is an ordinary least squares fit of absenteeism on temp-housing share.
type Trend struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"rSquared"`
	N         int     `json:"n"`
}

// FitTrend regresses % chronically absent on % in temporary housing. It
// reports false when fewer than two distinct x values exist.
func FitTrend(list []schools.School) (Trend, bool) {
	xs := make([]float64, len(list))
	ys := make([]float64, len(list))
	for i, s := range list {
		xs[i] = s.PctTempHousing
		ys[i] = s.PctChronicallyAbsent
	}
	if len(xs) < 2 || floats.Min(xs) == floats.Max(xs) {
		return Trend{}, false
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Trend{
		Intercept: alpha,
		Slope:     beta,
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
		N:         len(xs),
	}, true
}

// bubbleMarker carries one size per point. ScatterMarker.Size only holds a
// single value.
type bubbleMarker struct {
	Color    grob.Color                 `json:"color,omitempty"`
	Size     []float64                  `json:"size"`
	Sizemode grob.ScatterMarkerSizemode `json:"sizemode,omitempty"`
	Sizeref  float64                    `json:"sizeref,omitempty"`
}

// bubbleScatter is a scatter trace whose marker is a bubbleMarker.
type bubbleScatter struct {
	*grob.Scatter
	Marker *bubbleMarker `json:"marker,omitempty"`
}

// bubbleSizeMax is the diameter in px of the largest school's marker.
const bubbleSizeMax = 20

// bubbleSizeref scales marker area so the largest value gets bubbleSizeMax.
func bubbleSizeref(largest float64) float64 {
	if largest <= 0 {
		return 1
	}
	return 2 * largest / (bubbleSizeMax * bubbleSizeMax)
}

// GapFigure is the scatter of temp-housing share against chronic
// absenteeism. Each borough gets a marker trace sized by enrollment and,
// when it has two distinct x values, its own OLS trendline.
func GapFigure(year string, list []schools.School) *grob.Fig {
	fig := newFigure(
		fmt.Sprintf("Housing Instability vs Chronic Absenteeism (%s)", year),
		"% Students in Temporary Housing", "% Chronically Absent")

	points := ScatterSchools(list)
	byBorough := map[string][]schools.School{}
	for _, s := range points {
		byBorough[s.Borough] = append(byBorough[s.Borough], s)
	}

	sizeref := bubbleSizeref(maxEnrollment(points))
	order := append(clean.Boroughs(), clean.Citywide)
	for _, borough := range order {
		group := byBorough[borough]
		if len(group) == 0 {
			continue
		}
		x := make([]float64, len(group))
		y := make([]float64, len(group))
		size := make([]float64, len(group))
		text := make([]string, len(group))
		for i, s := range group {
			x[i] = s.PctTempHousing
			y[i] = s.PctChronicallyAbsent
			size[i] = s.Enrollment
			text[i] = fmt.Sprintf("%s (%s)", s.Name, s.DBN)
		}
		fig.AddTraces(&bubbleScatter{
			Scatter: &grob.Scatter{
				Type:        grob.TraceTypeScatter,
				Mode:        grob.ScatterModeMarkers,
				Name:        borough,
				Legendgroup: borough,
				X:           x,
				Y:           y,
				Text:        text,
				Opacity:     0.6,
			},
			Marker: &bubbleMarker{
				Color:    boroughColors[borough],
				Size:     size,
				Sizemode: grob.ScatterMarkerSizemodeArea,
				Sizeref:  sizeref,
			},
		})

		if trend, ok := FitTrend(group); ok {
			lo, hi := xRange(group)
			fig.AddTraces(&grob.Scatter{
				Type:        grob.TraceTypeScatter,
				Mode:        grob.ScatterModeLines,
				Name:        fmt.Sprintf("%s OLS trendline (R² = %.3f)", borough, trend.RSquared),
				Legendgroup: borough,
				Showlegend:  grob.False,
				X:           []float64{lo, hi},
				Y:           []float64{trend.Intercept + trend.Slope*lo, trend.Intercept + trend.Slope*hi},
				Line:        &grob.ScatterLine{Color: boroughColors[borough]},
			})
		}
	}
	return fig
}

func maxEnrollment(list []schools.School) float64 {
	largest := 0.0
	for _, s := range list {
		if s.Enrollment > largest {
			largest = s.Enrollment
		}
	}
	return largest
}

func xRange(list []schools.School) (float64, float64) {
	xs := make([]float64, len(list))
	for i, s := range list {
		xs[i] = s.PctTempHousing
	}
	return floats.Min(xs), floats.Max(xs)
}

// Housing types stacked in the breakdown chart.
const (
	HousingDoubledUp     = "Doubled Up"
	HousingDHSShelter    = "DHS Shelter"
	HousingNonDHSShelter = "Non-DHS Shelter"
)

// HousingTypesFigure is the stacked bar of housing type per borough.
func HousingTypesFigure(year string, boroughs []BoroughSummary) *grob.Fig {
	fig := newFigure(
		fmt.Sprintf("Housing Type Breakdown by Borough (%s)", year),
		"Borough", "Students")
	fig.Layout.Barmode = grob.BarBarmodeStack

	names := make([]string, len(boroughs))
	doubled := make([]float64, len(boroughs))
	dhs := make([]float64, len(boroughs))
	nonDHS := make([]float64, len(boroughs))
	for i, b := range boroughs {
		names[i] = b.Borough
		doubled[i] = b.DoubledUp
		dhs[i] = b.DHSShelter
		nonDHS[i] = b.NonDHSShelter
	}

	fig.AddTraces(
		&grob.Bar{Type: grob.TraceTypeBar, Name: HousingDoubledUp, X: names, Y: doubled},
		&grob.Bar{Type: grob.TraceTypeBar, Name: HousingDHSShelter, X: names, Y: dhs},
		&grob.Bar{Type: grob.TraceTypeBar, Name: HousingNonDHSShelter, X: names, Y: nonDHS},
	)
	return fig
}

// Figures builds every dashboard figure for one year of schools.
func Figures(year string, list []schools.School) (map[string]*grob.Fig, error) {
	boroughs, err := ByBorough(list)
	if err != nil {
		return nil, err
	}
	return map[string]*grob.Fig{
		FigureScale:        ScaleFigure(year, boroughs),
		FigureGap:          GapFigure(year, list),
		FigureHousingTypes: HousingTypesFigure(year, boroughs),
	}, nil
}
