// Package clean holds the normalization rules applied to raw Open Data cells:
// percentage parsing with suppression markers, and borough derivation from a
// school DBN.
package clean

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Citywide is returned for identifiers that carry no recognizable borough code.
const Citywide = "Citywide"

// SuppressedMarker is the provider's redaction marker for small counts.
const SuppressedMarker = "s"

// decimalPattern accepts plain decimal notation only, so NaN, Inf and hex
// floats stay missing.
var decimalPattern = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

var boroughCodes = map[byte]string{
	'M': "Manhattan",
	'X': "Bronx",
	'K': "Brooklyn",
	'Q': "Queens",
	'R': "Staten Island",
}

// Boroughs lists the five boroughs in a stable display order.
func Boroughs() []string {
	return []string{"Bronx", "Brooklyn", "Manhattan", "Queens", "Staten Island"}
}

// Percent normalizes a raw cell such as "30.7%", "42.2", "s" or "".
// The second return value is false when the cell is missing, suppressed or
// not numeric.
func Percent(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, SuppressedMarker) {
		return 0, false
	}

	s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Cell is Percent rendered back to a flat-file cell; missing values become "".
func Cell(raw string) string {
	v, ok := Percent(raw)
	if !ok {
		return ""
	}
	return FormatFloat(v)
}

// FormatFloat renders a cleaned number the way the merged flat file stores it:
// integral values keep one decimal ("30.0"), others use the shortest form.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Borough derives the borough name from the third character of a DBN.
func Borough(dbn string) string {
	if len(dbn) < 3 {
		return Citywide
	}
	if name, ok := boroughCodes[dbn[2]]; ok {
		return name
	}
	return Citywide
}
