package socrata

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// HousingDataset is the temporary-housing dataset published for one school year.
type HousingDataset struct {
	Year    string `yaml:"year"`
	Dataset string `yaml:"dataset"`
}

// AttendanceDataset is the single multi-year attendance dataset and the
// server-side filter applied to it.
type AttendanceDataset struct {
	Dataset  string   `yaml:"dataset"`
	Grade    string   `yaml:"grade"`
	Category string   `yaml:"category"`
	Years    []string `yaml:"years"`
}

// Catalog lists every dataset the acquisition stage pulls.
type Catalog struct {
	BaseURL     string            `yaml:"base_url"`
	Limit       int               `yaml:"limit"`
	CurrentYear string            `yaml:"current_year"`
	Housing     []HousingDataset  `yaml:"housing"`
	Attendance  AttendanceDataset `yaml:"attendance"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from a YAML file. An empty path yields the
// embedded default.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("error reading catalog %s: %w", path, err)
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(b []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Catalog{}, fmt.Errorf("error parsing catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks the catalog is usable.
func (c Catalog) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("catalog: base_url is required"))
	}
	if c.Limit <= 0 {
		errs = append(errs, errors.New("catalog: limit must be positive"))
	}
	if c.Attendance.Dataset == "" {
		errs = append(errs, errors.New("catalog: attendance.dataset is required"))
	}
	if _, ok := c.HousingDataset(c.CurrentYear); !ok {
		errs = append(errs, fmt.Errorf("catalog: no housing dataset for current_year %q", c.CurrentYear))
	}
	seen := map[string]bool{}
	for _, h := range c.Housing {
		if seen[h.Year] {
			errs = append(errs, fmt.Errorf("catalog: duplicate housing year %q", h.Year))
		}
		seen[h.Year] = true
	}
	return errors.Join(errs...)
}

// HousingDataset returns the housing dataset ID for a school year.
func (c Catalog) HousingDataset(year string) (string, bool) {
	for _, h := range c.Housing {
		if h.Year == year {
			return h.Dataset, true
		}
	}
	return "", false
}

// HousingYears returns the housing school years in ascending order.
func (c Catalog) HousingYears() []string {
	years := make([]string, 0, len(c.Housing))
	for _, h := range c.Housing {
		years = append(years, h.Year)
	}
	sort.Strings(years)
	return years
}

// AttendanceWhere builds the $where clause for one attendance year.
func (c Catalog) AttendanceWhere(year string) string {
	return fmt.Sprintf("year='%s' AND grade='%s' AND category='%s'",
		quote(year), quote(c.Attendance.Grade), quote(c.Attendance.Category))
}

// quote escapes single quotes for SoQL string literals.
func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// YearFileSuffix turns "2019-20" into "2019_20" for per-year file names.
func YearFileSuffix(year string) string {
	return strings.ReplaceAll(year, "-", "_")
}
