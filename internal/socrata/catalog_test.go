package socrata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, "https://data.cityofnewyork.us", c.BaseURL)
	assert.Equal(t, 5000, c.Limit)
	assert.Equal(t, "2020-21", c.CurrentYear)
	assert.Equal(t, "gqq2-hgxd", c.Attendance.Dataset)
	assert.Equal(t, []string{"2017-18", "2018-19", "2019-20", "2020-21"}, c.HousingYears())

	tests := map[string]string{
		"2020-21": "3wtp-43m9",
		"2019-20": "ec4f-sy8r",
		"2018-19": "4e3j-75af",
		"2017-18": "b22r-9izv",
	}
	for year, want := range tests {
		got, ok := c.HousingDataset(year)
		assert.True(t, ok, year)
		assert.Equal(t, want, got, year)
	}

	_, ok := c.HousingDataset("2016-17")
	assert.False(t, ok)
}

func TestAttendanceWhere(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t,
		"year='2020-21' AND grade='All Grades' AND category='All Students'",
		c.AttendanceWhere("2020-21"))

	c.Attendance.Category = "Students in Temp Housing's"
	assert.Contains(t, c.AttendanceWhere("2020-21"), "category='Students in Temp Housing''s'")
}

func TestLoadCatalog(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		c, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Equal(t, DefaultCatalog(), c)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		yml := `base_url: http://localhost:9999
limit: 10
current_year: "2019-20"
housing:
  - year: "2019-20"
    dataset: abcd-1234
attendance:
  dataset: wxyz-0000
  grade: All Grades
  category: All Students
  years: ["2019-20"]
`
		require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

		c, err := LoadCatalog(path)
		require.NoError(t, err)
		assert.Equal(t, 10, c.Limit)
		assert.Equal(t, []string{"2019-20"}, c.Attendance.Years)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestParseCatalogValidation(t *testing.T) {
	tests := []struct {
		name    string
		yml     string
		wantErr string
	}{
		{
			name:    "missing base url",
			yml:     "limit: 5\ncurrent_year: a\nhousing: [{year: a, dataset: x}]\nattendance: {dataset: y}\n",
			wantErr: "base_url is required",
		},
		{
			name:    "current year without dataset",
			yml:     "base_url: http://x\nlimit: 5\ncurrent_year: b\nhousing: [{year: a, dataset: x}]\nattendance: {dataset: y}\n",
			wantErr: `no housing dataset for current_year "b"`,
		},
		{
			name:    "duplicate year",
			yml:     "base_url: http://x\nlimit: 5\ncurrent_year: a\nhousing: [{year: a, dataset: x}, {year: a, dataset: z}]\nattendance: {dataset: y}\n",
			wantErr: "duplicate housing year",
		},
		{
			name:    "bad yaml",
			yml:     "base_url: [",
			wantErr: "error parsing catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHousingYearFile(t *testing.T) {
	assert.Equal(t, "housing_2019_20.csv", HousingYearFile("2019-20"))
}
