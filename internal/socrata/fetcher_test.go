package socrata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absenteeismgap.org/internal/table"
)

// fakeOpenData serves the default catalog's datasets with one row per year.
func fakeOpenData(t *testing.T, failing map[string]bool) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	housingYears := map[string]string{}
	for _, h := range DefaultCatalog().Housing {
		housingYears[h.Dataset] = h.Year
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/resource/"), ".json")
		if failing[id] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if year, ok := housingYears[id]; ok {
			fmt.Fprintf(w, `[{"dbn":"01M015","school_name":"P.S. 015 (%s)","total_students":"180"}]`, year)
			return
		}
		if id == "gqq2-hgxd" {
			where := r.URL.Query().Get("$where")
			year := strings.TrimSuffix(strings.TrimPrefix(strings.SplitN(where, " AND ", 2)[0], "year='"), "'")
			if failing[year] {
				http.Error(w, "boom", http.StatusBadGateway)
				return
			}
			fmt.Fprintf(w, `[{"dbn":"01M015","year":"%s","chronically_absent_1":"30.7%%"}]`, year)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestFetcher(baseURL string) *Fetcher {
	c := DefaultCatalog()
	c.BaseURL = baseURL
	return &Fetcher{
		Client:  NewClient(baseURL, "", quietLogger()),
		Catalog: c,
		Logger:  quietLogger(),
	}
}

func TestFetcherRun(t *testing.T) {
	server, calls := fakeOpenData(t, nil)
	dir := filepath.Join(t.TempDir(), "data")

	summary, err := newTestFetcher(server.URL).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, int32(8), calls.Load(), "one call per dataset-year")
	assert.Equal(t, Summary{
		"housing.csv":              1,
		"attendance.csv":           1,
		"housing_2017_18.csv":      1,
		"housing_2018_19.csv":      1,
		"housing_2019_20.csv":      1,
		"housing_all_years.csv":    4,
		"attendance_all_years.csv": 4,
	}, summary)

	housing, err := table.ReadFile(filepath.Join(dir, HousingFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"dbn", "school_name", "total_students", "school_year"}, housing.Header)
	assert.Equal(t, "2020-21", housing.Rows[0]["school_year"])

	all, err := table.ReadFile(filepath.Join(dir, HousingAllYearsFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"2017-18", "2018-19", "2019-20", "2020-21"}, all.Column("school_year"))

	attendance, err := table.ReadFile(filepath.Join(dir, AttendanceFile))
	require.NoError(t, err)
	assert.Equal(t, "2020-21", attendance.Rows[0]["year"])
	assert.Equal(t, "30.7%", attendance.Rows[0]["chronically_absent_1"])

	_, err = os.Stat(filepath.Join(dir, "housing_2020_21.csv"))
	assert.True(t, os.IsNotExist(err), "current year is written as housing.csv only")
}

func TestFetcherRunFailsOnAnyYear(t *testing.T) {
	tests := []struct {
		name    string
		failing map[string]bool
		want    string
	}{
		{"current housing", map[string]bool{"3wtp-43m9": true}, "housing year 2020-21"},
		{"historical housing", map[string]bool{"b22r-9izv": true}, "housing year 2017-18"},
		{"historical attendance", map[string]bool{"2018-19": true}, "attendance year 2018-19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := fakeOpenData(t, tt.failing)

			_, err := newTestFetcher(server.URL).Run(context.Background(), t.TempDir())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStatus)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFetcherRunReportsWriteFailures(t *testing.T) {
	server, _ := fakeOpenData(t, nil)
	dir := t.TempDir()
	// A directory where a flat file belongs makes the write fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, HousingFile), 0o755))

	summary, err := newTestFetcher(server.URL).Run(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing housing.csv")
	assert.NotContains(t, summary, HousingFile)
	assert.Equal(t, 1, summary[AttendanceFile], "remaining files are still written")
	assert.Equal(t, 4, summary[HousingAllYearsFile])
}

func TestFetcherRunCancelled(t *testing.T) {
	server, calls := fakeOpenData(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(server.URL).Run(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}
