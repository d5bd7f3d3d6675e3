package restapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"absenteeismgap.org/internal/export"
)

func TestYearsHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/years.json")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, http.StatusOK, model.Code)
	assert.Equal(t, 2, model.Version)

	data := model.Data.(map[string]interface{})
	assert.Equal(t, []interface{}{"2020-21", "2019-20"}, data["years"])
	assert.Equal(t, "2020-21", data["default"])
	assert.NotZero(t, data["lastUpdated"])
}

func TestSummaryHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/summary.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entry := entryOf(t, model)
	assert.Equal(t, "2020-21", entry["year"])

	metrics := entry["metrics"].(map[string]interface{})
	assert.Equal(t, float64(3), metrics["totalSchools"])
	assert.Equal(t, float64(234), metrics["studentsInTempHousing"])

	formatted := entry["formatted"].(map[string]interface{})
	assert.Equal(t, "22.8%", formatted["citywideAverage"])

	boroughs := entry["boroughs"].([]interface{})
	require.Len(t, boroughs, 3)
	assert.Equal(t, "Bronx", boroughs[0].(map[string]interface{})["borough"], "largest total first")

	trend := entry["trend"].(map[string]interface{})
	assert.Equal(t, float64(3), trend["n"])

	refs := referencesOf(t, model)
	assert.Len(t, refs["boroughs"], 3)
	assert.Equal(t, []interface{}{"2020-21", "2019-20"}, refs["years"])
}

func TestSummaryHandlerForYear(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/summary.json?year=2019-20")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entry := entryOf(t, model)
	assert.Equal(t, "2019-20", entry["year"])
	assert.Equal(t, float64(1), entry["metrics"].(map[string]interface{})["totalSchools"])
	assert.Nil(t, entry["trend"], "a single school has no trendline")
}

func TestSummaryHandlerErrors(t *testing.T) {
	api := createTestApi(t, testOptions{})

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/summary.json?year=1999-00")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "resource not found", model.Text)

	resp, body := retrieveRaw(t, api, http.MethodGet, "/api/summary.json?year=2020")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	fieldErrors := body["fieldErrors"].(map[string]interface{})
	assert.Contains(t, fieldErrors, "year")
}

func TestNotLoaded(t *testing.T) {
	api := createTestApi(t, testOptions{empty: true})

	for _, endpoint := range []string{"/api/years.json", "/api/summary.json", "/api/charts/gap.json", "/api/export.xlsx"} {
		t.Run(endpoint, func(t *testing.T) {
			resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
			assert.Equal(t, http.StatusServiceUnavailable, model.Code)
		})
	}
}

func TestChartHandler(t *testing.T) {
	api := createTestApi(t, testOptions{})

	for _, name := range []string{"scale", "gap", "housing-types"} {
		t.Run(name, func(t *testing.T) {
			resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/charts/"+name+".json")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			fig := entryOf(t, model)
			assert.Contains(t, fig, "data")
			assert.Contains(t, fig, "layout")
			assert.NotEmpty(t, fig["data"])
		})
	}

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/charts/pie.json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "resource not found", model.Text)
}

func TestTopSchoolsHandler(t *testing.T) {
	for _, withStore := range []bool{false, true} {
		name := "memory"
		if withStore {
			name = "sqlite"
		}
		t.Run(name, func(t *testing.T) {
			api := createTestApi(t, testOptions{store: withStore})

			resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/top-schools.json")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			list := listOf(t, model)
			require.Len(t, list, 3)
			first := list[0].(map[string]interface{})
			assert.Equal(t, float64(1), first["rank"])
			assert.Equal(t, "01M015", first["dbn"])
			assert.Equal(t, "09X004", list[1].(map[string]interface{})["dbn"])
			assert.Equal(t, "31R080", list[2].(map[string]interface{})["dbn"])

			resp, model = serveApiAndRetrieveEndpoint(t, api, "/api/top-schools.json?limit=1&year=2019-20")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			list = listOf(t, model)
			require.Len(t, list, 1)
			assert.Equal(t, 31.6, list[0].(map[string]interface{})["pctTempHousing"])
		})
	}
}

func TestTopSchoolsHandlerStoreNotLoaded(t *testing.T) {
	api := createTestApi(t, testOptions{storeLoadFails: true})

	counts, err := api.Store.TableCounts(context.Background())
	require.NoError(t, err)
	require.Zero(t, counts["schools"])

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/top-schools.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := listOf(t, model)
	require.Len(t, list, 3)
	assert.Equal(t, "01M015", list[0].(map[string]interface{})["dbn"])

	resp, model = serveApiAndRetrieveEndpoint(t, api, "/api/school/01M015")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, referencesOf(t, model)["history"], 2)
}

func TestTopSchoolsHandlerValidation(t *testing.T) {
	api := createTestApi(t, testOptions{})

	for _, query := range []string{"limit=0", "limit=abc", "limit=1000"} {
		t.Run(query, func(t *testing.T) {
			resp, body := retrieveRaw(t, api, http.MethodGet, "/api/top-schools.json?"+query)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body["fieldErrors"], "limit")
		})
	}
}

func TestSchoolHandler(t *testing.T) {
	for _, withStore := range []bool{false, true} {
		api := createTestApi(t, testOptions{store: withStore})

		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/school/01M015.json")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		entry := entryOf(t, model)
		assert.Equal(t, "01M015", entry["dbn"])
		assert.Equal(t, "2020-21", entry["year"])
		assert.Equal(t, "Manhattan", entry["borough"])

		history := referencesOf(t, model)["history"].([]interface{})
		assert.Len(t, history, 2, "store=%v", withStore)

		resp, model = serveApiAndRetrieveEndpoint(t, api, "/api/school/01M015?year=2019-20")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 31.6, entryOf(t, model)["pctTempHousing"])
	}
}

func TestSchoolHandlerErrors(t *testing.T) {
	api := createTestApi(t, testOptions{})

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/school/02M999.json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "resource not found", model.Text)

	resp, body := retrieveRaw(t, api, http.MethodGet, "/api/school/not-a-dbn")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["fieldErrors"], "dbn")
}

func TestExportHandler(t *testing.T) {
	api := createTestApi(t, testOptions{})
	server := newTestServer(t, api)

	resp, err := http.Get(server.URL + "/api/export.xlsx?year=2020-21")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "absenteeism_gap_2020_21.xlsx")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(export.SheetMerged)
	require.NoError(t, err)
	assert.Len(t, rows, 4, "header plus three schools")
}

func TestRefreshHandler(t *testing.T) {
	api := createTestApi(t, testOptions{})

	resp, body := retrieveRaw(t, api, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "permission denied", body["text"])
	assert.Equal(t, float64(1), body["version"])

	resp, body = retrieveRaw(t, api, http.MethodPost, "/api/refresh?key="+testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"2020-21", "2019-20"}, data["years"])
}

func TestRouting(t *testing.T) {
	api := createTestApi(t, testOptions{})

	resp, body := retrieveRaw(t, api, http.MethodGet, "/api/nope.json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "resource not found", body["text"])

	resp, body = retrieveRaw(t, api, http.MethodGet, "/api/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, float64(http.StatusMethodNotAllowed), body["code"])
}
