package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"

	"absenteeismgap.org/internal/app"
	"absenteeismgap.org/internal/appconf"
	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/models"
	"absenteeismgap.org/internal/schools"
	"absenteeismgap.org/schooldb"
)

const mergedHeader = "dbn,school_name_housing,total_enrollment,n_students_temp_housing,pct_students_temp_housing,n_students_in_shelter,n_dhs_shelter,n_non_dhs_shelter,n_doubled_up,school_year,borough_housing,school_name_attendance,year,attendance,n_chronically_absent,pct_chronically_absent,borough_attendance\n"

const mergedCurrent = mergedHeader +
	"01M015,P.S. 015 Roberto Clemente,180.0,58.0,32.2,30.0,25.0,5.0,28.0,2020-21,Manhattan,P.S. 015,2020-21,90.0,70.0,40.0,Manhattan\n" +
	"09X004,P.S. 004 Crotona Park West,420.0,131.0,31.2,80.0,70.0,10.0,51.0,2020-21,Bronx,P.S. 004,2020-21,86.7,150.0,36.6,Bronx\n" +
	"31R080,I.S. 080 Peter Minuit,900.0,45.0,5.0,,,,40.0,2020-21,Staten Island,I.S. 080,2020-21,93.1,120.0,13.6,Staten Island\n"

const mergedAllYears = mergedHeader +
	"01M015,P.S. 015 Roberto Clemente,190.0,60.0,31.6,30.0,25.0,5.0,30.0,2019-20,Manhattan,P.S. 015,2019-20,91.0,60.0,35.5,Manhattan\n"

const testAPIKey = "TEST"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testOptions struct {
	empty bool
	store bool
	// storeLoadFails configures a store whose OnLoad always errors, leaving
	// it empty.
	storeLoadFails bool
	rateLimit      int
}

// createTestApi builds an API over a temp data dir holding the merged fixtures.
func createTestApi(t *testing.T, opts testOptions) *RestAPI {
	t.Helper()
	dir := t.TempDir()
	if !opts.empty {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "merged.csv"), []byte(mergedCurrent), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "merged_all_years.csv"), []byte(mergedAllYears), 0o644))
	}

	application := &app.Application{
		Config: app.Config{
			Env:       appconf.Test,
			ApiKeys:   []string{testAPIKey},
			RateLimit: opts.rateLimit,
			DataDir:   dir,
		},
		Logger: quietLogger(),
	}

	managerConfig := schools.Config{DataDir: dir, Logger: application.Logger}
	if opts.store || opts.storeLoadFails {
		store, err := schooldb.NewClient(schooldb.NewConfig(":memory:", appconf.Test), application.Logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		application.Store = store
		managerConfig.OnLoad = store.ReplaceAll
		if opts.storeLoadFails {
			managerConfig.OnLoad = func(context.Context, map[string][]schools.School) error {
				return errors.New("disk I/O error")
			}
		}
	}

	manager, err := schools.NewManager(managerConfig)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)
	application.Schools = manager

	api := NewRestAPI(application)
	t.Cleanup(api.Shutdown)
	return api
}

func newTestServer(t *testing.T, api *RestAPI) *httptest.Server {
	t.Helper()
	router := httprouter.New()
	api.SetRoutes(router)
	server := httptest.NewServer(api.Handler(router))
	t.Cleanup(server.Close)
	return server
}

// serveAndRetrieveEndpoint sets up a test server, makes a request to the specified endpoint, and returns the response
// and decoded model.
func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	api := createTestApi(t, testOptions{})
	resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
	return api, resp, model
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	server := newTestServer(t, api)
	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	var response models.ResponseModel
	err = json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)

	return resp, response
}

// retrieveRaw decodes any JSON body, including fieldErrors responses.
func retrieveRaw(t *testing.T, api *RestAPI, method, endpoint string) (*http.Response, map[string]interface{}) {
	t.Helper()
	server := newTestServer(t, api)
	req, err := http.NewRequest(method, server.URL+endpoint, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	entry, ok := data["entry"].(map[string]interface{})
	require.True(t, ok, "data.entry should be an object")
	return entry
}

func listOf(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	list, ok := data["list"].([]interface{})
	require.True(t, ok, "data.list should be an array")
	return list
}

func referencesOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data := model.Data.(map[string]interface{})
	refs, ok := data["references"].(map[string]interface{})
	require.True(t, ok, "data.references should be an object")
	return refs
}
