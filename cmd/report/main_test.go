package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mergedCSV = "dbn,school_name_housing,total_enrollment,n_students_temp_housing,pct_students_temp_housing,n_doubled_up,school_year,borough_housing,pct_chronically_absent\n" +
	"01M015,P.S. 015,180.0,58.0,32.2,28.0,2020-21,Manhattan,40.0\n" +
	"09X004,P.S. 004,420.0,131.0,31.2,51.0,2020-21,Bronx,36.6\n"

func TestRun(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "merged.csv"), []byte(mergedCSV), 0o644))
	out := filepath.Join(t.TempDir(), "report")

	require.NoError(t, run(dataDir, out, "", slog.New(slog.NewTextHandler(io.Discard, nil))))

	for _, name := range []string{"index.html", "scale.html", "gap.html", "housing-types.html"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
}

func TestRunWithoutData(t *testing.T) {
	err := run(t.TempDir(), t.TempDir(), "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
