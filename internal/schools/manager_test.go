package schools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "merged.csv", mergedCurrent)

	m, err := NewManager(Config{DataDir: dir, Logger: testLogger()})
	require.NoError(t, err)
	defer m.Shutdown()

	assert.Equal(t, []string{"2020-21"}, m.Years())
	assert.Equal(t, "2020-21", m.DefaultYear())
	assert.False(t, m.LastUpdated().IsZero())

	schools, err := m.Schools("")
	require.NoError(t, err)
	assert.Len(t, schools, 3)

	// Later reads come from memory, not from disk.
	writeFile(t, dir, "merged.csv", mergedHeader)
	schools, err = m.Schools("2020-21")
	require.NoError(t, err)
	assert.Len(t, schools, 3)

	s, ok := m.Find("09X004", "2020-21")
	require.True(t, ok)
	assert.Equal(t, "Bronx", s.Borough)

	_, ok = m.Find("99X999", "2020-21")
	assert.False(t, ok)

	_, err = m.Schools("1999-00")
	assert.ErrorIs(t, err, ErrUnknownYear)
}

func TestManagerMergesAllYears(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "merged.csv", mergedCurrent)
	writeFile(t, dir, "merged_all_years.csv", mergedAllYears)

	m, err := NewManager(Config{DataDir: dir, Logger: testLogger()})
	require.NoError(t, err)
	defer m.Shutdown()

	assert.Equal(t, []string{"2020-21", "2019-20"}, m.Years())

	// merged.csv wins for its own year.
	current, err := m.Schools("2020-21")
	require.NoError(t, err)
	assert.Len(t, current, 3)

	s, ok := m.Find("01M015", "2019-20")
	require.True(t, ok)
	assert.Equal(t, 35.5, s.PctChronicallyAbsent)
}

func TestManagerWithoutData(t *testing.T) {
	m, err := NewManager(Config{DataDir: t.TempDir(), Logger: testLogger()})
	require.NoError(t, err)
	defer m.Shutdown()

	_, err = m.Schools("")
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Empty(t, m.Years())
	assert.Equal(t, "", m.DefaultYear())
	assert.True(t, m.LastUpdated().IsZero())
}

func TestManagerRefresh(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32
	var loaded atomic.Int32

	m, err := NewManager(Config{
		DataDir: dir,
		Logger:  testLogger(),
		Refresh: func(ctx context.Context) error {
			runs.Add(1)
			writeFile(t, dir, "merged.csv", mergedCurrent)
			return nil
		},
		OnLoad: func(ctx context.Context, data map[string][]School) error {
			loaded.Add(1)
			return nil
		},
	})
	require.NoError(t, err)
	defer m.Shutdown()

	require.NoError(t, m.Refresh(context.Background()))
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(1), loaded.Load())
	assert.Equal(t, []string{"2020-21"}, m.Years())
}

func TestManagerRefreshError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "merged.csv", mergedCurrent)

	m, err := NewManager(Config{
		DataDir: dir,
		Logger:  testLogger(),
		Refresh: func(ctx context.Context) error { return errors.New("socrata down") },
	})
	require.NoError(t, err)
	defer m.Shutdown()

	err = m.Refresh(context.Background())
	assert.ErrorContains(t, err, "socrata down")

	schools, err := m.Schools("")
	require.NoError(t, err)
	assert.Len(t, schools, 3, "previous data stays in place")
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "merged.csv", mergedCurrent)

	m, err := NewManager(Config{DataDir: dir, Watch: true, Logger: testLogger()})
	require.NoError(t, err)
	defer m.Shutdown()

	writeFile(t, dir, "merged_all_years.csv", mergedAllYears)

	assert.Eventually(t, func() bool {
		return len(m.Years()) == 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestManagerSchedule(t *testing.T) {
	t.Run("invalid cron expression", func(t *testing.T) {
		_, err := NewManager(Config{
			DataDir:         t.TempDir(),
			RefreshSchedule: "every now and then",
			Refresh:         func(ctx context.Context) error { return nil },
			Logger:          testLogger(),
		})
		assert.ErrorContains(t, err, "invalid refresh schedule")
	})

	t.Run("missing refresh func", func(t *testing.T) {
		_, err := NewManager(Config{DataDir: t.TempDir(), RefreshSchedule: "@daily", Logger: testLogger()})
		assert.Error(t, err)
	})

	t.Run("runs on schedule", func(t *testing.T) {
		dir := t.TempDir()
		var runs atomic.Int32
		m, err := NewManager(Config{
			DataDir:         dir,
			RefreshSchedule: "@every 1s",
			Refresh: func(ctx context.Context) error {
				runs.Add(1)
				writeFile(t, dir, "merged.csv", mergedCurrent)
				return nil
			},
			Logger: testLogger(),
		})
		require.NoError(t, err)
		defer m.Shutdown()

		assert.Eventually(t, func() bool {
			return runs.Load() > 0 && m.DefaultYear() == "2020-21"
		}, 5*time.Second, 100*time.Millisecond)
	})
}

func TestManagerShutdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "merged.csv", mergedCurrent)

	m, err := NewManager(Config{DataDir: dir, Watch: true, RefreshSchedule: "@hourly", Refresh: func(ctx context.Context) error { return nil }, Logger: testLogger()})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		m.Shutdown()
		m.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown took too long")
	}
}
