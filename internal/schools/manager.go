package schools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron"

	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/merge"
	"absenteeismgap.org/internal/table"
)

var (
	// ErrNotLoaded is returned before any merged file has been loaded.
	ErrNotLoaded = errors.New("merged data not loaded")
	// ErrUnknownYear is returned for a school year with no merged rows.
	ErrUnknownYear = errors.New("unknown school year")
)

// UnlabelledYear is used for merged rows that carry no school year.
const UnlabelledYear = "current"

const reloadDebounce = 250 * time.Millisecond

// Config controls where the manager reads from and how it stays fresh.
type Config struct {
	DataDir string
	// Watch reloads when a merged file is rewritten.
	Watch bool
	// RefreshSchedule is a cron expression for rerunning the pipeline; empty disables it.
	RefreshSchedule string
	// Refresh regenerates the merged files, typically fetch followed by merge.
	Refresh func(ctx context.Context) error
	// OnLoad is called with every freshly loaded dataset.
	OnLoad func(ctx context.Context, data map[string][]School) error
	Logger *slog.Logger
}

// Manager memoizes the merged dataset for the life of the process.
type Manager struct {
	config Config

	mu          sync.RWMutex
	data        map[string][]School
	years       []string
	lastUpdated time.Time

	refreshMu    sync.Mutex
	watcher      *fsnotify.Watcher
	cron         *cron.Cron
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewManager loads whatever merged files exist and starts the optional
// watcher and refresh schedule. A missing merged file is not an error; the
// manager reports ErrNotLoaded until a later load succeeds.
func NewManager(config Config) (*Manager, error) {
	config.Logger = logging.ForComponent(config.Logger, logging.ComponentDatasetManager)
	m := &Manager{
		config:       config,
		shutdownChan: make(chan struct{}),
	}

	if err := m.Reload(context.Background()); err != nil && !errors.Is(err, ErrNotLoaded) {
		return nil, err
	}

	if config.Watch {
		if err := m.startWatcher(); err != nil {
			m.Shutdown()
			return nil, fmt.Errorf("error watching %s: %w", config.DataDir, err)
		}
	}

	if config.RefreshSchedule != "" {
		if config.Refresh == nil {
			m.Shutdown()
			return nil, errors.New("refresh schedule set without a refresh function")
		}
		m.cron = cron.New()
		err := m.cron.AddFunc(config.RefreshSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := m.Refresh(ctx); err != nil {
				logging.LogError(m.config.Logger, "scheduled refresh failed", err)
			}
		})
		if err != nil {
			m.Shutdown()
			return nil, fmt.Errorf("invalid refresh schedule %q: %w", config.RefreshSchedule, err)
		}
		m.cron.Start()
	}

	return m, nil
}

// Shutdown stops the watcher and the refresh schedule. Safe to call twice.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.shutdownChan)
		if m.cron != nil {
			m.cron.Stop()
		}
		if m.watcher != nil {
			logging.SafeCloseWithLogging(m.watcher, m.config.Logger, "close_watcher")
		}
		m.wg.Wait()
	})
}

// Refresh reruns the pipeline and reloads the result. Concurrent calls are
// serialized.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.config.Refresh == nil {
		return m.Reload(ctx)
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	start := time.Now()
	if err := m.config.Refresh(ctx); err != nil {
		return fmt.Errorf("error refreshing data: %w", err)
	}
	logging.LogOperation(m.config.Logger, "pipeline_refreshed",
		slog.Duration("duration", time.Since(start)))
	return m.Reload(ctx)
}

// Reload rereads the merged files from disk and swaps them in.
func (m *Manager) Reload(ctx context.Context) error {
	data, err := m.load()
	if err != nil {
		return err
	}

	if m.config.OnLoad != nil {
		if err := m.config.OnLoad(ctx, data); err != nil {
			logging.LogError(m.config.Logger, "dataset load hook failed", err)
		}
	}

	years := make([]string, 0, len(data))
	count := 0
	for y, s := range data {
		years = append(years, y)
		count += len(s)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))

	m.mu.Lock()
	m.data = data
	m.years = years
	m.lastUpdated = time.Now()
	m.mu.Unlock()

	logging.LogOperation(m.config.Logger, "dataset_loaded",
		slog.String("dir", m.config.DataDir),
		slog.Int("years", len(years)),
		slog.Int("schools", count))
	return nil
}

// load reads merged_all_years.csv, then overlays merged.csv for its year.
func (m *Manager) load() (map[string][]School, error) {
	data := map[string][]School{}
	found := false

	for _, name := range []string{merge.MergedAllYearsFile, merge.MergedFile} {
		path := filepath.Join(m.config.DataDir, name)
		t, err := table.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = true

		byYear := m.parse(t, name)
		for year, s := range byYear {
			data[year] = s
		}
	}

	if !found || len(data) == 0 {
		return nil, fmt.Errorf("%w: no merged file in %s", ErrNotLoaded, m.config.DataDir)
	}
	return data, nil
}

func (m *Manager) parse(t *table.Table, source string) map[string][]School {
	out := map[string][]School{}
	skipped := 0
	for _, row := range t.Rows {
		s, err := FromRow(row)
		if err != nil {
			skipped++
			continue
		}
		if s.Year == "" {
			s.Year = UnlabelledYear
		}
		out[s.Year] = append(out[s.Year], s)
	}
	if skipped > 0 {
		logging.LogOperation(m.config.Logger, "skipped_invalid_rows",
			slog.String("file", source),
			slog.Int("rows", skipped))
	}
	return out
}

// Years lists the loaded school years, latest first.
func (m *Manager) Years() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.years...)
}

// DefaultYear is the latest loaded year, or "" when nothing is loaded.
func (m *Manager) DefaultYear() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.years) == 0 {
		return ""
	}
	return m.years[0]
}

// Schools returns the schools for year; an empty year means DefaultYear.
// The returned slice must not be modified.
func (m *Manager) Schools(year string) ([]School, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return nil, ErrNotLoaded
	}
	if year == "" && len(m.years) > 0 {
		year = m.years[0]
	}
	s, ok := m.data[year]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownYear, year)
	}
	return s, nil
}

// Find looks up one school by DBN in a year.
func (m *Manager) Find(dbn, year string) (School, bool) {
	schools, err := m.Schools(year)
	if err != nil {
		return School{}, false
	}
	for _, s := range schools {
		if s.DBN == dbn {
			return s, true
		}
	}
	return School{}, false
}

// LastUpdated is when the dataset was last swapped in.
func (m *Manager) LastUpdated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUpdated
}

func (m *Manager) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.config.DataDir); err != nil {
		_ = watcher.Close()
		return err
	}
	m.watcher = watcher

	m.wg.Add(1)
	go m.watch()
	return nil
}

func isMergedFile(path string) bool {
	base := filepath.Base(path)
	return base == merge.MergedFile || base == merge.MergedAllYearsFile
}

// watch reloads once a burst of writes to a merged file has settled.
func (m *Manager) watch() {
	defer m.wg.Done()

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if !isMergedFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(reloadDebounce)
			}
		case <-pending:
			pending = nil
			if err := m.Reload(context.Background()); err != nil {
				logging.LogError(m.config.Logger, "failed to reload merged data", err)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logging.LogError(m.config.Logger, "file watcher error", err)
		case <-m.shutdownChan:
			return
		}
	}
}
