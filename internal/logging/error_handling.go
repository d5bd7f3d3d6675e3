package logging

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Components tagged on every log line a subsystem emits.
const (
	ComponentOpenData       = "open_data"
	ComponentMerge          = "merge"
	ComponentPipeline       = "pipeline"
	ComponentDatasetManager = "dataset_manager"
	ComponentSchoolStore    = "school_store"
	ComponentHTTPServer     = "http_server"
)

// ForComponent returns logger tagged with component. A nil logger yields the
// default logger so constructors can accept an unset one.
func ForComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", component))
}

// SafeCloseWithLogging closes a file, response body, sqlite handle or
// watcher from a defer and logs a failure. Closing twice is not a failure.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, operation string) {
	if closer == nil {
		return
	}

	err := closer.Close()
	if err == nil || errors.Is(err, os.ErrClosed) {
		return
	}
	LogError(logger, "failed to close resource", err, slog.String("operation", operation))
}

// SafeRollbackWithLogging undoes a school_store transaction from a defer.
// After a successful Commit the rollback reports sql.ErrTxDone, which is
// dropped.
func SafeRollbackWithLogging(tx interface{ Rollback() error }, logger *slog.Logger, operation string) {
	if tx == nil {
		return
	}

	err := tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return
	}
	LogError(logger, "failed to rollback transaction", err, slog.String("operation", operation))
}

// HandleDeferredError runs a deferred step such as closing a flat file that
// was written, and folds its failure into *originalErr when nothing failed
// before it. A CSV whose Close fails is not fully on disk.
func HandleDeferredError(originalErr *error, deferredOp func() error, logger *slog.Logger, operation string) {
	if deferredOp == nil {
		return
	}

	err := deferredOp()
	if err == nil {
		return
	}
	LogError(logger, "deferred operation failed", err, slog.String("operation", operation))
	if *originalErr == nil {
		*originalErr = fmt.Errorf("%s: %w", operation, err)
	}
}
