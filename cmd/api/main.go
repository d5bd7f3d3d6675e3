package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"

	"absenteeismgap.org/internal/app"
	"absenteeismgap.org/internal/logging"
	"absenteeismgap.org/internal/restapi"
	"absenteeismgap.org/internal/schools"
	"absenteeismgap.org/internal/webui"
	"absenteeismgap.org/schooldb"
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)

	if err := run(opts, logger); err != nil {
		logging.LogError(logger, "server failed", err)
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) error {
	cfg := opts.config
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}

	application := &app.Application{Config: cfg, Logger: logger}

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	application.Pipeline = pipeline

	managerConfig := schools.Config{
		DataDir:         cfg.DataDir,
		Watch:           cfg.Watch,
		RefreshSchedule: cfg.RefreshSchedule,
		Refresh:         pipeline.Run,
		Logger:          logger,
	}
	if cfg.DBPath != "" {
		store, err := schooldb.NewClient(schooldb.NewConfig(cfg.DBPath, cfg.Env), logger)
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		defer logging.SafeCloseWithLogging(store, logger, "sqlite_store")
		application.Store = store
		managerConfig.OnLoad = store.ReplaceAll
	}

	manager, err := schools.NewManager(managerConfig)
	if err != nil {
		return err
	}
	defer manager.Shutdown()
	application.Schools = manager

	if opts.fetchOnBoot && len(manager.Years()) == 0 {
		if err := manager.Refresh(ctx); err != nil {
			logging.LogError(logger, "initial refresh failed", err)
		}
	}

	api := restapi.NewRestAPI(application)
	defer api.Shutdown()
	ui, err := webui.NewWebUI(application)
	if err != nil {
		return err
	}

	router := httprouter.New()
	api.SetRoutes(router)
	ui.SetWebUIRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(router),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Minute,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String(), "years", manager.Years())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
