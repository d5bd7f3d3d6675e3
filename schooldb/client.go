// Package schooldb persists merged school records in SQLite so the dashboard
// can rank and aggregate them with SQL.
package schooldb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"absenteeismgap.org/internal/appconf"
	"absenteeismgap.org/internal/logging"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schema.sql
var ddl string

// ErrTestFileDB is returned when a test configuration points at a file.
var ErrTestFileDB = errors.New("test database must use in-memory storage")

// Client is the main entry point for the store
type Client struct {
	config Config
	DB     *sql.DB
	logger *slog.Logger
}

// NewClient opens the database and applies the schema
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.Env == appconf.Test && !config.inMemory() {
		return nil, fmt.Errorf("%w: got %s", ErrTestFileDB, config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if config.inMemory() {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := performDatabaseMigration(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return &Client{config: config, DB: db, logger: logging.ForComponent(logger, logging.ComponentSchoolStore)}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}
