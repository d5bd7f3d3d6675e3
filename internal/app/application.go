package app

import (
	"log/slog"

	"absenteeismgap.org/internal/appconf"
	"absenteeismgap.org/internal/schools"
	"absenteeismgap.org/schooldb"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config   Config
	Logger   *slog.Logger
	Schools  *schools.Manager
	Store    *schooldb.Client
	Pipeline *Pipeline
}

// Config holds all the configuration settings for our Application. The
// values are read from command-line flags when a binary starts.
type Config struct {
	Port    int
	Env     appconf.Environment
	ApiKeys []string
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit int

	DataDir     string
	DBPath      string
	CatalogPath string
	AppToken    string

	RefreshSchedule string
	Watch           bool
}
