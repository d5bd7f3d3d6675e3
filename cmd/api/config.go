package main

import (
	"flag"
	"os"
	"strings"

	"absenteeismgap.org/internal/app"
	"absenteeismgap.org/internal/appconf"
)

type options struct {
	config      app.Config
	logLevel    string
	fetchOnBoot bool
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// parseFlags reads the server configuration from args.
func parseFlags(args []string) (options, error) {
	var opts options
	var env, apiKeys string
	cfg := &opts.config

	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", 4000, "API server port")
	fs.StringVar(&env, "env", "development", "Environment (development|test|production)")
	fs.StringVar(&apiKeys, "api-keys", "test", "Comma separated API keys accepted by POST /api/refresh")
	fs.IntVar(&cfg.RateLimit, "rate-limit", 100, "Requests per second per client (0 disables)")
	fs.StringVar(&cfg.DataDir, "data-dir", "data", "Directory holding the fetched and merged flat files")
	fs.StringVar(&cfg.DBPath, "db", "data/schools.db", "SQLite path (:memory: for in-memory, empty to disable)")
	fs.StringVar(&cfg.CatalogPath, "catalog", "", "Dataset catalog YAML (embedded default when empty)")
	fs.StringVar(&cfg.AppToken, "app-token", os.Getenv("SOCRATA_APP_TOKEN"), "Socrata app token")
	fs.StringVar(&cfg.RefreshSchedule, "refresh-schedule", "", `Cron expression for rerunning fetch and merge, e.g. "@daily"`)
	fs.BoolVar(&cfg.Watch, "watch", true, "Reload when a merged file is rewritten")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	fs.BoolVar(&opts.fetchOnBoot, "fetch-on-boot", false, "Run fetch and merge at startup when no merged data exists")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	e, err := appconf.EnvFlagToEnvironment(env)
	if err != nil {
		return opts, err
	}
	cfg.Env = e
	cfg.ApiKeys = splitKeys(apiKeys)
	return opts, nil
}
