package schooldb

import "absenteeismgap.org/internal/appconf"

// Config holds configuration options for the Client
type Config struct {
	DBPath string // Path to SQLite database file, or ":memory:"
	Env    appconf.Environment
}

func NewConfig(dbPath string, env appconf.Environment) Config {
	return Config{
		DBPath: dbPath,
		Env:    env,
	}
}

func (c Config) inMemory() bool {
	return c.DBPath == ":memory:"
}
