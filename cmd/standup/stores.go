package main

import (
	"github.com/alfredjeanlab/standup/internal/config"
	"github.com/alfredjeanlab/standup/internal/store"
	"github.com/alfredjeanlab/standup/internal/store/postgres"
	"github.com/alfredjeanlab/standup/internal/store/sqlite"
)

// openStore opens Postgres when database.url is set and SQLite otherwise.
// The result is safe for concurrent use.
func openStore(cfg *config.Config) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	if cfg.Database.URL != "" {
		s, err = postgres.New(cfg.Database.URL)
	} else {
		s, err = sqlite.Open(cfg.Database.Path)
	}
	if err != nil {
		return nil, err
	}
	return store.NewSynchronized(s), nil
}

// loadConfig reads --config and applies its log level unless --log-level was
// given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		if _, err := newLogger(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
