package main

import (
	"fmt"
	"os"

	"github.com/pevans/dirscout"
	"github.com/pevans/dirscout/config"
	"github.com/pevans/dirscout/fetch"
	"github.com/pevans/dirscout/store"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadConfig builds the effective configuration: defaults overlaid with the
// YAML config file, if one exists.
func loadConfig() *config.Config {
	cfg := config.Default()

	var fc *config.FileConfig
	var err error
	if path := os.Getenv("DIRSCOUT_CONFIG"); path != "" {
		fc, err = config.LoadConfigFileFrom(path)
	} else {
		fc, err = config.LoadConfigFile()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read config file: %v\n", err)
		os.Exit(1)
	}
	if fc != nil {
		if err := fc.Apply(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid config file: %v\n", err)
			os.Exit(1)
		}
	}

	return cfg
}

// openStore opens the SQLite store at the configured path.
func openStore() *store.Store {
	dbPath := getEnv("DIRSCOUT_DB", "dirscout.db")

	st, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open store %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	return st
}

// openService wires the full pipeline over the configured store.
func openService() (*dirscout.Service, *store.Store) {
	cfg := loadConfig()
	st := openStore()

	fetcher := fetch.NewClient(cfg)
	searcher := dirscout.NewHTMLSearcher(cfg.UserAgent)

	return dirscout.NewService(st, fetcher, searcher, cfg), st
}
