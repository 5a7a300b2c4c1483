package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

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

func main() {
	// .env is optional; real environment variables win either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: Failed to load .env: %v", err)
	}

	cfg := config.Default()
	fc, err := config.LoadConfigFile()
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
	if fc != nil {
		if err := fc.Apply(cfg); err != nil {
			log.Fatalf("Invalid config file: %v", err)
		}
	}

	dbPath := getEnv("DIRSCOUT_DB", "dirscout.db")
	log.Printf("Opening store: %s", dbPath)
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	fetcher := fetch.NewClient(cfg)
	searcher := dirscout.NewHTMLSearcher(cfg.UserAgent)
	service := dirscout.NewService(st, fetcher, searcher, cfg)

	server := dirscout.NewAPIServer(service, st)
	router := server.SetupRouter()

	addr := getEnv("DIRSCOUT_ADDR", "localhost:8080")
	log.Printf("Starting dirscout API server on http://%s/api/v1", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
