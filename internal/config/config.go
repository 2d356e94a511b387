package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig carries everything the process needs to run.
type AppConfig struct {
	// Mode selects the logger profile ("dev" or "prod").
	Mode string

	// DBPath is the sqlite database file.
	DBPath string

	// FuelMixURL is the grid operator's fuel-mix feed endpoint. Empty means
	// the built-in default.
	FuelMixURL string

	// HTTPTimeout bounds outbound feed requests.
	HTTPTimeout time.Duration

	// FetchInterval controls how often the feed is polled.
	FetchInterval time.Duration

	// ChartDir is where rendered chart images are written.
	ChartDir string

	Port string
}

// Load reads configuration from environment with sensible defaults. A .env
// file is honored when present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.Mode = getenvDefault("APP_MODE", "dev")
	cfg.DBPath = getenvDefault("DB_PATH", "data/gridmix.db")
	cfg.FuelMixURL = os.Getenv("FUEL_MIX_URL")
	cfg.ChartDir = getenvDefault("CHART_DIR", "out")
	cfg.Port = getenvDefault("PORT", "8080")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "15s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Poll interval: default 5 minutes, matching the feed's publish cadence.
	intervalStr := getenvDefault("FETCH_INTERVAL", "5m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
