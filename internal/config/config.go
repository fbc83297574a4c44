package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	WeatherAPIKey string

	// DBPath is the sqlite database file.
	DBPath string

	// SyncInterval is the staleness threshold: a farm checked within this
	// window is Fresh, beyond it Stale.
	SyncInterval time.Duration

	// SweepInterval controls the background stale-farm job.
	SweepInterval time.Duration

	// HistoryDays is how many recent days a new location primes.
	HistoryDays int

	// HTTPTimeout applies to outbound provider calls.
	HTTPTimeout time.Duration

	// MarketSeed reproduces a market when non-zero; zero seeds from the
	// clock.
	MarketSeed int64

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.DBPath = getenvDefault("DB_PATH", "berryfarm.db")
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.HistoryDays = getenvInt("LOCATION_HISTORY_DAYS", 7)
	cfg.MarketSeed = int64(getenvInt("MARKET_SEED", 0))

	var err error
	if cfg.SyncInterval, err = getenvDuration("SYNC_INTERVAL", "10m"); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getenvDuration("SWEEP_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
