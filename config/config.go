package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Target site
	SearchURL      string
	FetchBlockTime time.Duration

	// Storage
	DatabasePath string

	// Memcache configuration (fetch block cache)
	MemcacheAddr string

	// Redis configuration (listing event streams)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// External collaborators
	TomTomAPIKey     string
	ProductionAPIURL string

	// Worker pacing
	CycleInterval   time.Duration
	ListingDelayMin time.Duration
	ListingDelayMax time.Duration
	EnrichDelayMin  time.Duration
	EnrichDelayMax  time.Duration
	UpdateDelayMin  time.Duration
	UpdateDelayMax  time.Duration
	GeocodeDelay    time.Duration

	// API server
	ListenAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	cycleInterval, _ := strconv.Atoi(getEnv("CYCLE_INTERVAL_SECONDS", "3600"))
	blockTime, _ := strconv.Atoi(getEnv("FETCH_BLOCK_SECONDS", "300"))

	return Config{
		SearchURL:      getEnv("SEARCH_URL", "https://sfbay.craigslist.org/search/sfc/apa#search=2~gallery~0"),
		FetchBlockTime: time.Duration(blockTime) * time.Second,

		DatabasePath: getEnv("DB_PATH", "listings.db"),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", "localhost:11211"),

		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "listing-events"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,

		TomTomAPIKey:     getEnv("TOMTOM_API_KEY", ""),
		ProductionAPIURL: getEnv("PRODUCTION_API_URL", ""),

		CycleInterval:   time.Duration(cycleInterval) * time.Second,
		ListingDelayMin: getEnvMillis("LISTING_DELAY_MIN_MS", 0),
		ListingDelayMax: getEnvMillis("LISTING_DELAY_MAX_MS", 1500),
		EnrichDelayMin:  getEnvMillis("ENRICH_DELAY_MIN_MS", 0),
		EnrichDelayMax:  getEnvMillis("ENRICH_DELAY_MAX_MS", 1500),
		UpdateDelayMin:  getEnvMillis("UPDATE_DELAY_MIN_MS", 1500),
		UpdateDelayMax:  getEnvMillis("UPDATE_DELAY_MAX_MS", 3000),
		GeocodeDelay:    getEnvMillis("GEOCODE_DELAY_MS", 200),

		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		Environment: getEnv("RENTAL_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the worker cannot run with
func (c *Config) Validate() error {
	if c.SearchURL == "" {
		return fmt.Errorf("SEARCH_URL must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.CycleInterval <= 0 {
		return fmt.Errorf("CYCLE_INTERVAL_SECONDS must be positive")
	}
	if c.ListingDelayMax < c.ListingDelayMin {
		return fmt.Errorf("listing delay range is inverted")
	}
	if c.EnrichDelayMax < c.EnrichDelayMin {
		return fmt.Errorf("enrich delay range is inverted")
	}
	if c.UpdateDelayMax < c.UpdateDelayMin {
		return fmt.Errorf("update delay range is inverted")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvMillis reads a millisecond duration from the environment
func getEnvMillis(key string, defaultMillis int) time.Duration {
	ms, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultMillis)))
	if err != nil {
		ms = defaultMillis
	}
	return time.Duration(ms) * time.Millisecond
}
