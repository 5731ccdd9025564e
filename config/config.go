package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	// HTTP configuration
	HTTPAddr string

	// Competition configuration
	TotalDays       int
	StartingBalance decimal.Decimal

	// Scheduler defaults, used until an admin configures the timer
	DefaultIntervalMinutes int

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  10,
		DBMinConns:  2,

		// HTTP
		HTTPAddr: os.Getenv("HTTP_ADDR"),

		// Competition settings with defaults
		TotalDays:              10,
		StartingBalance:        decimal.NewFromInt(10000000),
		DefaultIntervalMinutes: 60,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.HTTPAddr == "" {
		config.HTTPAddr = ":8080"
	}

	// Override defaults if environment variables are set
	if days := os.Getenv("TOTAL_DAYS"); days != "" {
		if parsedDays, err := strconv.Atoi(days); err == nil && parsedDays > 0 {
			config.TotalDays = parsedDays
		}
	}
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := decimal.NewFromString(balance); err == nil && parsedBalance.IsPositive() {
			config.StartingBalance = parsedBalance
		}
	}
	if maxConns := os.Getenv("DB_MAX_CONNS"); maxConns != "" {
		if parsed, err := strconv.Atoi(maxConns); err == nil && parsed > 0 {
			config.DBMaxConns = parsed
		}
	}
	if minConns := os.Getenv("DB_MIN_CONNS"); minConns != "" {
		if parsed, err := strconv.Atoi(minConns); err == nil && parsed > 0 {
			config.DBMinConns = parsed
		}
	}
	if interval := os.Getenv("DEFAULT_INTERVAL_MINUTES"); interval != "" {
		if parsedInterval, err := strconv.Atoi(interval); err == nil && parsedInterval > 0 {
			config.DefaultIntervalMinutes = parsedInterval
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
