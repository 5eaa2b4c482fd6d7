package config

import (
	"fmt"
	"os"
	"time"
)

// Record store backends.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongodb"
	BackendDynamo   = "dynamodb"
)

const (
	EnvStoreBackend = "AUTOLOT_STORE_BACKEND"
	EnvStoreTimeout = "AUTOLOT_STORE_TIMEOUT"
)

// StoreConfig selects the record store backend and bounds each store call.
type StoreConfig struct {
	Backend string `toml:"backend"`
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *StoreConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *StoreConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *StoreConfig) Merge(overlay *StoreConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *StoreConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendPostgres
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
}

func (c *StoreConfig) loadEnv() {
	if v := os.Getenv(EnvStoreBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvStoreTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *StoreConfig) validate() error {
	switch c.Backend {
	case BackendPostgres, BackendMongo, BackendDynamo:
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}
	return nil
}
