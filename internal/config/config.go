// Package config loads service configuration from config.toml, an optional
// environment overlay, a .env file, and AUTOLOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/JaimeStill/autolot/pkg/database"
	"github.com/JaimeStill/autolot/pkg/dynamo"
	"github.com/JaimeStill/autolot/pkg/mongodb"
	"github.com/JaimeStill/autolot/pkg/storage"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvAutolotEnv             = "AUTOLOT_ENV"
	EnvAutolotShutdownTimeout = "AUTOLOT_SHUTDOWN_TIMEOUT"
	EnvAutolotVersion         = "AUTOLOT_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "AUTOLOT_DB_URL",
	MaxOpenConns:    "AUTOLOT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "AUTOLOT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "AUTOLOT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "AUTOLOT_DB_CONN_TIMEOUT",
}

var mongoEnv = &mongodb.Env{
	URI:         "AUTOLOT_MONGO_URI",
	Database:    "AUTOLOT_MONGO_DATABASE",
	ConnTimeout: "AUTOLOT_MONGO_CONN_TIMEOUT",
}

var dynamoEnv = &dynamo.Env{
	Region:      "AUTOLOT_DYNAMO_REGION",
	Endpoint:    "AUTOLOT_DYNAMO_ENDPOINT",
	Table:       "AUTOLOT_DYNAMO_TABLE",
	ConnTimeout: "AUTOLOT_DYNAMO_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "AUTOLOT_STORAGE_CONTAINER_NAME",
	ConnectionString: "AUTOLOT_STORAGE_CONNECTION_STRING",
	PublicBaseURL:    "AUTOLOT_STORAGE_PUBLIC_BASE_URL",
}

// Config is the root configuration for the autolot service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Logging         LoggingConfig   `toml:"logging"`
	Store           StoreConfig     `toml:"store"`
	Database        database.Config `toml:"database"`
	Mongo           mongodb.Config  `toml:"mongo"`
	Dynamo          dynamo.Config   `toml:"dynamo"`
	Storage         storage.Config  `toml:"storage"`
	Media           MediaConfig     `toml:"media"`
	Auth            AuthConfig      `toml:"auth"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the AUTOLOT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAutolotEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads .env (if present), the base config (if present), applies any
// environment overlay, and finalizes all values. Variables already set in the
// process environment take precedence over .env entries.
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.Store.Merge(&overlay.Store)
	c.Database.Merge(&overlay.Database)
	c.Mongo.Merge(&overlay.Mongo)
	c.Dynamo.Merge(&overlay.Dynamo)
	c.Storage.Merge(&overlay.Storage)
	c.Media.Merge(&overlay.Media)
	c.Auth.Merge(&overlay.Auth)
	c.API.Merge(&overlay.API)
}

// finalize only validates the section of the selected record store backend,
// so a postgres deployment never needs mongo or dynamo settings.
func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Store.Finalize(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	switch c.Store.Backend {
	case BackendPostgres:
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	case BackendMongo:
		if err := c.Mongo.Finalize(mongoEnv); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	case BackendDynamo:
		if err := c.Dynamo.Finalize(dynamoEnv); err != nil {
			return fmt.Errorf("dynamo: %w", err)
		}
	}

	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Media.Finalize(); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	if err := c.Auth.Finalize(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAutolotShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAutolotVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAutolotEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
