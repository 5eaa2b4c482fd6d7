package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/autolot/pkg/formatting"
	"github.com/JaimeStill/autolot/pkg/middleware"
)

const (
	EnvAPIBasePath      = "AUTOLOT_API_BASE_PATH"
	EnvAPIMaxUploadSize = "AUTOLOT_API_MAX_UPLOAD_SIZE"

	defaultMaxUploadSize = 25 * 1024 * 1024
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "AUTOLOT_CORS_ENABLED",
	Origins:          "AUTOLOT_CORS_ORIGINS",
	AllowedMethods:   "AUTOLOT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "AUTOLOT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "AUTOLOT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "AUTOLOT_CORS_MAX_AGE",
}

// DefaultCORSOrigins are the storefront origins allowed when none are configured.
var DefaultCORSOrigins = []string{
	"https://carcare.netlify.app",
	"http://localhost:3000",
}

// APIConfig holds API routing, upload limits, and CORS settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return defaultMaxUploadSize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
}

// CORS is enabled with the storefront origins unless the config names its own.
func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "25MB"
	}
	if c.CORS.Origins == nil {
		c.CORS.Enabled = true
		c.CORS.Origins = append([]string(nil), DefaultCORSOrigins...)
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive: %s", c.MaxUploadSize)
	}
	return nil
}
