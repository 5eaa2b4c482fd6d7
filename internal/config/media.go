package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvMediaFolder            = "AUTOLOT_MEDIA_FOLDER"
	EnvMediaMaxFiles          = "AUTOLOT_MEDIA_MAX_FILES"
	EnvMediaUploadConcurrency = "AUTOLOT_MEDIA_UPLOAD_CONCURRENCY"
	EnvMediaUploadTimeout     = "AUTOLOT_MEDIA_UPLOAD_TIMEOUT"
)

// MaxMediaFiles is the ceiling on images per listing.
const MaxMediaFiles = 5

// MediaConfig bounds image batches and controls where they are stored.
type MediaConfig struct {
	Folder            string `toml:"folder"`
	MaxFiles          int    `toml:"max_files"`
	UploadConcurrency int    `toml:"upload_concurrency"`
	UploadTimeout     string `toml:"upload_timeout"`
}

// UploadTimeoutDuration returns UploadTimeout as a time.Duration.
func (c *MediaConfig) UploadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.UploadTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *MediaConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *MediaConfig) Merge(overlay *MediaConfig) {
	if overlay.Folder != "" {
		c.Folder = overlay.Folder
	}
	if overlay.MaxFiles != 0 {
		c.MaxFiles = overlay.MaxFiles
	}
	if overlay.UploadConcurrency != 0 {
		c.UploadConcurrency = overlay.UploadConcurrency
	}
	if overlay.UploadTimeout != "" {
		c.UploadTimeout = overlay.UploadTimeout
	}
}

func (c *MediaConfig) loadDefaults() {
	if c.Folder == "" {
		c.Folder = "auto_pro_care"
	}
	if c.MaxFiles == 0 {
		c.MaxFiles = MaxMediaFiles
	}
	if c.UploadConcurrency == 0 {
		c.UploadConcurrency = 3
	}
	if c.UploadTimeout == "" {
		c.UploadTimeout = "60s"
	}
}

func (c *MediaConfig) loadEnv() {
	if v := os.Getenv(EnvMediaFolder); v != "" {
		c.Folder = v
	}
	if v := os.Getenv(EnvMediaMaxFiles); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxFiles = n
		}
	}
	if v := os.Getenv(EnvMediaUploadConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.UploadConcurrency = n
		}
	}
	if v := os.Getenv(EnvMediaUploadTimeout); v != "" {
		c.UploadTimeout = v
	}
}

func (c *MediaConfig) validate() error {
	if c.MaxFiles < 1 || c.MaxFiles > MaxMediaFiles {
		return fmt.Errorf("max_files must be between 1 and %d: %d", MaxMediaFiles, c.MaxFiles)
	}
	if c.UploadConcurrency < 1 {
		return fmt.Errorf("upload_concurrency must be at least 1: %d", c.UploadConcurrency)
	}
	d, err := time.ParseDuration(c.UploadTimeout)
	if err != nil {
		return fmt.Errorf("invalid upload_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("upload_timeout must be positive: %s", c.UploadTimeout)
	}
	return nil
}
