package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Each auth setting reads its AUTOLOT_ variable first, then the unprefixed
// name used by existing deployments.
var (
	EnvAuthUsername     = []string{"AUTOLOT_ADMIN_USERNAME", "ADMIN_USERNAME"}
	EnvAuthPassword     = []string{"AUTOLOT_ADMIN_PASSWORD", "ADMIN_PASSWORD"}
	EnvAuthPasswordHash = []string{"AUTOLOT_ADMIN_PASSWORD_HASH"}
	EnvAuthJWTSecret    = []string{"AUTOLOT_JWT_SECRET", "JWT_SECRET"}
	EnvAuthTokenTTL     = []string{"AUTOLOT_AUTH_TOKEN_TTL"}
	EnvAuthIssuer       = []string{"AUTOLOT_AUTH_ISSUER"}
)

// AuthConfig holds the single admin credential and token signing settings.
// PasswordHash, a bcrypt hash, takes precedence over Password when both are set.
type AuthConfig struct {
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	PasswordHash string `toml:"password_hash"`
	JWTSecret    string `toml:"jwt_secret"`
	TokenTTL     string `toml:"token_ttl"`
	Issuer       string `toml:"issuer"`
}

// TokenTTLDuration returns TokenTTL as a time.Duration.
func (c *AuthConfig) TokenTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TokenTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuthConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.Username != "" {
		c.Username = overlay.Username
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.PasswordHash != "" {
		c.PasswordHash = overlay.PasswordHash
	}
	if overlay.JWTSecret != "" {
		c.JWTSecret = overlay.JWTSecret
	}
	if overlay.TokenTTL != "" {
		c.TokenTTL = overlay.TokenTTL
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
}

func (c *AuthConfig) loadDefaults() {
	if c.TokenTTL == "" {
		c.TokenTTL = "24h"
	}
	if c.Issuer == "" {
		c.Issuer = "autolot"
	}
}

func (c *AuthConfig) loadEnv() {
	setFromEnv(&c.Username, EnvAuthUsername)
	setFromEnv(&c.Password, EnvAuthPassword)
	setFromEnv(&c.PasswordHash, EnvAuthPasswordHash)
	setFromEnv(&c.JWTSecret, EnvAuthJWTSecret)
	setFromEnv(&c.TokenTTL, EnvAuthTokenTTL)
	setFromEnv(&c.Issuer, EnvAuthIssuer)
}

func (c *AuthConfig) validate() error {
	if c.Username == "" {
		return errors.New("username required")
	}
	if c.Password == "" && c.PasswordHash == "" {
		return errors.New("password or password_hash required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret required")
	}
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return fmt.Errorf("invalid token_ttl: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("token_ttl must be positive: %s", c.TokenTTL)
	}
	return nil
}

func setFromEnv(dst *string, keys []string) {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			*dst = v
			return
		}
	}
}
