package api

import (
	"time"

	"github.com/JaimeStill/autolot/internal/config"
	"github.com/JaimeStill/autolot/internal/infrastructure"
	"github.com/JaimeStill/autolot/internal/media"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Media        media.Config
	Auth         config.AuthConfig
	StoreTimeout time.Duration
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Media: media.Config{
			Folder:      cfg.Media.Folder,
			MaxFiles:    cfg.Media.MaxFiles,
			Concurrency: cfg.Media.UploadConcurrency,
			Timeout:     cfg.Media.UploadTimeoutDuration(),
		},
		Auth:         cfg.Auth,
		StoreTimeout: cfg.Store.TimeoutDuration(),
	}
}
