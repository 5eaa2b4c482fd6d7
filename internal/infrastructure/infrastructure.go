// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, record store client, blob storage) that
// domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/autolot/internal/config"
	"github.com/JaimeStill/autolot/pkg/database"
	"github.com/JaimeStill/autolot/pkg/dynamo"
	"github.com/JaimeStill/autolot/pkg/lifecycle"
	"github.com/JaimeStill/autolot/pkg/mongodb"
	"github.com/JaimeStill/autolot/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Exactly one of Database, Mongo, or Dynamo is set, matching the configured
// record store backend.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Backend   string
	Database  database.System
	Mongo     mongodb.System
	Dynamo    dynamo.System
	Storage   storage.System

	logs *logOutput
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()

	logs := newLogOutput(&cfg.Logging, os.Stderr)
	logger := newLogger(&cfg.Logging, logs)

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Backend:   cfg.Store.Backend,
		logs:      logs,
	}

	var err error
	switch cfg.Store.Backend {
	case config.BackendMongo:
		if infra.Mongo, err = mongodb.New(&cfg.Mongo, logger); err != nil {
			return nil, fmt.Errorf("mongodb init failed: %w", err)
		}
	case config.BackendDynamo:
		if infra.Dynamo, err = dynamo.New(&cfg.Dynamo, logger); err != nil {
			return nil, fmt.Errorf("dynamodb init failed: %w", err)
		}
	default:
		if infra.Database, err = database.New(&cfg.Database, logger); err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}
	infra.Storage = store

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	switch {
	case i.Database != nil:
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	case i.Mongo != nil:
		if err := i.Mongo.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("mongodb start failed: %w", err)
		}
	case i.Dynamo != nil:
		if err := i.Dynamo.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("dynamodb start failed: %w", err)
		}
	}

	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	if i.logs.file != nil {
		i.Lifecycle.OnShutdown(func() {
			<-i.Lifecycle.Context().Done()
			if err := i.logs.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
			}
		})
	}

	return nil
}
