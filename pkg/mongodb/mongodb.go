// Package mongodb provides MongoDB client management with lifecycle coordination.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/JaimeStill/autolot/pkg/lifecycle"
)

// System manages a MongoDB client and lifecycle coordination.
type System interface {
	// Database returns the configured database handle.
	Database() *mongo.Database
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type client struct {
	client      *mongo.Client
	db          *mongo.Database
	logger      *slog.Logger
	connTimeout time.Duration
}

// New creates a MongoDB system. The driver connects lazily; the connection is
// verified by the startup ping registered in Start. Driver retries are disabled.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnTimeoutDuration()).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetRetryReads(false).
		SetRetryWrites(false)

	c, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	return &client{
		client:      c,
		db:          c.Database(cfg.Database),
		logger:      logger.With("system", "mongodb"),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (c *client) Database() *mongo.Database {
	return c.db
}

func (c *client) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting mongodb client")

	lc.OnStartup(func() error {
		pingCtx, cancel := context.WithTimeout(lc.Context(), c.connTimeout)
		defer cancel()

		if err := c.client.Ping(pingCtx, readpref.Primary()); err != nil {
			c.logger.Error("mongodb ping failed", "error", err)
			return fmt.Errorf("mongodb ping: %w", err)
		}

		c.logger.Info("mongodb connection established", "database", c.db.Name())
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		c.logger.Info("disconnecting mongodb client")

		ctx, cancel := context.WithTimeout(context.Background(), c.connTimeout)
		defer cancel()

		if err := c.client.Disconnect(ctx); err != nil {
			c.logger.Error("mongodb disconnect failed", "error", err)
			return
		}

		c.logger.Info("mongodb client disconnected")
	})

	return nil
}
