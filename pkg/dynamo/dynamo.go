// Package dynamo provides DynamoDB client management with lifecycle coordination.
package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/JaimeStill/autolot/pkg/lifecycle"
)

// System exposes a DynamoDB client bound to a single table.
type System interface {
	Client() *dynamodb.Client
	Table() string
	Start(lc *lifecycle.Coordinator) error
}

type client struct {
	client      *dynamodb.Client
	table       string
	logger      *slog.Logger
	connTimeout time.Duration
}

// New resolves AWS credentials from the default chain and creates the client.
// The SDK is limited to a single attempt per call.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	c := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &client{
		client:      c,
		table:       cfg.Table,
		logger:      logger.With("system", "dynamodb"),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (c *client) Client() *dynamodb.Client {
	return c.client
}

func (c *client) Table() string {
	return c.table
}

func (c *client) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting dynamodb client", "table", c.table)

	lc.OnStartup(func() error {
		ctx, cancel := context.WithTimeout(lc.Context(), c.connTimeout)
		defer cancel()

		_, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(c.table),
		})
		if err != nil {
			c.logger.Error("dynamodb table check failed", "error", err)
			return fmt.Errorf("describe table %s: %w", c.table, err)
		}

		c.logger.Info("dynamodb table ready", "table", c.table)
		return nil
	})

	return nil
}
