// Package mongodb provides the MongoDB document store for telemetry events.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pmservice/assistant-service/internal/core/docdb"
)

// Client implements docdb.Client for MongoDB.
type Client struct {
	client    *mongo.Client
	telemetry *TelemetryCollection
}

// ClientConfig holds MongoDB connection configuration.
type ClientConfig struct {
	URI          string
	DatabaseName string
}

// NewClient connects to MongoDB and verifies the connection.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if config.DatabaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Client{
		client:    client,
		telemetry: NewTelemetryCollection(client.Database(config.DatabaseName)),
	}, nil
}

// Telemetry returns the telemetry events collection.
func (c *Client) Telemetry() docdb.TelemetryCollection {
	return c.telemetry
}

// Ping verifies the connection to MongoDB.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes for all collections.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	if err := c.telemetry.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure telemetry indexes: %w", err)
	}
	return nil
}
