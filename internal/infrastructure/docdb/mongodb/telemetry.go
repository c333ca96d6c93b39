package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pmservice/assistant-service/internal/domain/models"
)

// TelemetryCollectionName is the name of the telemetry events collection.
const TelemetryCollectionName = "telemetry_events"

// TelemetryCollection implements docdb.TelemetryCollection for MongoDB.
type TelemetryCollection struct {
	events *mongo.Collection
}

// NewTelemetryCollection creates a new telemetry collection wrapper.
func NewTelemetryCollection(db *mongo.Database) *TelemetryCollection {
	return &TelemetryCollection{events: db.Collection(TelemetryCollectionName)}
}

// Insert stores one telemetry event.
func (c *TelemetryCollection) Insert(ctx context.Context, event *models.TelemetryEvent) error {
	if event.ID == "" {
		return fmt.Errorf("event ID is required")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if _, err := c.events.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert telemetry event: %w", err)
	}
	return nil
}

// ListRecent returns the newest events first. A limit of zero returns all.
func (c *TelemetryCollection) ListRecent(ctx context.Context, limit int) ([]models.TelemetryEvent, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	return c.find(ctx, bson.M{}, findOpts)
}

// ListSince returns events at or after since, oldest first.
func (c *TelemetryCollection) ListSince(ctx context.Context, since time.Time) ([]models.TelemetryEvent, error) {
	filter := bson.M{"timestamp": bson.M{"$gte": since}}
	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	return c.find(ctx, filter, findOpts)
}

func (c *TelemetryCollection) find(ctx context.Context, filter bson.M, findOpts *options.FindOptions) ([]models.TelemetryEvent, error) {
	cursor, err := c.events.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.TelemetryEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode telemetry events: %w", err)
	}
	for i := range events {
		events[i].Timestamp = events[i].Timestamp.UTC()
	}
	return events, nil
}

// EnsureIndexes creates the timestamp and thread indexes.
func (c *TelemetryCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "threadId", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_thread_timestamp"),
		},
	}

	if _, err := c.events.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create telemetry indexes: %w", err)
	}
	return nil
}
