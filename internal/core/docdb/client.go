// Package docdb defines the document database used as an alternative
// telemetry event store.
package docdb

import (
	"context"
	"time"

	"github.com/pmservice/assistant-service/internal/domain/models"
)

// TelemetryCollection stores telemetry events as documents.
type TelemetryCollection interface {
	Insert(ctx context.Context, event *models.TelemetryEvent) error
	ListRecent(ctx context.Context, limit int) ([]models.TelemetryEvent, error)
	ListSince(ctx context.Context, since time.Time) ([]models.TelemetryEvent, error)
}

// Client defines the interface for a document database client.
type Client interface {
	// Telemetry returns the telemetry events collection.
	Telemetry() TelemetryCollection

	// EnsureIndexes creates the indexes the collections rely on.
	EnsureIndexes(ctx context.Context) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
