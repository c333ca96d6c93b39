// Package chatdb defines the relational store for threads, messages,
// generated artifacts and telemetry events.
//
// Implementations keep five tables: threads, messages, email_drafts,
// action_plans and telemetry_events. Deleting a thread cascades to its
// messages, drafts and plans. Every write under a thread also bumps the
// thread's updated_at.
package chatdb

import (
	"context"
	"errors"
	"time"

	"github.com/pmservice/assistant-service/internal/domain/models"
)

// ErrThreadNotFound is returned by writes that reference a missing thread.
var ErrThreadNotFound = errors.New("thread not found")

// ListThreadsOptions filters a thread listing. Empty fields match everything.
type ListThreadsOptions struct {
	UserID   string
	Category models.Category
}

// ThreadUpdate holds the mutable thread columns. Nil fields are left as is.
type ThreadUpdate struct {
	Name     *string
	Category *models.Category
	Phase    *models.Phase
}

// IsEmpty reports whether the update changes nothing.
func (u ThreadUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Phase == nil
}

// ThreadRepository persists thread rows.
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error

	// Get returns the thread row without messages or artifacts, or nil when
	// no thread has the id.
	Get(ctx context.Context, id string) (*models.Thread, error)

	// List returns thread rows newest first with MessageCount filled in.
	List(ctx context.Context, opts ListThreadsOptions) ([]*models.Thread, error)

	// Update applies the non-nil fields and reports whether a row matched.
	Update(ctx context.Context, id string, update ThreadUpdate) (bool, error)

	// Delete removes the thread and everything it owns.
	Delete(ctx context.Context, id string) (bool, error)
}

// MessageRepository persists the append-only message log.
type MessageRepository interface {
	Append(ctx context.Context, message *models.Message) error

	// ListByThread returns messages in insertion order.
	ListByThread(ctx context.Context, threadID string) ([]models.Message, error)

	DeleteByThread(ctx context.Context, threadID string) (int64, error)
}

// ArtifactRepository persists email drafts and action plans.
type ArtifactRepository interface {
	AddEmailDraft(ctx context.Context, draft *models.EmailDraft) error
	AddActionPlan(ctx context.Context, plan *models.ActionPlan) error
	ListEmailDrafts(ctx context.Context, threadID string) ([]models.EmailDraft, error)
	ListActionPlans(ctx context.Context, threadID string) ([]models.ActionPlan, error)
}

// TelemetryRepository persists telemetry events.
type TelemetryRepository interface {
	Insert(ctx context.Context, event *models.TelemetryEvent) error
	ListRecent(ctx context.Context, limit int) ([]models.TelemetryEvent, error)
	ListSince(ctx context.Context, since time.Time) ([]models.TelemetryEvent, error)
}

// Client bundles the repositories of one backend.
type Client interface {
	Threads() ThreadRepository
	Messages() MessageRepository
	Artifacts() ArtifactRepository
	Telemetry() TelemetryRepository

	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}
