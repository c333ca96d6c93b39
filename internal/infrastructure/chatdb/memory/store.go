// Package memory provides a process-local chatdb backend for tests and
// local demos. It mirrors the relational backends: foreign keys are
// enforced, deletes cascade and writes touch the owning thread.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pmservice/assistant-service/internal/core/chatdb"
	"github.com/pmservice/assistant-service/internal/domain/models"
)

// Store holds all tables behind a single lock.
type Store struct {
	mu        sync.RWMutex
	threads   map[string]*models.Thread
	messages  map[string][]models.Message
	drafts    map[string][]models.EmailDraft
	plans     map[string][]models.ActionPlan
	telemetry []models.TelemetryEvent
	now       func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		threads:  make(map[string]*models.Thread),
		messages: make(map[string][]models.Message),
		drafts:   make(map[string][]models.EmailDraft),
		plans:    make(map[string][]models.ActionPlan),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Threads() chatdb.ThreadRepository { return threadRepo{s} }
func (s *Store) Messages() chatdb.MessageRepository { return messageRepo{s} }
func (s *Store) Artifacts() chatdb.ArtifactRepository { return artifactRepo{s} }
func (s *Store) Telemetry() chatdb.TelemetryRepository { return telemetryRepo{s} }
func (s *Store) Migrate(ctx context.Context) error { return nil }
func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error { return nil }

// touch must be called with the write lock held.
func (s *Store) touch(threadID string) {
	if t, ok := s.threads[threadID]; ok {
		if now := s.now(); now.After(t.UpdatedAt) {
			t.UpdatedAt = now
		}
	}
}

type threadRepo struct{ s *Store }

func (r threadRepo) Create(ctx context.Context, thread *models.Thread) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row := *thread
	row.Messages, row.EmailDrafts, row.ActionPlans = nil, nil, nil
	r.s.threads[thread.ID] = &row
	return nil
}

func (r threadRepo) Get(ctx context.Context, id string) (*models.Thread, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.threads[id]
	if !ok {
		return nil, nil
	}
	row := *t
	row.MessageCount = len(r.s.messages[id])
	return &row, nil
}

func (r threadRepo) List(ctx context.Context, opts chatdb.ListThreadsOptions) ([]*models.Thread, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Thread, 0, len(r.s.threads))
	for _, t := range r.s.threads {
		if opts.UserID != "" && t.UserID != opts.UserID {
			continue
		}
		if opts.Category != "" && t.Category != opts.Category {
			continue
		}
		row := *t
		row.MessageCount = len(r.s.messages[t.ID])
		out = append(out, &row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r threadRepo) Update(ctx context.Context, id string, update chatdb.ThreadUpdate) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.threads[id]
	if !ok {
		return false, nil
	}
	if update.Name != nil {
		t.Name = *update.Name
	}
	if update.Category != nil {
		t.Category = *update.Category
	}
	if update.Phase != nil {
		t.Phase = *update.Phase
	}
	r.s.touch(id)
	return true, nil
}

func (r threadRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.threads[id]; !ok {
		return false, nil
	}
	delete(r.s.threads, id)
	delete(r.s.messages, id)
	delete(r.s.drafts, id)
	delete(r.s.plans, id)
	return true, nil
}

type messageRepo struct{ s *Store }

func (r messageRepo) Append(ctx context.Context, message *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.threads[message.ThreadID]; !ok {
		return chatdb.ErrThreadNotFound
	}
	r.s.messages[message.ThreadID] = append(r.s.messages[message.ThreadID], *message)
	r.s.touch(message.ThreadID)
	return nil
}

func (r messageRepo) ListByThread(ctx context.Context, threadID string) ([]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]models.Message{}, r.s.messages[threadID]...), nil
}

func (r messageRepo) DeleteByThread(ctx context.Context, threadID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := int64(len(r.s.messages[threadID]))
	delete(r.s.messages, threadID)
	r.s.touch(threadID)
	return n, nil
}

type artifactRepo struct{ s *Store }

func (r artifactRepo) AddEmailDraft(ctx context.Context, draft *models.EmailDraft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.threads[draft.ThreadID]; !ok {
		return chatdb.ErrThreadNotFound
	}
	d := *draft
	d.Metadata = make(map[string]string, len(draft.Metadata))
	for k, v := range draft.Metadata {
		d.Metadata[k] = v
	}
	r.s.drafts[draft.ThreadID] = append(r.s.drafts[draft.ThreadID], d)
	r.s.touch(draft.ThreadID)
	return nil
}

func (r artifactRepo) AddActionPlan(ctx context.Context, plan *models.ActionPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.threads[plan.ThreadID]; !ok {
		return chatdb.ErrThreadNotFound
	}
	p := *plan
	p.Checklist = append([]string{}, plan.Checklist...)
	p.KeyConsiderations = append([]string{}, plan.KeyConsiderations...)
	r.s.plans[plan.ThreadID] = append(r.s.plans[plan.ThreadID], p)
	r.s.touch(plan.ThreadID)
	return nil
}

func (r artifactRepo) ListEmailDrafts(ctx context.Context, threadID string) ([]models.EmailDraft, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]models.EmailDraft{}, r.s.drafts[threadID]...), nil
}

func (r artifactRepo) ListActionPlans(ctx context.Context, threadID string) ([]models.ActionPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]models.ActionPlan{}, r.s.plans[threadID]...), nil
}

type telemetryRepo struct{ s *Store }

func (r telemetryRepo) Insert(ctx context.Context, event *models.TelemetryEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.telemetry = append(r.s.telemetry, *event)
	return nil
}

func (r telemetryRepo) ListRecent(ctx context.Context, limit int) ([]models.TelemetryEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.TelemetryEvent, 0, len(r.s.telemetry))
	for i := len(r.s.telemetry) - 1; i >= 0; i-- {
		out = append(out, r.s.telemetry[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r telemetryRepo) ListSince(ctx context.Context, since time.Time) ([]models.TelemetryEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.TelemetryEvent
	for _, e := range r.s.telemetry {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
