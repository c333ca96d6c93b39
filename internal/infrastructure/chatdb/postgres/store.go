// Package postgres provides the PostgreSQL chatdb backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pmservice/assistant-service/internal/core/chatdb"
	"github.com/pmservice/assistant-service/internal/domain/models"
)

// foreignKeyViolation is the SQLSTATE for a foreign key violation.
const foreignKeyViolation = "23503"

const schema = `
CREATE TABLE IF NOT EXISTS threads (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	workflow_phase TEXT NOT NULL DEFAULT 'assessment',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS messages (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT UNIQUE NOT NULL,
	thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS email_drafts (
	id TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	subject TEXT NOT NULL,
	recipient TEXT NOT NULL,
	body TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS action_plans (
	id TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	checklist TEXT[] NOT NULL DEFAULT '{}',
	key_considerations TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS telemetry_events (
	id TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL,
	category TEXT NOT NULL,
	mode TEXT NOT NULL,
	latency_ms DOUBLE PRECISION NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	tokens_used INTEGER NOT NULL,
	estimated_cost_usd DOUBLE PRECISION NOT NULL,
	model_name TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('success', 'error')),
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_threads_user_created ON threads(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, seq);
CREATE INDEX IF NOT EXISTS idx_email_drafts_thread ON email_drafts(thread_id);
CREATE INDEX IF NOT EXISTS idx_action_plans_thread ON action_plans(thread_id);
CREATE INDEX IF NOT EXISTS idx_telemetry_created ON telemetry_events(created_at DESC);

CREATE OR REPLACE FUNCTION touch_thread() RETURNS trigger AS $$
BEGIN
	IF TG_OP = 'DELETE' THEN
		UPDATE threads SET updated_at = GREATEST(updated_at, now()) WHERE id = OLD.thread_id;
		RETURN OLD;
	END IF;
	UPDATE threads SET updated_at = GREATEST(updated_at, now()) WHERE id = NEW.thread_id;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS messages_touch ON messages;
CREATE TRIGGER messages_touch AFTER INSERT OR DELETE ON messages
	FOR EACH ROW EXECUTE FUNCTION touch_thread();
DROP TRIGGER IF EXISTS email_drafts_touch ON email_drafts;
CREATE TRIGGER email_drafts_touch AFTER INSERT ON email_drafts
	FOR EACH ROW EXECUTE FUNCTION touch_thread();
DROP TRIGGER IF EXISTS action_plans_touch ON action_plans;
CREATE TRIGGER action_plans_touch AFTER INSERT ON action_plans
	FOR EACH ROW EXECUTE FUNCTION touch_thread();
`

// Store is the PostgreSQL chatdb client.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a connection pool and verifies it.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate creates tables, indexes and triggers.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return nil
}

func (s *Store) Threads() chatdb.ThreadRepository { return threadRepo{s.pool} }
func (s *Store) Messages() chatdb.MessageRepository { return messageRepo{s.pool} }
func (s *Store) Artifacts() chatdb.ArtifactRepository { return artifactRepo{s.pool} }
func (s *Store) Telemetry() chatdb.TelemetryRepository { return telemetryRepo{s.pool} }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

type threadRepo struct{ pool *pgxpool.Pool }

func (r threadRepo) Create(ctx context.Context, t *models.Thread) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO threads (id, user_id, name, category, workflow_phase, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.UserID, t.Name, string(t.Category), string(t.Phase), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert thread: %w", err)
	}
	return nil
}

const threadColumns = `t.id, t.user_id, t.name, t.category, t.workflow_phase, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM messages m WHERE m.thread_id = t.id)`

func scanThread(row pgx.Row) (*models.Thread, error) {
	var t models.Thread
	var category, phase string
	var count int64
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &category, &phase, &t.CreatedAt, &t.UpdatedAt, &count); err != nil {
		return nil, err
	}
	t.Category = models.Category(category)
	t.Phase = models.Phase(phase)
	t.MessageCount = int(count)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func (r threadRepo) Get(ctx context.Context, id string) (*models.Thread, error) {
	t, err := scanThread(r.pool.QueryRow(ctx, `SELECT `+threadColumns+` FROM threads t WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return t, nil
}

func (r threadRepo) List(ctx context.Context, opts chatdb.ListThreadsOptions) ([]*models.Thread, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+threadColumns+`
		FROM threads t
		WHERE ($1 = '' OR t.user_id = $1) AND ($2 = '' OR t.category = $2)
		ORDER BY t.created_at DESC, t.id
	`, opts.UserID, string(opts.Category))
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	threads := []*models.Thread{}
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (r threadRepo) Update(ctx context.Context, id string, u chatdb.ThreadUpdate) (bool, error) {
	var category, phase *string
	if u.Category != nil {
		c := string(*u.Category)
		category = &c
	}
	if u.Phase != nil {
		p := string(*u.Phase)
		phase = &p
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE threads SET
			name = COALESCE($2, name),
			category = COALESCE($3, category),
			workflow_phase = COALESCE($4, workflow_phase),
			updated_at = now()
		WHERE id = $1
	`, id, u.Name, category, phase)
	if err != nil {
		return false, fmt.Errorf("failed to update thread: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r threadRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM threads WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete thread: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

type messageRepo struct{ pool *pgxpool.Pool }

func (r messageRepo) Append(ctx context.Context, m *models.Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (id, thread_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.ThreadID, string(m.Role), m.Content, m.CreatedAt)
	if isForeignKeyViolation(err) {
		return chatdb.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r messageRepo) ListByThread(ctx context.Context, threadID string) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, thread_id, role, content, created_at FROM messages WHERE thread_id = $1 ORDER BY seq
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		var role string
		if err := rows.Scan(&m.ID, &m.ThreadID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = models.MessageRole(role)
		m.CreatedAt = m.CreatedAt.UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r messageRepo) DeleteByThread(ctx context.Context, threadID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE thread_id = $1`, threadID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear messages: %w", err)
	}
	return tag.RowsAffected(), nil
}

type artifactRepo struct{ pool *pgxpool.Pool }

func (r artifactRepo) AddEmailDraft(ctx context.Context, d *models.EmailDraft) error {
	metadata := d.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_drafts (id, thread_id, subject, recipient, body, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.ID, d.ThreadID, d.Subject, d.Recipient, d.Body, metadata, d.CreatedAt)
	if isForeignKeyViolation(err) {
		return chatdb.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert email draft: %w", err)
	}
	return nil
}

func (r artifactRepo) AddActionPlan(ctx context.Context, p *models.ActionPlan) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO action_plans (id, thread_id, title, checklist, key_considerations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.ThreadID, p.Title, nonNil(p.Checklist), nonNil(p.KeyConsiderations), p.CreatedAt)
	if isForeignKeyViolation(err) {
		return chatdb.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert action plan: %w", err)
	}
	return nil
}

func (r artifactRepo) ListEmailDrafts(ctx context.Context, threadID string) ([]models.EmailDraft, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, thread_id, subject, recipient, body, metadata, created_at
		FROM email_drafts WHERE thread_id = $1 ORDER BY created_at, id
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list email drafts: %w", err)
	}
	defer rows.Close()

	drafts := []models.EmailDraft{}
	for rows.Next() {
		var d models.EmailDraft
		if err := rows.Scan(&d.ID, &d.ThreadID, &d.Subject, &d.Recipient, &d.Body, &d.Metadata, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email draft: %w", err)
		}
		d.CreatedAt = d.CreatedAt.UTC()
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

func (r artifactRepo) ListActionPlans(ctx context.Context, threadID string) ([]models.ActionPlan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, thread_id, title, checklist, key_considerations, created_at
		FROM action_plans WHERE thread_id = $1 ORDER BY created_at, id
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list action plans: %w", err)
	}
	defer rows.Close()

	plans := []models.ActionPlan{}
	for rows.Next() {
		var p models.ActionPlan
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.Title, &p.Checklist, &p.KeyConsiderations, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action plan: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

type telemetryRepo struct{ pool *pgxpool.Pool }

const telemetryColumns = `id, thread_id, category, mode, latency_ms, input_tokens, output_tokens,
	tokens_used, estimated_cost_usd, model_name, status, COALESCE(error_message, ''), created_at`

func (r telemetryRepo) Insert(ctx context.Context, e *models.TelemetryEvent) error {
	var errMsg *string
	if e.ErrorMessage != "" {
		errMsg = &e.ErrorMessage
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO telemetry_events (id, thread_id, category, mode, latency_ms, input_tokens, output_tokens,
			tokens_used, estimated_cost_usd, model_name, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, e.ID, e.ThreadID, e.Category, e.Mode, e.LatencyMs, e.InputTokens, e.OutputTokens,
		e.TokensUsed, e.EstimatedCostUSD, e.ModelName, string(e.Status), errMsg, e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert telemetry event: %w", err)
	}
	return nil
}

func (r telemetryRepo) ListRecent(ctx context.Context, limit int) ([]models.TelemetryEvent, error) {
	var max *int
	if limit > 0 {
		max = &limit
	}
	return r.query(ctx, `SELECT `+telemetryColumns+` FROM telemetry_events ORDER BY created_at DESC LIMIT $1`, max)
}

func (r telemetryRepo) ListSince(ctx context.Context, since time.Time) ([]models.TelemetryEvent, error) {
	return r.query(ctx, `SELECT `+telemetryColumns+` FROM telemetry_events WHERE created_at >= $1 ORDER BY created_at`, since)
}

func (r telemetryRepo) query(ctx context.Context, query string, args ...any) ([]models.TelemetryEvent, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry events: %w", err)
	}
	defer rows.Close()

	events := []models.TelemetryEvent{}
	for rows.Next() {
		var e models.TelemetryEvent
		var status string
		if err := rows.Scan(&e.ID, &e.ThreadID, &e.Category, &e.Mode, &e.LatencyMs, &e.InputTokens, &e.OutputTokens,
			&e.TokensUsed, &e.EstimatedCostUSD, &e.ModelName, &status, &e.ErrorMessage, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan telemetry event: %w", err)
		}
		e.Status = models.EventStatus(status)
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
