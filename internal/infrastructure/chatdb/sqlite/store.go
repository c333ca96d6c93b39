// Package sqlite provides a single-file chatdb backend for local use.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/pmservice/assistant-service/internal/core/chatdb"
	"github.com/pmservice/assistant-service/internal/domain/models"
)

// touchNow writes the current time in the layout the driver uses for bound
// time.Time values (UTC, "+00:00" suffix), never moving updated_at backwards.
const touchNow = `MAX(updated_at, strftime('%Y-%m-%d %H:%M:%f+00:00', 'now'))`

const schema = `
CREATE TABLE IF NOT EXISTS threads (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	workflow_phase TEXT NOT NULL DEFAULT 'assessment',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT UNIQUE NOT NULL,
	thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS email_drafts (
	id TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	subject TEXT NOT NULL,
	recipient TEXT NOT NULL,
	body TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS action_plans (
	id TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	checklist TEXT NOT NULL DEFAULT '[]',
	key_considerations TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS telemetry_events (
	id TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL,
	category TEXT NOT NULL,
	mode TEXT NOT NULL,
	latency_ms REAL NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	tokens_used INTEGER NOT NULL,
	estimated_cost_usd REAL NOT NULL,
	model_name TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_threads_user_created ON threads(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, seq);
CREATE INDEX IF NOT EXISTS idx_email_drafts_thread ON email_drafts(thread_id);
CREATE INDEX IF NOT EXISTS idx_action_plans_thread ON action_plans(thread_id);
CREATE INDEX IF NOT EXISTS idx_telemetry_created ON telemetry_events(created_at);

DROP TRIGGER IF EXISTS messages_touch_insert;
DROP TRIGGER IF EXISTS messages_touch_delete;
DROP TRIGGER IF EXISTS email_drafts_touch;
DROP TRIGGER IF EXISTS action_plans_touch;

CREATE TRIGGER messages_touch_insert AFTER INSERT ON messages
BEGIN UPDATE threads SET updated_at = ` + touchNow + ` WHERE id = NEW.thread_id; END;
CREATE TRIGGER messages_touch_delete AFTER DELETE ON messages
BEGIN UPDATE threads SET updated_at = ` + touchNow + ` WHERE id = OLD.thread_id; END;
CREATE TRIGGER email_drafts_touch AFTER INSERT ON email_drafts
BEGIN UPDATE threads SET updated_at = ` + touchNow + ` WHERE id = NEW.thread_id; END;
CREATE TRIGGER action_plans_touch AFTER INSERT ON action_plans
BEGIN UPDATE threads SET updated_at = ` + touchNow + ` WHERE id = NEW.thread_id; END;
`

// Store is the SQLite chatdb client.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database file at path with
// foreign keys enabled.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "./data/assistant.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate creates tables, indexes and triggers.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

func (s *Store) Threads() chatdb.ThreadRepository { return threadRepo{s.db} }
func (s *Store) Messages() chatdb.MessageRepository { return messageRepo{s.db} }
func (s *Store) Artifacts() chatdb.ArtifactRepository { return artifactRepo{s.db} }
func (s *Store) Telemetry() chatdb.TelemetryRepository { return telemetryRepo{s.db} }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

type threadRepo struct{ db *sql.DB }

func (r threadRepo) Create(ctx context.Context, t *models.Thread) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO threads (id, user_id, name, category, workflow_phase, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Name, string(t.Category), string(t.Phase), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert thread: %w", err)
	}
	return nil
}

const threadColumns = `t.id, t.user_id, t.name, t.category, t.workflow_phase, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM messages m WHERE m.thread_id = t.id)`

func scanThread(row interface{ Scan(...any) error }) (*models.Thread, error) {
	var t models.Thread
	var category, phase string
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &category, &phase, &t.CreatedAt, &t.UpdatedAt, &t.MessageCount); err != nil {
		return nil, err
	}
	t.Category = models.Category(category)
	t.Phase = models.Phase(phase)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func (r threadRepo) Get(ctx context.Context, id string) (*models.Thread, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+threadColumns+` FROM threads t WHERE t.id = ?`, id)
	t, err := scanThread(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return t, nil
}

func (r threadRepo) List(ctx context.Context, opts chatdb.ListThreadsOptions) ([]*models.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+`
		FROM threads t
		WHERE (? = '' OR t.user_id = ?) AND (? = '' OR t.category = ?)
		ORDER BY t.created_at DESC, t.id
	`, opts.UserID, opts.UserID, string(opts.Category), string(opts.Category))
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
	var name, category, phase *string
	if u.Name != nil {
		name = u.Name
	}
	if u.Category != nil {
		c := string(*u.Category)
		category = &c
	}
	if u.Phase != nil {
		p := string(*u.Phase)
		phase = &p
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE threads SET
			name = COALESCE(?, name),
			category = COALESCE(?, category),
			workflow_phase = COALESCE(?, workflow_phase),
			updated_at = ?
		WHERE id = ?
	`, name, category, phase, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update thread: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r threadRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete thread: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type messageRepo struct{ db *sql.DB }

func (r messageRepo) Append(ctx context.Context, m *models.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.ThreadID, string(m.Role), m.Content, m.CreatedAt.UTC())
	if isForeignKeyViolation(err) {
		return chatdb.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r messageRepo) ListByThread(ctx context.Context, threadID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, thread_id, role, content, created_at FROM messages WHERE thread_id = ? ORDER BY seq
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, threadID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear messages: %w", err)
	}
	return res.RowsAffected()
}

type artifactRepo struct{ db *sql.DB }

func (r artifactRepo) AddEmailDraft(ctx context.Context, d *models.EmailDraft) error {
	metadata, err := json.Marshal(d.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode draft metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO email_drafts (id, thread_id, subject, recipient, body, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.ThreadID, d.Subject, d.Recipient, d.Body, string(metadata), d.CreatedAt.UTC())
	if isForeignKeyViolation(err) {
		return chatdb.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert email draft: %w", err)
	}
	return nil
}

func (r artifactRepo) AddActionPlan(ctx context.Context, p *models.ActionPlan) error {
	checklist, err := json.Marshal(p.Checklist)
	if err != nil {
		return fmt.Errorf("failed to encode checklist: %w", err)
	}
	considerations, err := json.Marshal(p.KeyConsiderations)
	if err != nil {
		return fmt.Errorf("failed to encode key considerations: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO action_plans (id, thread_id, title, checklist, key_considerations, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.ThreadID, p.Title, string(checklist), string(considerations), p.CreatedAt.UTC())
	if isForeignKeyViolation(err) {
		return chatdb.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert action plan: %w", err)
	}
	return nil
}

func (r artifactRepo) ListEmailDrafts(ctx context.Context, threadID string) ([]models.EmailDraft, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, thread_id, subject, recipient, body, metadata, created_at
		FROM email_drafts WHERE thread_id = ? ORDER BY created_at, rowid
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list email drafts: %w", err)
	}
	defer rows.Close()

	drafts := []models.EmailDraft{}
	for rows.Next() {
		var d models.EmailDraft
		var metadata string
		if err := rows.Scan(&d.ID, &d.ThreadID, &d.Subject, &d.Recipient, &d.Body, &metadata, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email draft: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &d.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode draft metadata: %w", err)
		}
		d.CreatedAt = d.CreatedAt.UTC()
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

func (r artifactRepo) ListActionPlans(ctx context.Context, threadID string) ([]models.ActionPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, thread_id, title, checklist, key_considerations, created_at
		FROM action_plans WHERE thread_id = ? ORDER BY created_at, rowid
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list action plans: %w", err)
	}
	defer rows.Close()

	plans := []models.ActionPlan{}
	for rows.Next() {
		var p models.ActionPlan
		var checklist, considerations string
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.Title, &checklist, &considerations, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action plan: %w", err)
		}
		if err := json.Unmarshal([]byte(checklist), &p.Checklist); err != nil {
			return nil, fmt.Errorf("failed to decode checklist: %w", err)
		}
		if err := json.Unmarshal([]byte(considerations), &p.KeyConsiderations); err != nil {
			return nil, fmt.Errorf("failed to decode key considerations: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

type telemetryRepo struct{ db *sql.DB }

const telemetryColumns = `id, thread_id, category, mode, latency_ms, input_tokens, output_tokens,
	tokens_used, estimated_cost_usd, model_name, status, COALESCE(error_message, ''), created_at`

func (r telemetryRepo) Insert(ctx context.Context, e *models.TelemetryEvent) error {
	var errMsg *string
	if e.ErrorMessage != "" {
		errMsg = &e.ErrorMessage
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO telemetry_events (id, thread_id, category, mode, latency_ms, input_tokens, output_tokens,
			tokens_used, estimated_cost_usd, model_name, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ThreadID, e.Category, e.Mode, e.LatencyMs, e.InputTokens, e.OutputTokens,
		e.TokensUsed, e.EstimatedCostUSD, e.ModelName, string(e.Status), errMsg, e.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert telemetry event: %w", err)
	}
	return nil
}

func (r telemetryRepo) ListRecent(ctx context.Context, limit int) ([]models.TelemetryEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(ctx, `SELECT `+telemetryColumns+` FROM telemetry_events ORDER BY created_at DESC LIMIT ?`, limit)
}

func (r telemetryRepo) ListSince(ctx context.Context, since time.Time) ([]models.TelemetryEvent, error) {
	return r.query(ctx, `SELECT `+telemetryColumns+` FROM telemetry_events WHERE created_at >= ? ORDER BY created_at`, since.UTC())
}

func (r telemetryRepo) query(ctx context.Context, query string, args ...any) ([]models.TelemetryEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
