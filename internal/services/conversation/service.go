// Package conversation provides the thread, message and artifact operations
// on top of a chatdb backend.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pmservice/assistant-service/internal/core/chatdb"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/metrics"
)

// Config holds the dependencies of the conversation service.
type Config struct {
	DB     chatdb.Client
	Logger zerolog.Logger
}

// Service implements the conversation store operations.
type Service struct {
	db     chatdb.Client
	logger zerolog.Logger
}

// NewService creates a new conversation service.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("chat database is required")
	}
	return &Service{db: cfg.DB, logger: cfg.Logger}, nil
}

// CreateThread validates and inserts a new thread owned by the session user.
// The thread becomes active when the session has none.
func (s *Service) CreateThread(ctx context.Context, sess *models.Session, name, category string) (*models.Thread, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.NewValidationError("thread name is required", "name")
	}
	if strings.TrimSpace(category) == "" {
		return nil, domainerrors.NewValidationError("category is required", "category")
	}
	cat, ok := models.ParseCategory(category)
	if !ok {
		return nil, invalidCategory(category)
	}

	thread := models.NewThread(userOf(sess), name, cat)
	if err := s.db.Threads().Create(ctx, thread); err != nil {
		return nil, domainerrors.NewBackendError("create thread", err)
	}

	metrics.ThreadsCreated.WithLabelValues(string(cat)).Inc()
	s.logger.Info().Str("thread_id", thread.ID).Str("category", string(cat)).Msg("thread created")

	if sess != nil && !sess.HasActiveThread() {
		sess.ActiveThreadID = thread.ID
	}
	return thread, nil
}

// GetThread loads a thread with its messages, drafts and plans. It returns
// nil without an error when the thread does not exist.
func (s *Service) GetThread(ctx context.Context, id string) (*models.Thread, error) {
	thread, err := s.db.Threads().Get(ctx, id)
	if err != nil {
		return nil, domainerrors.NewBackendError("get thread", err)
	}
	if thread == nil {
		return nil, nil
	}

	if thread.Messages, err = s.db.Messages().ListByThread(ctx, id); err != nil {
		return nil, domainerrors.NewBackendError("list messages", err)
	}
	if thread.EmailDrafts, err = s.db.Artifacts().ListEmailDrafts(ctx, id); err != nil {
		return nil, domainerrors.NewBackendError("list email drafts", err)
	}
	if thread.ActionPlans, err = s.db.Artifacts().ListActionPlans(ctx, id); err != nil {
		return nil, domainerrors.NewBackendError("list action plans", err)
	}
	thread.MessageCount = len(thread.Messages)
	return thread, nil
}

// FindThread returns the thread row when it exists and belongs to the
// session user, or nil otherwise.
func (s *Service) FindThread(ctx context.Context, sess *models.Session, id string) (*models.Thread, error) {
	thread, err := s.db.Threads().Get(ctx, id)
	if err != nil {
		return nil, domainerrors.NewBackendError("get thread", err)
	}
	if thread == nil || !Owns(sess, thread) {
		return nil, nil
	}
	return thread, nil
}

// Owns reports whether the thread is visible to the session. Threads
// without an owner are visible to everyone.
func Owns(sess *models.Session, thread *models.Thread) bool {
	return thread.UserID == "" || thread.UserID == userOf(sess)
}

// ListThreads returns the session user's threads newest first, without
// messages. An empty filter falls back to the session's category filter.
func (s *Service) ListThreads(ctx context.Context, sess *models.Session, filter string) ([]*models.Thread, error) {
	opts := chatdb.ListThreadsOptions{UserID: userOf(sess)}

	switch {
	case strings.TrimSpace(filter) != "":
		cat, ok := models.ParseCategory(filter)
		if !ok {
			return nil, invalidCategory(filter)
		}
		opts.Category = cat
	case sess != nil:
		opts.Category = sess.CategoryFilter
	}

	threads, err := s.db.Threads().List(ctx, opts)
	if err != nil {
		return nil, domainerrors.NewBackendError("list threads", err)
	}
	return threads, nil
}

// UpdateThread applies name, category and workflowPhase from fields. Other
// keys are ignored. It reports whether the thread exists.
func (s *Service) UpdateThread(ctx context.Context, id string, fields map[string]any) (bool, error) {
	update, err := parseUpdate(fields)
	if err != nil {
		return false, err
	}

	if update.IsEmpty() {
		thread, err := s.db.Threads().Get(ctx, id)
		if err != nil {
			return false, domainerrors.NewBackendError("get thread", err)
		}
		return thread != nil, nil
	}

	ok, err := s.db.Threads().Update(ctx, id, update)
	if err != nil {
		return false, domainerrors.NewBackendError("update thread", err)
	}
	return ok, nil
}

// SetPhase stores the workflow phase of a thread.
func (s *Service) SetPhase(ctx context.Context, id string, phase models.Phase) (bool, error) {
	if !phase.IsValid() {
		return false, domainerrors.NewValidationError("invalid workflow phase", string(phase))
	}
	ok, err := s.db.Threads().Update(ctx, id, chatdb.ThreadUpdate{Phase: &phase})
	if err != nil {
		return false, domainerrors.NewBackendError("update thread phase", err)
	}
	return ok, nil
}

func parseUpdate(fields map[string]any) (chatdb.ThreadUpdate, error) {
	var update chatdb.ThreadUpdate

	if v, present := fields["name"]; present {
		name, ok := v.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return update, domainerrors.NewValidationError("thread name must be a non-empty string", "name")
		}
		name = strings.TrimSpace(name)
		update.Name = &name
	}

	if v, present := fields["category"]; present {
		raw, _ := v.(string)
		cat, ok := models.ParseCategory(raw)
		if !ok {
			return update, invalidCategory(raw)
		}
		update.Category = &cat
	}

	for _, key := range []string{"workflowPhase", "workflow_phase"} {
		v, present := fields[key]
		if !present {
			continue
		}
		raw, _ := v.(string)
		phase := models.Phase(strings.ToLower(strings.TrimSpace(raw)))
		if !phase.IsValid() {
			return update, domainerrors.NewValidationError("invalid workflow phase", raw)
		}
		update.Phase = &phase
	}

	return update, nil
}

// DeleteThread removes a thread and everything it owns, clearing the
// session's active pointer when it pointed at the thread.
func (s *Service) DeleteThread(ctx context.Context, sess *models.Session, id string) (bool, error) {
	ok, err := s.db.Threads().Delete(ctx, id)
	if err != nil {
		return false, domainerrors.NewBackendError("delete thread", err)
	}
	if ok {
		s.logger.Info().Str("thread_id", id).Msg("thread deleted")
	}
	if sess != nil && sess.ActiveThreadID == id {
		sess.ActiveThreadID = ""
	}
	return ok, nil
}

// AppendMessage adds a message to the end of a thread.
func (s *Service) AppendMessage(ctx context.Context, threadID string, role models.MessageRole, content string) (*models.Message, error) {
	if !role.IsValid() {
		return nil, domainerrors.NewValidationError("invalid message role", string(role))
	}

	msg := models.NewMessage(threadID, role, content)
	if err := s.db.Messages().Append(ctx, msg); err != nil {
		return nil, s.writeError("append message", threadID, err)
	}
	return msg, nil
}

// ClearMessages deletes every message of a thread and keeps its drafts and
// plans. It reports whether the thread exists.
func (s *Service) ClearMessages(ctx context.Context, threadID string) (bool, error) {
	thread, err := s.db.Threads().Get(ctx, threadID)
	if err != nil {
		return false, domainerrors.NewBackendError("get thread", err)
	}
	if thread == nil {
		return false, nil
	}

	n, err := s.db.Messages().DeleteByThread(ctx, threadID)
	if err != nil {
		return false, domainerrors.NewBackendError("clear messages", err)
	}
	s.logger.Debug().Str("thread_id", threadID).Int64("count", n).Msg("messages cleared")
	return true, nil
}

// AddEmailDraft stores a draft under its thread.
func (s *Service) AddEmailDraft(ctx context.Context, draft *models.EmailDraft) error {
	if strings.TrimSpace(draft.Subject) == "" || strings.TrimSpace(draft.Body) == "" {
		return domainerrors.NewValidationError("email draft needs a subject and a body", "")
	}
	if err := s.db.Artifacts().AddEmailDraft(ctx, draft); err != nil {
		return s.writeError("add email draft", draft.ThreadID, err)
	}
	metrics.ArtifactsSaved.WithLabelValues("email_draft").Inc()
	return nil
}

// AddActionPlan stores a plan under its thread.
func (s *Service) AddActionPlan(ctx context.Context, plan *models.ActionPlan) error {
	if strings.TrimSpace(plan.Title) == "" {
		return domainerrors.NewValidationError("action plan title is required", "title")
	}
	if err := s.db.Artifacts().AddActionPlan(ctx, plan); err != nil {
		return s.writeError("add action plan", plan.ThreadID, err)
	}
	metrics.ArtifactsSaved.WithLabelValues("action_plan").Inc()
	return nil
}

// SetActiveThread points the session at a thread. When the thread does not
// exist the session is left unchanged and false is returned.
func (s *Service) SetActiveThread(ctx context.Context, sess *models.Session, id string) (bool, error) {
	thread, err := s.FindThread(ctx, sess, id)
	if err != nil {
		return false, err
	}
	if thread == nil {
		return false, nil
	}
	sess.ActiveThreadID = thread.ID
	return true, nil
}

// GetActiveThread loads the session's active thread. A pointer to a thread
// that no longer exists is cleared.
func (s *Service) GetActiveThread(ctx context.Context, sess *models.Session) (*models.Thread, error) {
	if !sess.HasActiveThread() {
		return nil, nil
	}

	thread, err := s.GetThread(ctx, sess.ActiveThreadID)
	if err != nil {
		return nil, err
	}
	if thread == nil || !Owns(sess, thread) {
		sess.ActiveThreadID = ""
		return nil, nil
	}
	return thread, nil
}

func (s *Service) writeError(operation, threadID string, err error) error {
	if errors.Is(err, chatdb.ErrThreadNotFound) {
		return domainerrors.NewNotFoundError("thread", threadID)
	}
	return domainerrors.NewBackendError(operation, err)
}

func invalidCategory(raw string) error {
	names := make([]string, 0, 3)
	for _, c := range models.Categories() {
		names = append(names, string(c))
	}
	return domainerrors.NewValidationError(
		fmt.Sprintf("category must be one of: %s", strings.Join(names, ", ")), raw)
}

func userOf(sess *models.Session) string {
	if sess == nil {
		return ""
	}
	return sess.UserID
}
