// Package assistant runs one conversation turn: store the user message,
// build the prompt, call the model, record telemetry and store the reply.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmservice/assistant-service/internal/core/llm"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/services/conversation"
	"github.com/pmservice/assistant-service/internal/services/telemetry"
	"github.com/pmservice/assistant-service/internal/services/workflow"
)

// FallbackReply formats the reply stored when the model call fails.
const FallbackReply = "I apologize, but I encountered an error processing your request: %s. Please try again."

// Config holds the dependencies of the assistant service.
type Config struct {
	Conversations *conversation.Service
	Classifier    *workflow.Classifier
	LLM           llm.Client
	Telemetry     *telemetry.Collector
	Logger        zerolog.Logger
}

// Service orchestrates a conversation turn.
type Service struct {
	conversations *conversation.Service
	classifier    *workflow.Classifier
	llm           llm.Client
	telemetry     *telemetry.Collector
	logger        zerolog.Logger
}

// NewService creates a new assistant service.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Conversations == nil {
		return nil, fmt.Errorf("conversation service is required")
	}
	if cfg.LLM == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if cfg.Telemetry == nil {
		return nil, fmt.Errorf("telemetry collector is required")
	}

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = workflow.NewClassifier(false)
	}

	return &Service{
		conversations: cfg.Conversations,
		classifier:    classifier,
		llm:           cfg.LLM,
		telemetry:     cfg.Telemetry,
		logger:        cfg.Logger,
	}, nil
}

// SendInput is one user turn. An empty Mode uses the session mode.
type SendInput struct {
	ThreadID string
	Content  string
	Mode     models.Mode
}

// SendResult describes the stored turn.
type SendResult struct {
	UserMessage      *models.Message        `json:"userMessage"`
	AssistantMessage *models.Message        `json:"assistantMessage"`
	Phase            models.Phase           `json:"workflowPhase"`
	Hint             string                 `json:"hint,omitempty"`
	EmailDraft       *models.EmailDraft     `json:"emailDraft,omitempty"`
	ActionPlan       *models.ActionPlan     `json:"actionPlan,omitempty"`
	Event            *models.TelemetryEvent `json:"telemetry"`
	Failed           bool                   `json:"failed"`
}

// SendMessage appends the user message, asks the model for a reply and
// appends the reply. A model failure is not returned as an error: the
// fallback reply is stored instead and the turn is marked failed.
func (s *Service) SendMessage(ctx context.Context, sess *models.Session, in SendInput) (*SendResult, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domainerrors.NewValidationError("message content is required", "content")
	}

	mode := in.Mode
	if mode == "" && sess != nil {
		mode = sess.Mode
	}
	if !mode.IsValid() {
		return nil, domainerrors.NewValidationError("mode must be one of: Ask, Plan, Draft", string(mode))
	}

	row, err := s.conversations.FindThread(ctx, sess, in.ThreadID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domainerrors.NewNotFoundError("thread", in.ThreadID)
	}

	thread, err := s.conversations.GetThread(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, domainerrors.NewNotFoundError("thread", in.ThreadID)
	}
	prior := thread.Messages

	userMsg, err := s.conversations.AppendMessage(ctx, thread.ID, models.RoleUser, content)
	if err != nil {
		return nil, err
	}
	history := append(append(make([]models.Message, 0, len(prior)+1), prior...), *userMsg)

	eval := s.classifier.Evaluate(thread.Category, mode, history)

	start := time.Now()
	resp, genErr := s.llm.Generate(ctx, &llm.Request{
		SystemPrompt: eval.Prompt,
		History:      llm.HistoryFromMessages(prior),
		Input:        content,
	})
	latency := time.Since(start)

	var reply, modelName string
	if genErr == nil {
		reply, modelName = resp.Text, resp.Model
	}
	if modelName == "" {
		modelName = s.llm.Model()
	}

	tracked := s.telemetry.Track(ctx, telemetry.TrackInput{
		ThreadID:   thread.ID,
		Category:   string(thread.Category),
		Mode:       string(mode),
		Latency:    latency,
		InputText:  content,
		OutputText: reply,
		Model:      modelName,
		Err:        genErr,
	})

	result := &SendResult{UserMessage: userMsg, Hint: eval.Hint, Event: tracked.Event}

	if genErr != nil {
		s.logger.Error().Err(genErr).Str("thread_id", thread.ID).Str("mode", string(mode)).Msg("model call failed")
		reply = fmt.Sprintf(FallbackReply, genErr.Error())
		result.Failed = true
	}

	reply, phase := s.classifier.ResolvePhase(reply, history)
	if result.Failed {
		phase = thread.Phase
	}

	assistantMsg, err := s.conversations.AppendMessage(ctx, thread.ID, models.RoleAssistant, reply)
	if err != nil {
		return nil, err
	}
	result.AssistantMessage = assistantMsg
	result.Phase = phase

	if phase != thread.Phase {
		if _, err := s.conversations.SetPhase(ctx, thread.ID, phase); err != nil {
			return nil, err
		}
	}

	if !result.Failed {
		s.saveArtifacts(ctx, thread.ID, mode, reply, result)
	}

	if sess != nil {
		sess.ActiveThreadID = thread.ID
		sess.Mode = mode
	}

	s.logger.Info().
		Str("thread_id", thread.ID).
		Str("mode", string(mode)).
		Str("phase", string(phase)).
		Float64("latency_ms", tracked.Event.LatencyMs).
		Bool("failed", result.Failed).
		Msg("turn completed")

	return result, nil
}

// saveArtifacts stores the draft or plan a reply carries. Failures are
// logged only; the turn itself is already stored.
func (s *Service) saveArtifacts(ctx context.Context, threadID string, mode models.Mode, reply string, result *SendResult) {
	switch mode {
	case models.ModeDraft:
		fields, ok := workflow.ParseEmailDraft(reply)
		if !ok {
			return
		}
		metadata := map[string]string{}
		if len(fields.KeyPoints) > 0 {
			metadata["keyPoints"] = strings.Join(fields.KeyPoints, "\n")
		}
		draft := models.NewEmailDraft(threadID, fields.Subject, fields.Recipient, fields.Body, metadata)
		if err := s.conversations.AddEmailDraft(ctx, draft); err != nil {
			s.logger.Warn().Err(err).Str("thread_id", threadID).Msg("failed to save email draft")
			return
		}
		result.EmailDraft = draft

	case models.ModePlan:
		fields, ok := workflow.ParseActionPlan(reply)
		if !ok {
			return
		}
		plan := models.NewActionPlan(threadID, fields.Title, fields.Checklist, fields.KeyConsiderations)
		if err := s.conversations.AddActionPlan(ctx, plan); err != nil {
			s.logger.Warn().Err(err).Str("thread_id", threadID).Msg("failed to save action plan")
			return
		}
		result.ActionPlan = plan
	}
}
