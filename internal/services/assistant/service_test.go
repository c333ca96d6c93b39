package assistant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/core/llm"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/infrastructure/chatdb/memory"
	"github.com/pmservice/assistant-service/internal/services/assistant"
	"github.com/pmservice/assistant-service/internal/services/conversation"
	"github.com/pmservice/assistant-service/internal/services/telemetry"
	"github.com/pmservice/assistant-service/internal/services/workflow"
	"github.com/pmservice/assistant-service/internal/testutil"
)

const draftReply = `## Draft Email

### Subject:
Scheduled Plumbing Repair - Unit 4B

### To:
Jordan Lee, Tenant of Unit 4B

### Email Body:

Dear Jordan,

A licensed plumber will repair the kitchen sink on Tuesday between 9 and 11 AM.

Best regards,
Property Management

### Key Points Included:
- Repair date and window
- Access requirements`

const planReply = `## Action Plan: Kitchen Sink Leak

### Checklist:
- [ ] Shut off the water supply
- [ ] Schedule a licensed plumber

### Key Considerations:
- Habitability obligations require prompt repair`

const questionsReply = `Before I put together a plan, a few questions:
A) Is the leak active right now?
B) Has the tenant reported water damage?
C) Do you have a preferred plumber?`

type fixture struct {
	svc           *assistant.Service
	conversations *conversation.Service
	collector     *telemetry.Collector
	sess          *models.Session
	thread        *models.Thread
}

func setup(t *testing.T, client llm.Client, phaseTags bool) *fixture {
	t.Helper()
	ctx := context.Background()

	conversations, err := conversation.NewService(&conversation.Config{DB: memory.NewStore(), Logger: zerolog.Nop()})
	require.NoError(t, err)

	collector, err := telemetry.NewCollector(&telemetry.Config{Logger: zerolog.Nop()})
	require.NoError(t, err)

	svc, err := assistant.NewService(&assistant.Config{
		Conversations: conversations,
		Classifier:    workflow.NewClassifier(phaseTags),
		LLM:           client,
		Telemetry:     collector,
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)

	sess := testutil.NewTestSession()
	thread, err := conversations.CreateThread(ctx, sess, testutil.TestThreadA, string(models.CategoryMaintenance))
	require.NoError(t, err)

	return &fixture{svc: svc, conversations: conversations, collector: collector, sess: sess, thread: thread}
}

func TestNewService_Validation(t *testing.T) {
	_, err := assistant.NewService(nil)
	assert.Error(t, err)

	_, err = assistant.NewService(&assistant.Config{})
	assert.Error(t, err)
}

func TestSendMessage_AskTurn(t *testing.T) {
	// Arrange
	client := &testutil.StaticLLM{Reply: questionsReply}
	f := setup(t, client, false)
	ctx := context.Background()

	// Act
	result, err := f.svc.SendMessage(ctx, f.sess, assistant.SendInput{
		ThreadID: f.thread.ID,
		Content:  "The kitchen sink in 4B is leaking",
		Mode:     models.ModeAsk,
	})

	// Assert
	require.NoError(t, err)
	assert.False(t, result.Failed)
	assert.Equal(t, models.PhaseGathering, result.Phase)
	assert.Equal(t, questionsReply, result.AssistantMessage.Content)
	assert.Nil(t, result.EmailDraft)
	assert.Nil(t, result.ActionPlan)

	require.NotNil(t, client.Last)
	assert.Equal(t, "The kitchen sink in 4B is leaking", client.Last.Input)
	assert.Empty(t, client.Last.History, "the new message is sent as input, not history")
	assert.Contains(t, client.Last.SystemPrompt, "maintenance")

	stored, err := f.conversations.GetThread(ctx, f.thread.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, models.RoleUser, stored.Messages[0].Role)
	assert.Equal(t, models.RoleAssistant, stored.Messages[1].Role)
	assert.Equal(t, models.PhaseGathering, stored.Phase)

	assert.Equal(t, models.StatusSuccess, result.Event.Status)
	assert.Equal(t, string(models.CategoryMaintenance), result.Event.Category)
	assert.Equal(t, "Ask", result.Event.Mode)
	assert.Equal(t, 1, f.collector.SessionMetrics().TotalMessages)
}

func TestSendMessage_SecondTurnSendsHistory(t *testing.T) {
	client := &testutil.StaticLLM{Reply: questionsReply}
	f := setup(t, client, false)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, f.sess, assistant.SendInput{ThreadID: f.thread.ID, Content: "Sink leaking", Mode: models.ModeAsk})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.sess, assistant.SendInput{ThreadID: f.thread.ID, Content: "A) yes", Mode: models.ModeAsk})
	require.NoError(t, err)

	require.Len(t, client.Last.History, 2)
	assert.Equal(t, models.RoleUser, client.Last.History[0].Role)
	assert.Equal(t, models.RoleAssistant, client.Last.History[1].Role)
	assert.Equal(t, "A) yes", client.Last.Input)
}

func TestSendMessage_DraftSavesEmail(t *testing.T) {
	f := setup(t, &testutil.StaticLLM{Reply: draftReply}, false)
	ctx := context.Background()

	result, err := f.svc.SendMessage(ctx, f.sess, assistant.SendInput{
		ThreadID: f.thread.ID,
		Content:  "Draft an email to the tenant about the repair",
		Mode:     models.ModeDraft,
	})

	require.NoError(t, err)
	assert.Equal(t, models.PhaseEmail, result.Phase)
	require.NotNil(t, result.EmailDraft)
	assert.Equal(t, "Scheduled Plumbing Repair - Unit 4B", result.EmailDraft.Subject)
	assert.Equal(t, "Jordan Lee, Tenant of Unit 4B", result.EmailDraft.Recipient)
	assert.Contains(t, result.EmailDraft.Body, "Dear Jordan,")
	assert.Equal(t, "Repair date and window\nAccess requirements", result.EmailDraft.Metadata["keyPoints"])

	stored, err := f.conversations.GetThread(ctx, f.thread.ID)
	require.NoError(t, err)
	assert.Len(t, stored.EmailDrafts, 1)
	assert.Equal(t, models.ModeDraft, f.sess.Mode)
}

func TestSendMessage_PlanSavesActionPlan(t *testing.T) {
	f := setup(t, &testutil.StaticLLM{Reply: planReply}, false)
	ctx := context.Background()

	result, err := f.svc.SendMessage(ctx, f.sess, assistant.SendInput{
		ThreadID: f.thread.ID,
		Content:  "Give me a checklist for the leak",
		Mode:     models.ModePlan,
	})

	require.NoError(t, err)
	assert.Equal(t, models.PhasePlanning, result.Phase)
	require.NotNil(t, result.ActionPlan)
	assert.Equal(t, "Kitchen Sink Leak", result.ActionPlan.Title)
	assert.Equal(t, []string{"Shut off the water supply", "Schedule a licensed plumber"}, result.ActionPlan.Checklist)
	assert.Equal(t, []string{"Habitability obligations require prompt repair"}, result.ActionPlan.KeyConsiderations)
}

func TestSendMessage_ModelFailureStoresFallback(t *testing.T) {
	// Arrange
	f := setup(t, &testutil.StaticLLM{Err: errors.New("quota exceeded")}, false)
	ctx := context.Background()

	// Act
	result, err := f.svc.SendMessage(ctx, f.sess, assistant.SendInput{
		ThreadID: f.thread.ID,
		Content:  "Draft an email about the repair",
		Mode:     models.ModeDraft,
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.Equal(t,
		"I apologize, but I encountered an error processing your request: quota exceeded. Please try again.",
		result.AssistantMessage.Content)
	assert.Nil(t, result.EmailDraft)
	assert.Equal(t, models.PhaseAssessment, result.Phase)
	assert.Equal(t, models.StatusError, result.Event.Status)
	assert.Equal(t, 0, result.Event.OutputTokens)

	metrics := f.collector.SessionMetrics()
	assert.Equal(t, 1, metrics.ErrorCount)
	assert.Equal(t, 0.0, metrics.SuccessRate)
}

func TestSendMessage_UsesSessionModeByDefault(t *testing.T) {
	client := &testutil.StaticLLM{Reply: "Noted."}
	f := setup(t, client, false)
	f.sess.Mode = models.ModePlan

	result, err := f.svc.SendMessage(context.Background(), f.sess, assistant.SendInput{ThreadID: f.thread.ID, Content: "Roof inspection due"})

	require.NoError(t, err)
	assert.Equal(t, "Plan", result.Event.Mode)
	assert.Equal(t, workflow.BuildPrompt(models.CategoryMaintenance, models.ModePlan, nil), client.Last.SystemPrompt)
}

func TestSendMessage_PhaseTags(t *testing.T) {
	f := setup(t, &testutil.StaticLLM{Reply: "Here is what I found.\n[[phase:refining]]"}, true)

	result, err := f.svc.SendMessage(context.Background(), f.sess, assistant.SendInput{
		ThreadID: f.thread.ID, Content: "Any update?", Mode: models.ModeAsk,
	})

	require.NoError(t, err)
	assert.Equal(t, models.PhaseRefining, result.Phase)
	assert.Equal(t, "Here is what I found.", result.AssistantMessage.Content)
}

func TestSendMessage_Errors(t *testing.T) {
	client := &testutil.MockLLM{}
	f := setup(t, client, false)
	ctx := context.Background()

	tests := []struct {
		name  string
		input assistant.SendInput
		check func(error) bool
	}{
		{"empty content", assistant.SendInput{ThreadID: f.thread.ID, Content: "   ", Mode: models.ModeAsk}, domainerrors.IsValidationError},
		{"bad mode", assistant.SendInput{ThreadID: f.thread.ID, Content: "hi", Mode: "Chat"}, domainerrors.IsValidationError},
		{"missing thread", assistant.SendInput{ThreadID: "nope", Content: "hi", Mode: models.ModeAsk}, domainerrors.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendMessage(ctx, f.sess, tt.input)
			require.Error(t, err)
			assert.True(t, tt.check(err), err)
		})
	}

	client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestSendMessage_OtherUsersThread(t *testing.T) {
	f := setup(t, &testutil.StaticLLM{Reply: "ok"}, false)
	intruder := models.NewSession("someone-else", "")

	_, err := f.svc.SendMessage(context.Background(), intruder, assistant.SendInput{
		ThreadID: f.thread.ID, Content: "hi", Mode: models.ModeAsk,
	})

	assert.True(t, domainerrors.IsNotFound(err))
}
