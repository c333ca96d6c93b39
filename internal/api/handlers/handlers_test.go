package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/api/handlers"
	"github.com/pmservice/assistant-service/internal/api/middleware"
	"github.com/pmservice/assistant-service/internal/api/routes"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/domain/models"
	rediscache "github.com/pmservice/assistant-service/internal/infrastructure/cache/redis"
	"github.com/pmservice/assistant-service/internal/infrastructure/chatdb/memory"
	"github.com/pmservice/assistant-service/internal/pkg/encryption"
	"github.com/pmservice/assistant-service/internal/services/assistant"
	"github.com/pmservice/assistant-service/internal/services/conversation"
	"github.com/pmservice/assistant-service/internal/services/identity"
	"github.com/pmservice/assistant-service/internal/services/session"
	"github.com/pmservice/assistant-service/internal/services/telemetry"
	"github.com/pmservice/assistant-service/internal/services/workflow"
	"github.com/pmservice/assistant-service/internal/testutil"
)

const base = routes.BasePath

// tokenIdentity accepts a fixed set of tokens.
type tokenIdentity map[string]identity.User

func (t tokenIdentity) GetUser(_ context.Context, token string) (*identity.User, error) {
	u, ok := t[token]
	if !ok {
		return nil, domainerrors.NewUnauthorizedError("invalid or expired access token")
	}
	return &u, nil
}

func (t tokenIdentity) AuthorizeURL(provider, redirectTo string) string {
	return "https://auth.example.com/auth/v1/authorize?provider=" + provider + "&redirect_to=" + redirectTo
}

type testServer struct {
	router http.Handler
	redis  *miniredis.Miniredis
	llm    *testutil.StaticLLM
}

const otherToken = "token-other"

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	cacheClient, err := rediscache.NewCache(context.Background(), rediscache.Config{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cacheClient.Close() })

	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.New(key)
	require.NoError(t, err)

	sessions, err := session.NewService(&session.Config{Cache: cacheClient, Encryptor: enc, TTL: time.Hour, Logger: zerolog.Nop()})
	require.NoError(t, err)

	store := memory.NewStore()
	conversations, err := conversation.NewService(&conversation.Config{DB: store, Logger: zerolog.Nop()})
	require.NoError(t, err)

	collector, err := telemetry.NewCollector(&telemetry.Config{Sink: store.Telemetry(), Logger: zerolog.Nop()})
	require.NoError(t, err)

	llm := &testutil.StaticLLM{Reply: "A) Is water actively leaking?\nB) Which unit?\nC) Any damage?"}
	assistantService, err := assistant.NewService(&assistant.Config{
		Conversations: conversations,
		Classifier:    workflow.NewClassifier(false),
		LLM:           llm,
		Telemetry:     collector,
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)

	ids := tokenIdentity{
		testutil.TestToken: {ID: testutil.TestUserID, Email: testutil.TestEmail},
		otherToken:         {ID: "user-other", Email: "other@example.com"},
	}

	router := testutil.SetupTestRouter()
	routes.SetupWithMiddleware(router, &routes.Config{
		HealthHandler:     handlers.NewHealthHandler(cacheClient, store),
		AuthHandler:       handlers.NewAuthHandler(ids, "http://localhost:3000"),
		SessionHandler:    handlers.NewSessionHandler(sessions, conversations),
		ThreadsHandler:    handlers.NewThreadsHandler(conversations),
		MessagesHandler:   handlers.NewMessagesHandler(conversations, assistantService),
		ArtifactsHandler:  handlers.NewArtifactsHandler(conversations),
		TelemetryHandler:  handlers.NewTelemetryHandler(collector),
		AuthMiddleware:    middleware.NewAuthMiddleware(ids),
		SessionMiddleware: middleware.NewSessionMiddleware(sessions),
	}, middleware.NewLoggingMiddleware(zerolog.Nop()), middleware.NewErrorMiddleware(), middleware.DefaultCORSConfig())

	return &testServer{router: router, redis: mr, llm: llm}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httpResult {
	return s.doAs(t, testutil.TestToken, method, path, body)
}

func (s *testServer) doAs(t *testing.T, token, method, path string, body interface{}) *httpResult {
	t.Helper()
	w := testutil.PerformRequest(s.router, method, base+path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
	return &httpResult{t: t, code: w.Code, recorder: w}
}

func (s *testServer) createThread(t *testing.T, name string, category models.Category) models.Thread {
	t.Helper()
	res := s.do(t, http.MethodPost, "/threads", map[string]string{"name": name, "category": string(category)})
	res.requireStatus(http.StatusCreated)

	var thread models.Thread
	res.decode(&thread)
	return thread
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := testutil.PerformRequest(s.router, http.MethodGet, base+"/health", nil, nil)
	testutil.AssertStatusCode(t, http.StatusOK, w)

	s.redis.Close()
	w = testutil.PerformRequest(s.router, http.MethodGet, base+"/ready", nil, nil)
	testutil.AssertStatusCode(t, http.StatusServiceUnavailable, w)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	w := testutil.PerformRequest(s.router, http.MethodGet, base+"/auth/login?provider=google", nil, nil)

	testutil.AssertStatusCode(t, http.StatusOK, w)
	var resp map[string]string
	testutil.ParseJSONResponse(t, w, &resp)
	assert.Contains(t, resp["url"], "provider=google")
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"missing header", nil},
		{"wrong scheme", map[string]string{"Authorization": "Basic abc"}},
		{"unknown token", map[string]string{"Authorization": "Bearer nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.PerformRequest(s.router, http.MethodGet, base+"/threads", nil, tt.headers)

			testutil.AssertStatusCode(t, http.StatusUnauthorized, w)
			var resp map[string]string
			testutil.ParseJSONResponse(t, w, &resp)
			assert.Equal(t, domainerrors.ErrCodeUnauthorized, resp["code"])
		})
	}
}

func TestThreadLifecycle(t *testing.T) {
	// Arrange
	s := newTestServer(t)

	// Act
	thread := s.createThread(t, testutil.TestThreadA, models.CategoryLease)

	// Assert
	assert.Equal(t, models.PhaseAssessment, thread.Phase)

	var sess models.Session
	s.do(t, http.MethodGet, "/session", nil).requireStatus(http.StatusOK).decode(&sess)
	assert.Equal(t, thread.ID, sess.ActiveThreadID, "first thread becomes active")

	s.do(t, http.MethodPatch, "/threads/"+thread.ID, map[string]any{"name": "Unit 4B renewal", "color": "red"}).
		requireStatus(http.StatusOK)

	var got models.Thread
	s.do(t, http.MethodGet, "/threads/"+thread.ID, nil).requireStatus(http.StatusOK).decode(&got)
	assert.Equal(t, "Unit 4B renewal", got.Name)

	s.do(t, http.MethodDelete, "/threads/"+thread.ID, nil).requireStatus(http.StatusBadRequest)
	s.do(t, http.MethodGet, "/threads/"+thread.ID, nil).requireStatus(http.StatusOK)

	s.do(t, http.MethodDelete, "/threads/"+thread.ID+"?confirm=true", nil).requireStatus(http.StatusNoContent)
	s.do(t, http.MethodGet, "/threads/"+thread.ID, nil).requireStatus(http.StatusNotFound)

	s.do(t, http.MethodGet, "/session", nil).requireStatus(http.StatusOK).decode(&sess)
	assert.Empty(t, sess.ActiveThreadID, "deleting the active thread clears it")
}

func TestCreateThread_Validation(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/threads", map[string]string{"name": "x", "category": "Landscaping"}).
		requireStatus(http.StatusBadRequest)
	s.do(t, http.MethodPost, "/threads", map[string]string{"category": string(models.CategoryLease)}).
		requireStatus(http.StatusBadRequest)
}

func TestListThreads_Filters(t *testing.T) {
	s := newTestServer(t)
	s.createThread(t, "Lease", models.CategoryLease)
	s.createThread(t, "Leak", models.CategoryMaintenance)
	s.doAs(t, otherToken, http.MethodPost, "/threads",
		map[string]string{"name": "Not mine", "category": string(models.CategoryLease)}).requireStatus(http.StatusCreated)

	var all, lease, filtered struct {
		Threads []models.Thread `json:"threads"`
		Total   int             `json:"total"`
	}
	s.do(t, http.MethodGet, "/threads", nil).requireStatus(http.StatusOK).decode(&all)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, "Leak", all.Threads[0].Name, "newest first")

	s.do(t, http.MethodGet, "/threads?category=Lease%20%26%20Contracts", nil).requireStatus(http.StatusOK).decode(&lease)
	require.Equal(t, 1, lease.Total)
	assert.Equal(t, "Lease", lease.Threads[0].Name)

	s.do(t, http.MethodPut, "/session", map[string]string{"categoryFilter": string(models.CategoryMaintenance)}).
		requireStatus(http.StatusOK)
	s.do(t, http.MethodGet, "/threads", nil).requireStatus(http.StatusOK).decode(&filtered)
	require.Equal(t, 1, filtered.Total)
	assert.Equal(t, "Leak", filtered.Threads[0].Name)
}

func TestOtherUsersThreadIsHidden(t *testing.T) {
	s := newTestServer(t)
	thread := s.createThread(t, testutil.TestThreadA, models.CategoryLease)

	s.doAs(t, otherToken, http.MethodGet, "/threads/"+thread.ID, nil).requireStatus(http.StatusNotFound)
	s.doAs(t, otherToken, http.MethodDelete, "/threads/"+thread.ID+"?confirm=true", nil).requireStatus(http.StatusNotFound)
	s.doAs(t, otherToken, http.MethodPost, "/threads/"+thread.ID+"/messages", map[string]string{"content": "hi"}).
		requireStatus(http.StatusNotFound)
}

func TestSendMessage(t *testing.T) {
	// Arrange
	s := newTestServer(t)
	thread := s.createThread(t, "Sink leak", models.CategoryMaintenance)

	// Act
	var result struct {
		AssistantMessage models.Message `json:"assistantMessage"`
		Phase            models.Phase   `json:"workflowPhase"`
		Failed           bool           `json:"failed"`
	}
	s.do(t, http.MethodPost, "/threads/"+thread.ID+"/messages", map[string]string{"content": "Kitchen sink leaking", "mode": "ask"}).
		requireStatus(http.StatusOK).decode(&result)

	// Assert
	assert.False(t, result.Failed)
	assert.Equal(t, models.PhaseGathering, result.Phase)
	assert.Equal(t, s.llm.Reply, result.AssistantMessage.Content)

	var messages struct {
		Messages []models.Message `json:"messages"`
		Total    int              `json:"total"`
	}
	s.do(t, http.MethodGet, "/threads/"+thread.ID+"/messages", nil).requireStatus(http.StatusOK).decode(&messages)
	assert.Equal(t, 2, messages.Total)

	var metrics telemetry.Metrics
	s.do(t, http.MethodGet, "/telemetry/metrics", nil).requireStatus(http.StatusOK).decode(&metrics)
	assert.Equal(t, 1, metrics.TotalMessages)
	assert.Equal(t, 1, metrics.ModeDistribution["Ask"])

	var activity struct {
		Activity []telemetry.Activity `json:"activity"`
	}
	s.do(t, http.MethodGet, "/telemetry/activity?limit=5", nil).requireStatus(http.StatusOK).decode(&activity)
	require.Len(t, activity.Activity, 1)
	assert.Equal(t, "Ask Message", activity.Activity[0].Action)

	s.do(t, http.MethodDelete, "/threads/"+thread.ID+"/messages", nil).requireStatus(http.StatusNoContent)
	s.do(t, http.MethodGet, "/threads/"+thread.ID+"/messages", nil).requireStatus(http.StatusOK).decode(&messages)
	assert.Equal(t, 0, messages.Total)
}

func TestSendMessage_Validation(t *testing.T) {
	s := newTestServer(t)
	thread := s.createThread(t, "Sink leak", models.CategoryMaintenance)

	s.do(t, http.MethodPost, "/threads/"+thread.ID+"/messages", map[string]string{"content": ""}).
		requireStatus(http.StatusBadRequest)
	s.do(t, http.MethodPost, "/threads/"+thread.ID+"/messages", map[string]string{"content": "hi", "mode": "Chat"}).
		requireStatus(http.StatusBadRequest)
	s.do(t, http.MethodGet, "/telemetry/activity?limit=0", nil).requireStatus(http.StatusBadRequest)
}

func TestSessionModeAndActiveThread(t *testing.T) {
	s := newTestServer(t)
	first := s.createThread(t, "First", models.CategoryLease)
	second := s.createThread(t, "Second", models.CategoryTenant)

	var sess models.Session
	s.do(t, http.MethodPut, "/session", map[string]string{"mode": "draft"}).requireStatus(http.StatusOK).decode(&sess)
	assert.Equal(t, models.ModeDraft, sess.Mode)
	assert.Equal(t, first.ID, sess.ActiveThreadID)

	s.do(t, http.MethodPut, "/session", map[string]string{"mode": "Chat"}).requireStatus(http.StatusBadRequest)

	s.do(t, http.MethodPut, "/session/active-thread", map[string]string{"threadId": second.ID}).requireStatus(http.StatusOK)
	s.do(t, http.MethodPut, "/session/active-thread", map[string]string{"threadId": "missing"}).requireStatus(http.StatusNotFound)

	var active struct {
		Thread *models.Thread `json:"thread"`
	}
	s.do(t, http.MethodGet, "/session/active-thread", nil).requireStatus(http.StatusOK).decode(&active)
	require.NotNil(t, active.Thread)
	assert.Equal(t, second.ID, active.Thread.ID)

	s.do(t, http.MethodDelete, "/session", nil).requireStatus(http.StatusNoContent)
	s.do(t, http.MethodGet, "/session", nil).requireStatus(http.StatusOK).decode(&sess)
	assert.Equal(t, models.ModeAsk, sess.Mode, "sign out resets the session")
	assert.Empty(t, sess.ActiveThreadID)
}

func TestArtifacts(t *testing.T) {
	s := newTestServer(t)
	thread := s.createThread(t, "Leak", models.CategoryMaintenance)

	s.do(t, http.MethodPost, "/threads/"+thread.ID+"/email-drafts", map[string]any{
		"subject": "Repair visit", "recipient": "Jordan", "body": "Dear Jordan,",
	}).requireStatus(http.StatusCreated)
	s.do(t, http.MethodPost, "/threads/"+thread.ID+"/email-drafts", map[string]any{"subject": "No body"}).
		requireStatus(http.StatusBadRequest)
	s.do(t, http.MethodPost, "/threads/"+thread.ID+"/action-plans", map[string]any{
		"title": "Leak plan", "checklist": []string{"Call plumber"},
	}).requireStatus(http.StatusCreated)

	var got models.Thread
	s.do(t, http.MethodGet, "/threads/"+thread.ID, nil).requireStatus(http.StatusOK).decode(&got)
	assert.Len(t, got.EmailDrafts, 1)
	require.Len(t, got.ActionPlans, 1)
	assert.Equal(t, []string{"Call plumber"}, got.ActionPlans[0].Checklist)
}
