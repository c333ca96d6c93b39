// Package chatdbtest holds the behavior checks every chatdb backend must
// pass. Backend packages call Run from their own tests.
package chatdbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/core/chatdb"
	"github.com/pmservice/assistant-service/internal/domain/models"
)

// Factory returns a fresh, migrated and empty backend.
type Factory func(t *testing.T) chatdb.Client

// Run executes the suite against backends produced by newClient.
func Run(t *testing.T, newClient Factory) {
	t.Run("ThreadRoundTrip", func(t *testing.T) { testThreadRoundTrip(t, newClient(t)) })
	t.Run("ListOrderAndFilter", func(t *testing.T) { testListOrderAndFilter(t, newClient(t)) })
	t.Run("UpdateThread", func(t *testing.T) { testUpdateThread(t, newClient(t)) })
	t.Run("MessagesKeepInsertionOrder", func(t *testing.T) { testMessageOrder(t, newClient(t)) })
	t.Run("WritesTouchThread", func(t *testing.T) { testWritesTouchThread(t, newClient(t)) })
	t.Run("TouchNeverPrecedesCreation", func(t *testing.T) { testTouchNeverPrecedesCreation(t, newClient(t)) })
	t.Run("AppendToMissingThread", func(t *testing.T) { testAppendToMissingThread(t, newClient(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newClient(t)) })
	t.Run("ClearMessagesKeepsArtifacts", func(t *testing.T) { testClearMessages(t, newClient(t)) })
	t.Run("Telemetry", func(t *testing.T) { testTelemetry(t, newClient(t)) })
}

func createThread(t *testing.T, db chatdb.Client, name string, category models.Category, createdAt time.Time) *models.Thread {
	t.Helper()
	thread := models.NewThread("user-1", name, category)
	thread.CreatedAt = createdAt
	thread.UpdatedAt = createdAt
	require.NoError(t, db.Threads().Create(context.Background(), thread))
	return thread
}

func testThreadRoundTrip(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	created := createThread(t, db, "Unit 12 lease renewal", models.CategoryLease, time.Now().UTC().Add(-time.Minute))

	got, err := db.Threads().Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "Unit 12 lease renewal", got.Name)
	assert.Equal(t, models.CategoryLease, got.Category)
	assert.Equal(t, models.PhaseAssessment, got.Phase)
	assert.Equal(t, 0, got.MessageCount)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Second)

	missing, err := db.Threads().Get(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testListOrderAndFilter(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	oldest := createThread(t, db, "oldest", models.CategoryLease, base)
	middle := createThread(t, db, "middle", models.CategoryMaintenance, base.Add(time.Minute))
	newest := createThread(t, db, "newest", models.CategoryLease, base.Add(2*time.Minute))

	require.NoError(t, db.Messages().Append(ctx, models.NewMessage(middle.ID, models.RoleUser, "hi")))

	all, err := db.Threads().List(ctx, chatdb.ListThreadsOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, ids(all))
	assert.Equal(t, 1, all[1].MessageCount)

	again, err := db.Threads().List(ctx, chatdb.ListThreadsOptions{})
	require.NoError(t, err)
	assert.Equal(t, ids(all), ids(again))

	leases, err := db.Threads().List(ctx, chatdb.ListThreadsOptions{Category: models.CategoryLease})
	require.NoError(t, err)
	assert.Equal(t, []string{newest.ID, oldest.ID}, ids(leases))

	none, err := db.Threads().List(ctx, chatdb.ListThreadsOptions{UserID: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testUpdateThread(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	thread := createThread(t, db, "before", models.CategoryLease, time.Now().UTC())

	name := "after"
	category := models.CategoryTenant
	phase := models.PhasePlanning
	ok, err := db.Threads().Update(ctx, thread.ID, chatdb.ThreadUpdate{Name: &name, Category: &category, Phase: &phase})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := db.Threads().Get(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
	assert.Equal(t, models.CategoryTenant, got.Category)
	assert.Equal(t, models.PhasePlanning, got.Phase)

	ok, err = db.Threads().Update(ctx, "00000000-0000-0000-0000-000000000000", chatdb.ThreadUpdate{Name: &name})
	require.NoError(t, err)
	assert.False(t, ok)
}

func testMessageOrder(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	thread := createThread(t, db, "order", models.CategoryMaintenance, time.Now().UTC())

	same := time.Now().UTC()
	var want []string
	for i, content := range []string{"first", "second", "third", "fourth"} {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		msg := models.NewMessage(thread.ID, role, content)
		msg.CreatedAt = same
		require.NoError(t, db.Messages().Append(ctx, msg))
		want = append(want, content)
	}

	msgs, err := db.Messages().ListByThread(ctx, thread.ID)
	require.NoError(t, err)

	var got []string
	for _, m := range msgs {
		got = append(got, m.Content)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
}

func testWritesTouchThread(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	thread := createThread(t, db, "touch", models.CategoryTenant, time.Now().UTC().Add(-time.Hour))

	require.NoError(t, db.Messages().Append(ctx, models.NewMessage(thread.ID, models.RoleUser, "hello")))

	got, err := db.Threads().Get(ctx, thread.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(thread.UpdatedAt.Add(30*time.Minute)), "updated_at was not bumped: %s", got.UpdatedAt)
}

func testTouchNeverPrecedesCreation(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	// A creation stamp slightly ahead of the database clock, as with a
	// write in the same second or a skewed client.
	thread := createThread(t, db, "fresh", models.CategoryTenant, time.Now().UTC().Add(2*time.Second))

	require.NoError(t, db.Messages().Append(ctx, models.NewMessage(thread.ID, models.RoleUser, "hello")))

	got, err := db.Threads().Get(ctx, thread.ID)
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt), "updated_at %s precedes created_at %s", got.UpdatedAt, got.CreatedAt)
}

func testAppendToMissingThread(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	missing := "00000000-0000-0000-0000-000000000000"

	err := db.Messages().Append(ctx, models.NewMessage(missing, models.RoleUser, "orphan"))
	assert.ErrorIs(t, err, chatdb.ErrThreadNotFound)

	err = db.Artifacts().AddEmailDraft(ctx, models.NewEmailDraft(missing, "s", "r", "b", nil))
	assert.ErrorIs(t, err, chatdb.ErrThreadNotFound)
}

func testDeleteCascades(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	thread := createThread(t, db, "doomed", models.CategoryLease, time.Now().UTC())

	require.NoError(t, db.Messages().Append(ctx, models.NewMessage(thread.ID, models.RoleUser, "hi")))
	require.NoError(t, db.Artifacts().AddEmailDraft(ctx, models.NewEmailDraft(thread.ID, "Subject", "Tenant", "Body", map[string]string{"mode": "Draft"})))
	require.NoError(t, db.Artifacts().AddActionPlan(ctx, models.NewActionPlan(thread.ID, "Plan", []string{"a"}, nil)))

	deleted, err := db.Threads().Delete(ctx, thread.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := db.Threads().Get(ctx, thread.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	msgs, err := db.Messages().ListByThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	drafts, err := db.Artifacts().ListEmailDrafts(ctx, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	plans, err := db.Artifacts().ListActionPlans(ctx, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, plans)

	deleted, err = db.Threads().Delete(ctx, thread.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testClearMessages(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	thread := createThread(t, db, "clear", models.CategoryMaintenance, time.Now().UTC())

	require.NoError(t, db.Messages().Append(ctx, models.NewMessage(thread.ID, models.RoleUser, "one")))
	require.NoError(t, db.Messages().Append(ctx, models.NewMessage(thread.ID, models.RoleAssistant, "two")))
	require.NoError(t, db.Artifacts().AddEmailDraft(ctx, models.NewEmailDraft(thread.ID, "Leak repair", "Vendor", "Please come by.", map[string]string{"category": string(models.CategoryMaintenance)})))
	require.NoError(t, db.Artifacts().AddActionPlan(ctx, models.NewActionPlan(thread.ID, "Fix the sink", []string{"Shut off water", "Call plumber"}, []string{"Tenant access notice"})))

	n, err := db.Messages().DeleteByThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	msgs, err := db.Messages().ListByThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	got, err := db.Threads().Get(ctx, thread.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	drafts, err := db.Artifacts().ListEmailDrafts(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Leak repair", drafts[0].Subject)
	assert.Equal(t, "Vendor", drafts[0].Recipient)
	assert.Equal(t, string(models.CategoryMaintenance), drafts[0].Metadata["category"])

	plans, err := db.Artifacts().ListActionPlans(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, []string{"Shut off water", "Call plumber"}, plans[0].Checklist)
	assert.Equal(t, []string{"Tenant access notice"}, plans[0].KeyConsiderations)
}

func testTelemetry(t *testing.T, db chatdb.Client) {
	ctx := context.Background()
	base := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)

	for i, status := range []models.EventStatus{models.StatusSuccess, models.StatusError, models.StatusSuccess} {
		event := &models.TelemetryEvent{
			ID:               uuid.NewString(),
			ThreadID:         "thread-1",
			Category:         string(models.CategoryLease),
			Mode:             string(models.ModeAsk),
			LatencyMs:        float64(100 * (i + 1)),
			InputTokens:      3,
			OutputTokens:     2,
			TokensUsed:       5,
			EstimatedCostUSD: 0.00001,
			ModelName:        "gemini-flash-latest",
			Status:           status,
			Timestamp:        base.Add(time.Duration(i) * time.Hour),
		}
		if status == models.StatusError {
			event.ErrorMessage = "quota exceeded"
		}
		require.NoError(t, db.Telemetry().Insert(ctx, event))
	}

	recent, err := db.Telemetry().ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 300.0, recent[0].LatencyMs)
	assert.Equal(t, models.StatusError, recent[1].Status)
	assert.Equal(t, "quota exceeded", recent[1].ErrorMessage)

	since, err := db.Telemetry().ListSince(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, 200.0, since[0].LatencyMs)
	assert.Equal(t, 300.0, since[1].LatencyMs)
}

func ids(threads []*models.Thread) []string {
	out := make([]string, 0, len(threads))
	for _, t := range threads {
		out = append(out, t.ID)
	}
	return out
}
