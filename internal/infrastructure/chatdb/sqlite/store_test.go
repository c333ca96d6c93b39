package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/core/chatdb"
	"github.com/pmservice/assistant-service/internal/core/chatdb/chatdbtest"
	"github.com/pmservice/assistant-service/internal/infrastructure/chatdb/sqlite"
)

func newStore(t *testing.T) chatdb.Client {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.NewStore(ctx, filepath.Join(t.TempDir(), "assistant.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore(t *testing.T) {
	chatdbtest.Run(t, newStore)
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}
