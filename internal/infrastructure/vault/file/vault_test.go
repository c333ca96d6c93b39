package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/core/vault"
	filevault "github.com/pmservice/assistant-service/internal/infrastructure/vault/file"
)

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVault_GetSecret(t *testing.T) {
	path := writeSecrets(t, `
GEMINI_API_KEY = "flat-key"

[supabase]
url = "https://project.supabase.co"
anon_key = "anon"
`)
	v, err := filevault.NewVault(path)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		key  string
		want string
	}{
		{"GEMINI_API_KEY", "flat-key"},
		{"SUPABASE_URL", "https://project.supabase.co"},
		{"SUPABASE_ANON_KEY", "anon"},
		{"supabase.url", "https://project.supabase.co"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := v.GetSecret(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVault_GetSecret_NotFound(t *testing.T) {
	v, err := filevault.NewVault(writeSecrets(t, `OTHER = "x"`))
	require.NoError(t, err)

	_, err = v.GetSecret(context.Background(), "DATABASE_URL")

	assert.ErrorIs(t, err, vault.ErrSecretNotFound)
}

func TestNewVault_MissingFile(t *testing.T) {
	_, err := filevault.NewVault(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)

	_, err = filevault.NewVault("")
	assert.Error(t, err)
}
