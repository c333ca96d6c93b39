package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/config"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	filevault "github.com/pmservice/assistant-service/internal/infrastructure/vault/file"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "postgres", cfg.ChatDB.Type)
	assert.Equal(t, "chatdb", cfg.Telemetry.Sink)
	assert.False(t, cfg.LLM.PhaseTags)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	t.Setenv("CHATDB_TYPE", "sqlite")
	t.Setenv("AUTH_DISABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "OPENAI_API_KEY", cfg.LLMKeyName())
	assert.Equal(t, "sqlite", cfg.ChatDB.Type)
	assert.True(t, cfg.Identity.Disabled)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("server_port = 7070\nllm_model = \"gemini-1.5-pro\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "gemini-1.5-pro", cfg.LLM.Model)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestResolveSecrets_VaultWins(t *testing.T) {
	// Arrange
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("SUPABASE_URL", "https://env.example.com")

	path := filepath.Join(t.TempDir(), "secrets.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
GEMINI_API_KEY = "from-vault"

[supabase]
anon_key = "anon-from-vault"
`), 0o600))
	v, err := filevault.NewVault(path)
	require.NoError(t, err)

	cfg, err := config.Load()
	require.NoError(t, err)

	// Act
	require.NoError(t, config.ResolveSecrets(context.Background(), v, cfg))

	// Assert
	assert.Equal(t, "from-vault", cfg.LLM.APIKey)
	assert.Equal(t, "anon-from-vault", cfg.Identity.AnonKey)
	assert.Equal(t, "https://env.example.com", cfg.Identity.URL, "missing vault keys keep the env value")
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			ChatDB:   config.ChatDBConfig{Type: "postgres", URL: "postgres://localhost/pm"},
			Identity: config.IdentityConfig{URL: "https://auth.example.com", AnonKey: "anon"},
			LLM:      config.LLMConfig{Provider: "gemini", APIKey: "key"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantKey string
	}{
		{"complete", func(*config.Config) {}, ""},
		{"missing model key", func(c *config.Config) { c.LLM.APIKey = "" }, "GEMINI_API_KEY"},
		{"missing database url", func(c *config.Config) { c.ChatDB.URL = "" }, "DATABASE_URL"},
		{"sqlite needs no url", func(c *config.Config) { c.ChatDB = config.ChatDBConfig{Type: "sqlite"} }, ""},
		{"missing identity url", func(c *config.Config) { c.Identity.URL = "" }, "SUPABASE_URL"},
		{"auth disabled", func(c *config.Config) { c.Identity = config.IdentityConfig{Disabled: true} }, ""},
		{"export without key", func(c *config.Config) { c.Telemetry.ExportEndpoint = "https://traces" }, "LANGSMITH_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domainerrors.IsSetupError(err))
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}
