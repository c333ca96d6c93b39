// Package config handles application configuration loading and management.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pmservice/assistant-service/internal/core/vault"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	ChatDB    ChatDBConfig
	Telemetry TelemetryConfig
	Vault     VaultConfig
	Identity  IdentityConfig
	LLM       LLMConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host        string
	Port        int
	GinMode     string
	CORSOrigins string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds the session cache configuration.
type CacheConfig struct {
	Type     string
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// ChatDBConfig selects the conversation store backend.
type ChatDBConfig struct {
	Type string
	URL  string
	Path string
}

// TelemetryConfig selects the telemetry sink and the optional trace export.
type TelemetryConfig struct {
	Sink           string
	MongoURI       string
	MongoDatabase  string
	ExportEndpoint string
	ExportAPIKey   string
	ExportProject  string
	ExportTimeout  time.Duration
	// Timezone formats the activity view. Empty uses the server's zone.
	Timezone string
}

// VaultConfig holds vault configuration.
type VaultConfig struct {
	Type          string
	SecretsFile   string
	EncryptionKey string
}

// IdentityConfig holds the hosted auth backend settings.
type IdentityConfig struct {
	URL         string
	AnonKey     string
	RedirectURL string
	// Disabled authenticates every request as LocalUserID.
	Disabled bool
}

// LocalUserID is the user every request runs as when auth is disabled.
const LocalUserID = "local-user"

// LLMConfig holds language model settings.
type LLMConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	PhaseTags   bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("CACHE_TYPE", "redis")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL_SECONDS", 86400)

	v.SetDefault("CHATDB_TYPE", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "pm_assistant.db")

	v.SetDefault("TELEMETRY_SINK", "chatdb")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "pm_assistant")
	v.SetDefault("TRACE_EXPORT_ENDPOINT", "")
	v.SetDefault("LANGSMITH_API_KEY", "")
	v.SetDefault("LANGSMITH_PROJECT", "pm-assistant")
	v.SetDefault("TRACE_EXPORT_TIMEOUT_SECONDS", 10)
	v.SetDefault("TELEMETRY_TIMEZONE", "")

	v.SetDefault("VAULT_TYPE", "dotenv")
	v.SetDefault("SECRETS_FILE", "secrets.toml")
	v.SetDefault("SECRETS_ENCRYPTION_KEY", "")

	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_ANON_KEY", "")
	v.SetDefault("SUPABASE_REDIRECT_URL", "http://localhost:3000")
	v.SetDefault("AUTH_DISABLED", false)

	v.SetDefault("LLM_PROVIDER", "gemini")
	v.SetDefault("LLM_MODEL", "")
	v.SetDefault("LLM_BASE_URL", "")
	v.SetDefault("LLM_TEMPERATURE", 0.3)
	v.SetDefault("LLM_MAX_TOKENS", 2048)
	v.SetDefault("LLM_PHASE_TAGS", false)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("OPENAI_API_KEY", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads configuration from defaults, an optional CONFIG_FILE, a .env
// file and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("SERVER_HOST"),
			Port:        v.GetInt("SERVER_PORT"),
			GinMode:     v.GetString("GIN_MODE"),
			CORSOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
		},
		Cache: CacheConfig{
			Type:     v.GetString("CACHE_TYPE"),
			URL:      v.GetString("REDIS_URL"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      time.Duration(v.GetInt("SESSION_TTL_SECONDS")) * time.Second,
		},
		ChatDB: ChatDBConfig{
			Type: strings.ToLower(v.GetString("CHATDB_TYPE")),
			URL:  v.GetString("DATABASE_URL"),
			Path: v.GetString("SQLITE_PATH"),
		},
		Telemetry: TelemetryConfig{
			Sink:           strings.ToLower(v.GetString("TELEMETRY_SINK")),
			MongoURI:       v.GetString("MONGODB_URI"),
			MongoDatabase:  v.GetString("MONGODB_DATABASE"),
			ExportEndpoint: v.GetString("TRACE_EXPORT_ENDPOINT"),
			ExportAPIKey:   v.GetString("LANGSMITH_API_KEY"),
			ExportProject:  v.GetString("LANGSMITH_PROJECT"),
			ExportTimeout:  time.Duration(v.GetInt("TRACE_EXPORT_TIMEOUT_SECONDS")) * time.Second,
			Timezone:       v.GetString("TELEMETRY_TIMEZONE"),
		},
		Vault: VaultConfig{
			Type:          strings.ToLower(v.GetString("VAULT_TYPE")),
			SecretsFile:   v.GetString("SECRETS_FILE"),
			EncryptionKey: v.GetString("SECRETS_ENCRYPTION_KEY"),
		},
		Identity: IdentityConfig{
			URL:         v.GetString("SUPABASE_URL"),
			AnonKey:     v.GetString("SUPABASE_ANON_KEY"),
			RedirectURL: v.GetString("SUPABASE_REDIRECT_URL"),
			Disabled:    v.GetBool("AUTH_DISABLED"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("LLM_PROVIDER")),
			Model:       v.GetString("LLM_MODEL"),
			BaseURL:     v.GetString("LLM_BASE_URL"),
			Temperature: float32(v.GetFloat64("LLM_TEMPERATURE")),
			MaxTokens:   v.GetInt("LLM_MAX_TOKENS"),
			PhaseTags:   v.GetBool("LLM_PHASE_TAGS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = v.GetString("OPENAI_API_KEY")
	default:
		cfg.LLM.APIKey = v.GetString("GEMINI_API_KEY")
	}
	return cfg
}

// LLMKeyName is the secret holding the API key of the configured provider.
func (c *Config) LLMKeyName() string {
	if c.LLM.Provider == "openai" {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// ResolveSecrets overlays credentials found in the vault. A vault value
// wins over the environment; keys the vault lacks keep their current value.
func ResolveSecrets(ctx context.Context, v vault.Vault, cfg *Config) error {
	targets := map[string]*string{
		cfg.LLMKeyName():         &cfg.LLM.APIKey,
		"DATABASE_URL":           &cfg.ChatDB.URL,
		"SUPABASE_URL":           &cfg.Identity.URL,
		"SUPABASE_ANON_KEY":      &cfg.Identity.AnonKey,
		"SECRETS_ENCRYPTION_KEY": &cfg.Vault.EncryptionKey,
		"LANGSMITH_API_KEY":      &cfg.Telemetry.ExportAPIKey,
		"MONGODB_URI":            &cfg.Telemetry.MongoURI,
	}

	for key, dst := range targets {
		value, err := v.GetSecret(ctx, key)
		switch {
		case errors.Is(err, vault.ErrSecretNotFound):
			continue
		case err != nil:
			return fmt.Errorf("failed to read %s from vault: %w", key, err)
		case value != "":
			*dst = value
		}
	}
	return nil
}

// Validate reports the first missing required credential as a setup error.
func (c *Config) Validate() error {
	hint := fmt.Sprintf("set it in %s or the environment", c.secretsSource())

	if c.LLM.APIKey == "" {
		return domainerrors.NewSetupError(c.LLMKeyName(), hint)
	}
	if c.ChatDB.Type == "postgres" && c.ChatDB.URL == "" {
		return domainerrors.NewSetupError("DATABASE_URL", hint)
	}
	if !c.Identity.Disabled {
		if c.Identity.URL == "" {
			return domainerrors.NewSetupError("SUPABASE_URL", hint)
		}
		if c.Identity.AnonKey == "" {
			return domainerrors.NewSetupError("SUPABASE_ANON_KEY", hint)
		}
	}
	if c.Telemetry.ExportEndpoint != "" && c.Telemetry.ExportAPIKey == "" {
		return domainerrors.NewSetupError("LANGSMITH_API_KEY", "trace export is enabled; "+hint)
	}
	return nil
}

func (c *Config) secretsSource() string {
	if vault.Type(c.Vault.Type) == vault.TypeFile {
		return c.Vault.SecretsFile
	}
	return ".env"
}
