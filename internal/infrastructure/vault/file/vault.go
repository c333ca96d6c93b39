// Package file provides a vault backed by a local secrets file, read with
// viper. TOML, YAML and JSON are supported; keys are matched
// case-insensitively and may be nested ("supabase.url").
package file

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pmservice/assistant-service/internal/core/vault"
)

// Vault reads secrets from a file loaded once at construction.
type Vault struct {
	v    *viper.Viper
	path string
}

// NewVault reads the secrets file at path.
func NewVault(path string) (*Vault, error) {
	if path == "" {
		return nil, fmt.Errorf("secrets file path is required")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}

	return &Vault{v: v, path: path}, nil
}

// GetSecret returns the value stored under key. Flat keys are also looked
// up with underscores turned into dots, so GEMINI_API_KEY finds
// [gemini] api_key.
func (f *Vault) GetSecret(ctx context.Context, key string) (string, error) {
	key = strings.TrimPrefix(key, "file://")

	candidates := []string{key, strings.ReplaceAll(key, "_", ".")}
	if i := strings.Index(key, "_"); i > 0 {
		candidates = append(candidates, key[:i]+"."+key[i+1:])
	}

	for _, k := range candidates {
		if value := f.v.GetString(k); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %s", vault.ErrSecretNotFound, key)
}

// Ping always succeeds once the file has been read.
func (f *Vault) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (f *Vault) Close() error {
	return nil
}

// Path returns the secrets file location.
func (f *Vault) Path() string {
	return f.path
}
