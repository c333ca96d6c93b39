// Package dotenv provides an environment-backed vault for development.
package dotenv

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pmservice/assistant-service/internal/core/vault"
)

// Vault resolves secrets from the process environment, after loading an
// optional .env file.
type Vault struct {
	lookup func(string) (string, bool)
}

// NewVault loads the given .env files (missing files are skipped) and
// returns a vault over the environment.
func NewVault(files ...string) (*Vault, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return &Vault{lookup: os.LookupEnv}, nil
}

// GetSecret reads an environment variable. The "dotenv://" scheme prefix
// is accepted for compatibility with secret URIs.
func (v *Vault) GetSecret(ctx context.Context, key string) (string, error) {
	key = strings.TrimPrefix(key, "dotenv://")
	if value, ok := v.lookup(key); ok && value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s", vault.ErrSecretNotFound, key)
}

// Ping always succeeds.
func (v *Vault) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (v *Vault) Close() error {
	return nil
}
