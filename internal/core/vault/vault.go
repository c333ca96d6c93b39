// Package vault defines the read-only secrets store consulted before the
// environment when resolving credentials.
package vault

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned when the store has no value for a key.
var ErrSecretNotFound = errors.New("secret not found")

// Vault defines the interface for secrets lookups.
type Vault interface {
	// GetSecret returns the value stored under key, or ErrSecretNotFound.
	GetSecret(ctx context.Context, key string) (string, error)

	// Ping checks if the vault is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the vault.
	Close() error
}
