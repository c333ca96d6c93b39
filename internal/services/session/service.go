// Package session stores the per-user conversation context in the cache.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmservice/assistant-service/internal/core/cache"
	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/pkg/encryption"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 24 * time.Hour

// Service loads and stores session state.
type Service interface {
	// Get returns the stored session for userID, or a fresh default session
	// when none is stored. A fresh session is not saved until Save is called.
	Get(ctx context.Context, userID, email string) (*models.Session, error)

	// Save stores the session and refreshes its TTL.
	Save(ctx context.Context, sess *models.Session) error

	// Delete removes the stored session.
	Delete(ctx context.Context, userID string) error

	// BuildCacheKey generates the cache key for a user's session.
	BuildCacheKey(userID string) string
}

type service struct {
	cache     cache.Cache
	encryptor encryption.Encryptor
	ttl       time.Duration
	logger    zerolog.Logger
}

// Config holds the configuration for the session service.
type Config struct {
	Cache     cache.Cache
	Encryptor encryption.Encryptor
	TTL       time.Duration
	Logger    zerolog.Logger
}

// NewService creates a new session service.
func NewService(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.Encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}

	return &service{
		cache:     cfg.Cache,
		encryptor: cfg.Encryptor,
		ttl:       ttl,
		logger:    cfg.Logger,
	}, nil
}

// Get loads the session. Entries that no longer decrypt or decode (for
// example after a key rotation) are dropped and replaced by a default session.
func (s *service) Get(ctx context.Context, userID, email string) (*models.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	key := s.BuildCacheKey(userID)

	sealed, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}
	if sealed == nil {
		return models.NewSession(userID, email), nil
	}

	data, err := s.encryptor.Decrypt(string(sealed), []byte(userID))
	if err != nil {
		s.discard(ctx, key, err)
		return models.NewSession(userID, email), nil
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.discard(ctx, key, err)
		return models.NewSession(userID, email), nil
	}

	if !sess.Mode.IsValid() {
		sess.Mode = models.ModeAsk
	}
	if email != "" {
		sess.Email = email
	}
	return &sess, nil
}

func (s *service) discard(ctx context.Context, key string, cause error) {
	s.logger.Warn().Err(cause).Str("key", key).Msg("dropping unreadable session")
	_, _ = s.cache.Delete(ctx, key)
}

// Save stores the session.
func (s *service) Save(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return fmt.Errorf("session is required")
	}
	if sess.UserID == "" {
		return fmt.Errorf("session user ID is required")
	}

	sess.UpdatedAt = time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	sealed, err := s.encryptor.Encrypt(data, []byte(sess.UserID))
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	if err := s.cache.Set(ctx, s.BuildCacheKey(sess.UserID), []byte(sealed), s.ttl); err != nil {
		return fmt.Errorf("failed to store session in cache: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *service) Delete(ctx context.Context, userID string) error {
	if _, err := s.cache.Delete(ctx, s.BuildCacheKey(userID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *service) BuildCacheKey(userID string) string {
	return "session:" + userID
}
