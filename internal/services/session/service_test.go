package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/domain/models"
	rediscache "github.com/pmservice/assistant-service/internal/infrastructure/cache/redis"
	"github.com/pmservice/assistant-service/internal/pkg/encryption"
	"github.com/pmservice/assistant-service/internal/services/session"
	"github.com/pmservice/assistant-service/internal/testutil"
)

func newRedisService(t *testing.T, key string) (session.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := rediscache.NewCache(context.Background(), rediscache.Config{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	enc, err := encryption.New(key)
	require.NoError(t, err)

	svc, err := session.NewService(&session.Config{Cache: c, Encryptor: enc, TTL: time.Hour, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return svc, mr
}

func TestNewService_Validation(t *testing.T) {
	_, err := session.NewService(nil)
	assert.ErrorContains(t, err, "config is required")

	_, err = session.NewService(&session.Config{Encryptor: encryption.NewNoOpEncryptor()})
	assert.ErrorContains(t, err, "cache is required")

	_, err = session.NewService(&session.Config{Cache: &testutil.MockCache{}})
	assert.ErrorContains(t, err, "encryptor is required")
}

func TestService_GetReturnsDefaultsWhenMissing(t *testing.T) {
	svc, _ := newRedisService(t, "")

	sess, err := svc.Get(context.Background(), testutil.TestUserID, testutil.TestEmail)

	require.NoError(t, err)
	assert.Equal(t, testutil.TestUserID, sess.UserID)
	assert.Equal(t, models.ModeAsk, sess.Mode)
	assert.False(t, sess.HasActiveThread())
}

func TestService_SaveAndGetEncrypted(t *testing.T) {
	// Arrange
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	svc, mr := newRedisService(t, key)
	ctx := context.Background()

	sess := testutil.NewTestSession()
	sess.ActiveThreadID = "thread-1"
	sess.Mode = models.ModePlan
	sess.CategoryFilter = models.CategoryMaintenance

	// Act
	require.NoError(t, svc.Save(ctx, sess))
	got, err := svc.Get(ctx, testutil.TestUserID, "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "thread-1", got.ActiveThreadID)
	assert.Equal(t, models.ModePlan, got.Mode)
	assert.Equal(t, models.CategoryMaintenance, got.CategoryFilter)
	assert.Equal(t, testutil.TestEmail, got.Email)

	raw, err := mr.Get(svc.BuildCacheKey(testutil.TestUserID))
	require.NoError(t, err)
	assert.NotContains(t, raw, "thread-1")
	assert.Equal(t, time.Hour, mr.TTL(svc.BuildCacheKey(testutil.TestUserID)))
}

func TestService_UnreadableEntryIsDropped(t *testing.T) {
	svc, mr := newRedisService(t, "")
	key := svc.BuildCacheKey(testutil.TestUserID)
	require.NoError(t, mr.Set(key, "%%% not base64"))

	sess, err := svc.Get(context.Background(), testutil.TestUserID, "")

	require.NoError(t, err)
	assert.Equal(t, models.ModeAsk, sess.Mode)
	assert.False(t, mr.Exists(key))
}

func TestService_Delete(t *testing.T) {
	svc, mr := newRedisService(t, "")
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, testutil.NewTestSession()))

	require.NoError(t, svc.Delete(ctx, testutil.TestUserID))

	assert.False(t, mr.Exists(svc.BuildCacheKey(testutil.TestUserID)))
}

func TestService_CacheErrors(t *testing.T) {
	// Arrange
	mockCache := &testutil.MockCache{}
	mockCache.On("Get", mock.Anything, "session:"+testutil.TestUserID).Return(nil, errors.New("connection reset"))
	mockCache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("read only"))

	svc, err := session.NewService(&session.Config{Cache: mockCache, Encryptor: encryption.NewNoOpEncryptor()})
	require.NoError(t, err)

	// Act
	_, getErr := svc.Get(context.Background(), testutil.TestUserID, "")
	saveErr := svc.Save(context.Background(), testutil.NewTestSession())

	// Assert
	assert.ErrorContains(t, getErr, "failed to get session")
	assert.ErrorContains(t, saveErr, "failed to store session")
	mockCache.AssertExpectations(t)
}

func TestService_SaveRequiresUser(t *testing.T) {
	svc, _ := newRedisService(t, "")

	assert.Error(t, svc.Save(context.Background(), nil))
	assert.Error(t, svc.Save(context.Background(), &models.Session{}))
}
