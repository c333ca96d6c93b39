package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
)

func TestDomainError_Error(t *testing.T) {
	err := domainerrors.NewValidationError("name is required", "name")
	assert.Equal(t, "VALIDATION_ERROR: name is required (name)", err.Error())

	err = domainerrors.NewUnauthorizedError("missing token")
	assert.Equal(t, "UNAUTHORIZED: missing token", err.Error())
}

func TestNewBackendError_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	err := domainerrors.NewBackendError("insert thread", cause)

	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.Equal(t, "insert thread failed", err.Message)
	assert.Equal(t, "connection refused", err.Details)
	assert.ErrorIs(t, err, cause)
}

func TestHelpers_MatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("send message: %w", domainerrors.NewModelError("gemini", fmt.Errorf("quota")))

	assert.True(t, domainerrors.IsModelError(wrapped))
	assert.False(t, domainerrors.IsBackendError(wrapped))

	domainErr, ok := domainerrors.GetDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, domainerrors.ErrCodeModel, domainErr.Code)
}

func TestHelpers_Codes(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", domainerrors.NewNotFoundError("thread", "t-1"), domainerrors.IsNotFound},
		{"validation", domainerrors.NewValidationError("bad", ""), domainerrors.IsValidationError},
		{"unauthorized", domainerrors.NewUnauthorizedError("no"), domainerrors.IsUnauthorized},
		{"backend", domainerrors.NewBackendError("op", nil), domainerrors.IsBackendError},
		{"setup", domainerrors.NewSetupError("GEMINI_API_KEY", "set it"), domainerrors.IsSetupError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}

	assert.False(t, domainerrors.IsNotFound(fmt.Errorf("plain")))
}
