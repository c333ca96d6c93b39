package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/services/identity"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("apikey") != "anon-key" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"user-1","email":"pm@example.com","role":"authenticated"}`))
		case "Bearer broken-token":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient_Validation(t *testing.T) {
	_, err := identity.NewClient(nil)
	assert.Error(t, err)

	_, err = identity.NewClient(&identity.ClientConfig{APIKey: "k"})
	assert.True(t, domainerrors.IsSetupError(err))

	_, err = identity.NewClient(&identity.ClientConfig{BaseURL: "http://localhost"})
	assert.True(t, domainerrors.IsSetupError(err))
}

func TestGetUser(t *testing.T) {
	server := newServer(t)
	client, err := identity.NewClient(&identity.ClientConfig{BaseURL: server.URL + "/", APIKey: "anon-key"})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		user, err := client.GetUser(ctx, "good-token")
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, "pm@example.com", user.Email)
	})

	t.Run("rejected token", func(t *testing.T) {
		_, err := client.GetUser(ctx, "expired")
		assert.True(t, domainerrors.IsUnauthorized(err))
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := client.GetUser(ctx, "")
		assert.True(t, domainerrors.IsUnauthorized(err))
	})

	t.Run("provider failure", func(t *testing.T) {
		_, err := client.GetUser(ctx, "broken-token")
		assert.True(t, domainerrors.IsBackendError(err))
		assert.Contains(t, err.Error(), "500")
	})
}

func TestAuthorizeURL(t *testing.T) {
	client, err := identity.NewClient(&identity.ClientConfig{BaseURL: "https://auth.example.com", APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t,
		"https://auth.example.com/auth/v1/authorize?provider=google&redirect_to=http%3A%2F%2Flocalhost%3A3000%2Fcallback",
		client.AuthorizeURL("", "http://localhost:3000/callback"))
	assert.Equal(t, "https://auth.example.com/auth/v1/authorize?provider=github", client.AuthorizeURL("github", ""))
}

func TestStatic(t *testing.T) {
	var client identity.Client = identity.Static{User: identity.User{ID: "local-user"}}

	user, err := client.GetUser(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "local-user", user.ID)
}
