// Package identity verifies access tokens against the hosted auth backend
// and builds its OAuth sign-in URL.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
)

// DefaultProvider is the OAuth provider used for sign-in.
const DefaultProvider = "google"

// User is the signed-in identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Client defines the identity operations the API needs.
type Client interface {
	// GetUser resolves an access token to its user.
	GetUser(ctx context.Context, accessToken string) (*User, error)

	// AuthorizeURL returns the URL that starts the OAuth flow.
	AuthorizeURL(provider, redirectTo string) string
}

// ClientConfig holds the configuration for the identity client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new identity client.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.BaseURL == "" {
		return nil, domainerrors.NewSetupError("SUPABASE_URL", "set it in the secrets file or the environment")
	}
	if cfg.APIKey == "" {
		return nil, domainerrors.NewSetupError("SUPABASE_ANON_KEY", "set it in the secrets file or the environment")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

func (c *client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, domainerrors.NewUnauthorizedError("missing access token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.NewBackendError("identity lookup", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domainerrors.NewUnauthorizedError("invalid or expired access token")
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domainerrors.NewBackendError("identity lookup",
			fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, domainerrors.NewBackendError("identity lookup", fmt.Errorf("failed to decode response: %w", err))
	}
	if user.ID == "" {
		return nil, domainerrors.NewUnauthorizedError("token did not resolve to a user")
	}
	return &user, nil
}

func (c *client) AuthorizeURL(provider, redirectTo string) string {
	if provider == "" {
		provider = DefaultProvider
	}
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

// Static authenticates every request as one fixed user. It backs local
// development when auth is disabled.
type Static struct {
	User User
}

func (s Static) GetUser(context.Context, string) (*User, error) {
	u := s.User
	return &u, nil
}

func (s Static) AuthorizeURL(string, string) string {
	return ""
}
