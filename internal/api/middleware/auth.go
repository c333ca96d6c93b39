// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/services/identity"
)

const (
	ctxToken = "auth_token"
	ctxUser  = "auth_user"
)

// AuthMiddleware resolves the bearer token to a user through the identity
// provider.
type AuthMiddleware struct {
	identity identity.Client
	// local accepts requests without a token; set for a Static identity.
	local bool
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(client identity.Client) *AuthMiddleware {
	_, local := client.(identity.Static)
	return &AuthMiddleware{identity: client, local: local}
}

// Authenticate returns a gin middleware that validates the Bearer token and
// stores the token and user for downstream handlers.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil && !m.local {
			HandleError(c, err)
			return
		}

		user, err := m.identity.GetUser(c.Request.Context(), token)
		if err != nil {
			GetRequestLogger(c).Warn().Err(err).Msg("authentication failed")
			HandleError(c, err)
			return
		}

		c.Set(ctxToken, token)
		c.Set(ctxUser, user)

		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", domainerrors.NewUnauthorizedError("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", domainerrors.NewUnauthorizedError("invalid authorization header format")
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", domainerrors.NewUnauthorizedError("empty token")
	}
	return token, nil
}

// GetToken retrieves the auth token from the gin context.
func GetToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// GetUser retrieves the authenticated user from the gin context.
func GetUser(c *gin.Context) *identity.User {
	if user, exists := c.Get(ctxUser); exists {
		return user.(*identity.User)
	}
	return nil
}
