package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmservice/assistant-service/internal/api/dto"
	"github.com/pmservice/assistant-service/internal/api/middleware"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/services/identity"
)

// AuthHandler handles sign-in endpoints.
type AuthHandler struct {
	identity   identity.Client
	redirectTo string
}

// NewAuthHandler creates a new AuthHandler. redirectTo is where the provider
// sends the browser after sign-in.
func NewAuthHandler(client identity.Client, redirectTo string) *AuthHandler {
	return &AuthHandler{identity: client, redirectTo: redirectTo}
}

// Login handles GET /auth/login
// @Summary Sign-in URL
// @Description Returns the OAuth authorize URL of the identity provider
// @Tags Auth
// @Produce json
// @Param provider query string false "OAuth provider" default(google)
// @Success 200 {object} dto.LoginResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/pm-assistant/auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	url := h.identity.AuthorizeURL(c.Query("provider"), h.redirectTo)
	if url == "" {
		middleware.HandleError(c, domainerrors.NewSetupError("SUPABASE_URL", "sign-in is disabled while AUTH_DISABLED is set"))
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{URL: url})
}

// Me handles GET /auth/me
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		middleware.HandleError(c, domainerrors.NewUnauthorizedError("not signed in"))
		return
	}
	c.JSON(http.StatusOK, dto.UserResponse{ID: user.ID, Email: user.Email})
}
