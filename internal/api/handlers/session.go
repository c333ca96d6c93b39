package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pmservice/assistant-service/internal/api/dto"
	"github.com/pmservice/assistant-service/internal/api/middleware"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/services/conversation"
	"github.com/pmservice/assistant-service/internal/services/session"
)

// SessionHandler handles the per-user session endpoints.
type SessionHandler struct {
	sessions      session.Service
	conversations *conversation.Service
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions session.Service, conversations *conversation.Service) *SessionHandler {
	return &SessionHandler{sessions: sessions, conversations: conversations}
}

// GetSession handles GET /session
// @Summary Get session
// @Tags Session
// @Produce json
// @Success 200 {object} models.Session
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetSession(c))
}

// UpdateSession handles PUT /session
// @Summary Update session
// @Description Sets the mode and the thread list category filter
// @Tags Session
// @Accept json
// @Produce json
// @Param request body dto.UpdateSessionRequest true "Session changes"
// @Success 200 {object} models.Session
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/session [put]
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	sess := middleware.GetSession(c)

	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	mode := sess.Mode
	if req.Mode != nil {
		m, ok := models.ParseMode(*req.Mode)
		if !ok {
			middleware.HandleError(c, domainerrors.NewValidationError("mode must be one of: Ask, Plan, Draft", *req.Mode))
			return
		}
		mode = m
	}

	filter := sess.CategoryFilter
	if req.CategoryFilter != nil {
		filter = ""
		if strings.TrimSpace(*req.CategoryFilter) != "" {
			cat, ok := models.ParseCategory(*req.CategoryFilter)
			if !ok {
				middleware.HandleError(c, domainerrors.NewValidationError("unknown category", *req.CategoryFilter))
				return
			}
			filter = cat
		}
	}

	sess.Mode = mode
	sess.CategoryFilter = filter
	c.JSON(http.StatusOK, sess)
}

// DeleteSession handles DELETE /session
// @Summary Sign out
// @Description Drops the stored session; the next request starts from defaults
// @Tags Session
// @Success 204
// @Failure 502 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/session [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sess := middleware.GetSession(c)
	if err := h.sessions.Delete(c.Request.Context(), sess.UserID); err != nil {
		middleware.HandleError(c, err)
		return
	}
	middleware.MarkSessionCleared(c)
	c.Status(http.StatusNoContent)
}

// GetActiveThread handles GET /session/active-thread
// @Summary Get the active thread
// @Tags Session
// @Produce json
// @Success 200 {object} dto.ActiveThreadResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/session/active-thread [get]
func (h *SessionHandler) GetActiveThread(c *gin.Context) {
	thread, err := h.conversations.GetActiveThread(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ActiveThreadResponse{Thread: thread})
}

// SetActiveThread handles PUT /session/active-thread
// @Summary Select the active thread
// @Tags Session
// @Accept json
// @Produce json
// @Param request body dto.SetActiveThreadRequest true "Thread to select"
// @Success 200 {object} models.Session
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/session/active-thread [put]
func (h *SessionHandler) SetActiveThread(c *gin.Context) {
	sess := middleware.GetSession(c)

	var req dto.SetActiveThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	ok, err := h.conversations.SetActiveThread(c.Request.Context(), sess, req.ThreadID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if !ok {
		middleware.HandleError(c, domainerrors.NewNotFoundError("thread", req.ThreadID))
		return
	}
	c.JSON(http.StatusOK, sess)
}
