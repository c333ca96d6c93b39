package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmservice/assistant-service/internal/api/dto"
	"github.com/pmservice/assistant-service/internal/api/middleware"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/services/conversation"
)

// ThreadsHandler handles thread endpoints.
type ThreadsHandler struct {
	conversations *conversation.Service
}

// NewThreadsHandler creates a new ThreadsHandler.
func NewThreadsHandler(conversations *conversation.Service) *ThreadsHandler {
	return &ThreadsHandler{conversations: conversations}
}

// CreateThread handles POST /threads
// @Summary Create thread
// @Description Creates a thread; it becomes active when the session has none
// @Tags Threads
// @Accept json
// @Produce json
// @Param request body dto.CreateThreadRequest true "Thread"
// @Success 201 {object} models.Thread
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads [post]
func (h *ThreadsHandler) CreateThread(c *gin.Context) {
	var req dto.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	thread, err := h.conversations.CreateThread(c.Request.Context(), middleware.GetSession(c), req.Name, req.Category)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

// ListThreads handles GET /threads
// @Summary List threads
// @Description Lists threads newest first; without a category the session filter applies
// @Tags Threads
// @Produce json
// @Param category query string false "Category filter"
// @Success 200 {object} dto.ListThreadsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads [get]
func (h *ThreadsHandler) ListThreads(c *gin.Context) {
	threads, err := h.conversations.ListThreads(c.Request.Context(), middleware.GetSession(c), c.Query("category"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if threads == nil {
		threads = []*models.Thread{}
	}
	c.JSON(http.StatusOK, dto.ListThreadsResponse{Threads: threads, Total: len(threads)})
}

// GetThread handles GET /threads/{threadId}
// @Summary Get thread
// @Description Returns the thread with its messages, drafts and plans
// @Tags Threads
// @Produce json
// @Param threadId path string true "Thread ID"
// @Success 200 {object} models.Thread
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads/{threadId} [get]
func (h *ThreadsHandler) GetThread(c *gin.Context) {
	thread, ok := findOwnedThread(c, h.conversations)
	if !ok {
		return
	}

	full, err := h.conversations.GetThread(c.Request.Context(), thread.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if full == nil {
		middleware.HandleError(c, domainerrors.NewNotFoundError("thread", thread.ID))
		return
	}
	c.JSON(http.StatusOK, full)
}

// UpdateThread handles PATCH /threads/{threadId}
// @Summary Update thread
// @Description Changes name, category or workflowPhase; other fields are ignored
// @Tags Threads
// @Accept json
// @Produce json
// @Param threadId path string true "Thread ID"
// @Param request body map[string]interface{} true "Fields to change"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads/{threadId} [patch]
func (h *ThreadsHandler) UpdateThread(c *gin.Context) {
	thread, ok := findOwnedThread(c, h.conversations)
	if !ok {
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	updated, err := h.conversations.UpdateThread(c.Request.Context(), thread.ID, fields)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if !updated {
		middleware.HandleError(c, domainerrors.NewNotFoundError("thread", thread.ID))
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// DeleteThread handles DELETE /threads/{threadId}
// @Summary Delete thread
// @Description Deletes the thread with its messages, drafts and plans. Requires confirm=true.
// @Tags Threads
// @Param threadId path string true "Thread ID"
// @Param confirm query bool true "Confirm the deletion"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads/{threadId} [delete]
func (h *ThreadsHandler) DeleteThread(c *gin.Context) {
	if c.Query("confirm") != "true" {
		middleware.HandleError(c, domainerrors.NewValidationError("deleting a thread requires confirm=true", "confirm"))
		return
	}

	thread, ok := findOwnedThread(c, h.conversations)
	if !ok {
		return
	}

	deleted, err := h.conversations.DeleteThread(c.Request.Context(), middleware.GetSession(c), thread.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if !deleted {
		middleware.HandleError(c, domainerrors.NewNotFoundError("thread", thread.ID))
		return
	}
	c.Status(http.StatusNoContent)
}

// findOwnedThread loads the thread named in the path. It writes a 404 and
// returns false when the thread is missing or belongs to another user.
func findOwnedThread(c *gin.Context, conversations *conversation.Service) (*models.Thread, bool) {
	id := c.Param("threadId")
	thread, err := conversations.FindThread(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		middleware.HandleError(c, err)
		return nil, false
	}
	if thread == nil {
		middleware.HandleError(c, domainerrors.NewNotFoundError("thread", id))
		return nil, false
	}
	return thread, true
}
