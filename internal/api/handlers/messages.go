package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmservice/assistant-service/internal/api/dto"
	"github.com/pmservice/assistant-service/internal/api/middleware"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/services/assistant"
	"github.com/pmservice/assistant-service/internal/services/conversation"
)

// MessagesHandler handles message endpoints.
type MessagesHandler struct {
	conversations *conversation.Service
	assistant     *assistant.Service
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(conversations *conversation.Service, assistantService *assistant.Service) *MessagesHandler {
	return &MessagesHandler{conversations: conversations, assistant: assistantService}
}

// GetMessages handles GET /threads/{threadId}/messages
// @Summary Get messages
// @Description Returns the messages of a thread in insertion order
// @Tags Messages
// @Produce json
// @Param threadId path string true "Thread ID"
// @Success 200 {object} dto.GetMessagesResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads/{threadId}/messages [get]
func (h *MessagesHandler) GetMessages(c *gin.Context) {
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
	c.JSON(http.StatusOK, dto.GetMessagesResponse{Messages: full.Messages, Total: len(full.Messages)})
}

// SendMessage handles POST /threads/{threadId}/messages
// @Summary Send message
// @Description Stores the message, asks the assistant and stores its reply.
// @Description A model failure still returns 200 with failed=true and the fallback reply.
// @Tags Messages
// @Accept json
// @Produce json
// @Param threadId path string true "Thread ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Success 200 {object} assistant.SendResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads/{threadId}/messages [post]
func (h *MessagesHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	var mode models.Mode
	if req.Mode != "" {
		m, ok := models.ParseMode(req.Mode)
		if !ok {
			middleware.HandleError(c, domainerrors.NewValidationError("mode must be one of: Ask, Plan, Draft", req.Mode))
			return
		}
		mode = m
	}

	result, err := h.assistant.SendMessage(c.Request.Context(), middleware.GetSession(c), assistant.SendInput{
		ThreadID: c.Param("threadId"),
		Content:  req.Content,
		Mode:     mode,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ClearMessages handles DELETE /threads/{threadId}/messages
// @Summary Clear messages
// @Description Deletes every message of the thread; drafts and plans are kept
// @Tags Messages
// @Param threadId path string true "Thread ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads/{threadId}/messages [delete]
func (h *MessagesHandler) ClearMessages(c *gin.Context) {
	thread, ok := findOwnedThread(c, h.conversations)
	if !ok {
		return
	}

	cleared, err := h.conversations.ClearMessages(c.Request.Context(), thread.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if !cleared {
		middleware.HandleError(c, domainerrors.NewNotFoundError("thread", thread.ID))
		return
	}
	c.Status(http.StatusNoContent)
}
