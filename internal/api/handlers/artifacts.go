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

// ArtifactsHandler handles email draft and action plan endpoints.
type ArtifactsHandler struct {
	conversations *conversation.Service
}

// NewArtifactsHandler creates a new ArtifactsHandler.
func NewArtifactsHandler(conversations *conversation.Service) *ArtifactsHandler {
	return &ArtifactsHandler{conversations: conversations}
}

// AddEmailDraft handles POST /threads/{threadId}/email-drafts
// @Summary Save email draft
// @Tags Artifacts
// @Accept json
// @Produce json
// @Param threadId path string true "Thread ID"
// @Param request body dto.CreateEmailDraftRequest true "Draft"
// @Success 201 {object} models.EmailDraft
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads/{threadId}/email-drafts [post]
func (h *ArtifactsHandler) AddEmailDraft(c *gin.Context) {
	thread, ok := findOwnedThread(c, h.conversations)
	if !ok {
		return
	}

	var req dto.CreateEmailDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	draft := models.NewEmailDraft(thread.ID, req.Subject, req.Recipient, req.Body, req.Metadata)
	if err := h.conversations.AddEmailDraft(c.Request.Context(), draft); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draft)
}

// AddActionPlan handles POST /threads/{threadId}/action-plans
// @Summary Save action plan
// @Tags Artifacts
// @Accept json
// @Produce json
// @Param threadId path string true "Thread ID"
// @Param request body dto.CreateActionPlanRequest true "Plan"
// @Success 201 {object} models.ActionPlan
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/threads/{threadId}/action-plans [post]
func (h *ArtifactsHandler) AddActionPlan(c *gin.Context) {
	thread, ok := findOwnedThread(c, h.conversations)
	if !ok {
		return
	}

	var req dto.CreateActionPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	plan := models.NewActionPlan(thread.ID, req.Title, req.Checklist, req.KeyConsiderations)
	if err := h.conversations.AddActionPlan(c.Request.Context(), plan); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}
