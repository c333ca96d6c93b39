package dto

import (
	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/services/telemetry"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// LoginResponse carries the URL that starts the OAuth flow.
type LoginResponse struct {
	URL string `json:"url"`
}

// UserResponse describes the signed-in user.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ListThreadsResponse represents the response for listing threads.
type ListThreadsResponse struct {
	Threads []*models.Thread `json:"threads"`
	Total   int              `json:"total"`
}

// ActiveThreadResponse holds the active thread, null when none is set.
type ActiveThreadResponse struct {
	Thread *models.Thread `json:"thread"`
}

// GetMessagesResponse represents the response for getting messages.
type GetMessagesResponse struct {
	Messages []models.Message `json:"messages"`
	Total    int              `json:"total"`
}

// SuccessResponse reports the outcome of a write that returns no entity.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// TelemetryActivityResponse lists recent activity lines.
type TelemetryActivityResponse struct {
	Activity []telemetry.Activity `json:"activity"`
}

// TelemetryPerformanceResponse lists hourly performance buckets.
type TelemetryPerformanceResponse struct {
	Points []telemetry.PerformancePoint `json:"points"`
}
