// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// CreateThreadRequest represents the request body for creating a thread.
type CreateThreadRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Category string `json:"category" binding:"required"`
}

// SendMessageRequest represents the request body for sending a message.
// Mode falls back to the session mode when empty.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=32000"`
	Mode    string `json:"mode"`
}

// UpdateSessionRequest changes the session mode or thread filter. An empty
// categoryFilter clears the filter.
type UpdateSessionRequest struct {
	Mode           *string `json:"mode"`
	CategoryFilter *string `json:"categoryFilter"`
}

// SetActiveThreadRequest selects the active thread.
type SetActiveThreadRequest struct {
	ThreadID string `json:"threadId" binding:"required"`
}

// CreateEmailDraftRequest represents a manually saved email draft.
type CreateEmailDraftRequest struct {
	Subject   string            `json:"subject" binding:"required"`
	Recipient string            `json:"recipient"`
	Body      string            `json:"body" binding:"required"`
	Metadata  map[string]string `json:"metadata"`
}

// CreateActionPlanRequest represents a manually saved action plan.
type CreateActionPlanRequest struct {
	Title             string   `json:"title" binding:"required"`
	Checklist         []string `json:"checklist"`
	KeyConsiderations []string `json:"keyConsiderations"`
}
