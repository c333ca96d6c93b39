package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailDraft is a generated email attached to a thread.
type EmailDraft struct {
	ID        string            `json:"id"`
	ThreadID  string            `json:"threadId"`
	Subject   string            `json:"subject"`
	Recipient string            `json:"recipient"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewEmailDraft creates a draft with a fresh identifier.
func NewEmailDraft(threadID, subject, recipient, body string, metadata map[string]string) *EmailDraft {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &EmailDraft{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Subject:   subject,
		Recipient: recipient,
		Body:      body,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// ActionPlan is a generated checklist attached to a thread.
type ActionPlan struct {
	ID                string    `json:"id"`
	ThreadID          string    `json:"threadId"`
	Title             string    `json:"title"`
	Checklist         []string  `json:"checklist"`
	KeyConsiderations []string  `json:"keyConsiderations"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewActionPlan creates a plan with a fresh identifier.
func NewActionPlan(threadID, title string, checklist, considerations []string) *ActionPlan {
	if checklist == nil {
		checklist = []string{}
	}
	if considerations == nil {
		considerations = []string{}
	}
	return &ActionPlan{
		ID:                uuid.NewString(),
		ThreadID:          threadID,
		Title:             title,
		Checklist:         checklist,
		KeyConsiderations: considerations,
		CreatedAt:         time.Now().UTC(),
	}
}
