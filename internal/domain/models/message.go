// Package models contains domain models for the property manager assistant.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	// RoleUser represents a message from the property manager.
	RoleUser MessageRole = "user"
	// RoleAssistant represents a reply from the assistant.
	RoleAssistant MessageRole = "assistant"
)

// IsValid reports whether the role is one of the known roles.
func (r MessageRole) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn in a thread. Messages are append-only.
type Message struct {
	ID        string      `json:"id" bson:"_id"`
	ThreadID  string      `json:"threadId" bson:"threadId"`
	Role      MessageRole `json:"role" bson:"role"`
	Content   string      `json:"content" bson:"content"`
	CreatedAt time.Time   `json:"createdAt" bson:"createdAt"`
}

// NewMessage creates a new message with a fresh identifier.
func NewMessage(threadID string, role MessageRole, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
