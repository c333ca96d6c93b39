package models

import "time"

// Session holds the per-user conversation context: the active thread, the
// selected mode and the thread list filter.
type Session struct {
	UserID         string    `json:"userId"`
	Email          string    `json:"email,omitempty"`
	ActiveThreadID string    `json:"activeThreadId,omitempty"`
	Mode           Mode      `json:"mode"`
	CategoryFilter Category  `json:"categoryFilter,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewSession returns a session with default state. A fresh sign-in always
// starts from here.
func NewSession(userID, email string) *Session {
	now := time.Now().UTC()
	return &Session{
		UserID:    userID,
		Email:     email,
		Mode:      ModeAsk,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasActiveThread reports whether a thread is currently selected.
func (s *Session) HasActiveThread() bool {
	return s != nil && s.ActiveThreadID != ""
}
