package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the work area a thread belongs to.
type Category string

const (
	CategoryLease       Category = "Lease & Contracts"
	CategoryMaintenance Category = "Maintenance & Repairs"
	CategoryTenant      Category = "Tenant Communications"
)

// Categories returns the known categories in display order.
func Categories() []Category {
	return []Category{CategoryLease, CategoryMaintenance, CategoryTenant}
}

// IsValid reports whether the category is one of the three known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryLease, CategoryMaintenance, CategoryTenant:
		return true
	}
	return false
}

// ParseCategory trims the input and returns the matching category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.TrimSpace(s))
	return c, c.IsValid()
}

// Phase is the inferred workflow stage of a conversation.
type Phase string

const (
	PhaseAssessment Phase = "assessment"
	PhaseGathering  Phase = "gathering"
	PhasePlanning   Phase = "planning"
	PhaseRefining   Phase = "refining"
	PhaseEmail      Phase = "email"
)

// IsValid reports whether the phase is one of the five known values.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseAssessment, PhaseGathering, PhasePlanning, PhaseRefining, PhaseEmail:
		return true
	}
	return false
}

// Mode is the per-turn intent selected by the user.
type Mode string

const (
	ModeAsk   Mode = "Ask"
	ModePlan  Mode = "Plan"
	ModeDraft Mode = "Draft"
)

// IsValid reports whether the mode is one of the known modes.
func (m Mode) IsValid() bool {
	return m == ModeAsk || m == ModePlan || m == ModeDraft
}

// ParseMode matches a mode name case-insensitively.
func ParseMode(s string) (Mode, bool) {
	for _, m := range []Mode{ModeAsk, ModePlan, ModeDraft} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, true
		}
	}
	return "", false
}

// Thread is one conversation together with the artifacts derived from it.
type Thread struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId,omitempty"`
	Name         string       `json:"name"`
	Category     Category     `json:"category"`
	Phase        Phase        `json:"workflowPhase"`
	Messages     []Message    `json:"messages"`
	MessageCount int          `json:"messageCount"`
	EmailDrafts  []EmailDraft `json:"emailDrafts"`
	ActionPlans  []ActionPlan `json:"actionPlans"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// NewThread creates an empty thread in the assessment phase.
func NewThread(userID, name string, category Category) *Thread {
	now := time.Now().UTC()
	return &Thread{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Category:    category,
		Phase:       PhaseAssessment,
		Messages:    []Message{},
		EmailDrafts: []EmailDraft{},
		ActionPlans: []ActionPlan{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
