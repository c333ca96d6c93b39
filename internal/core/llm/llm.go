// Package llm defines the language model client the assistant talks to.
package llm

import (
	"context"

	"github.com/pmservice/assistant-service/internal/domain/models"
)

// Type represents a language model provider.
type Type string

const (
	TypeGemini Type = "gemini"
	TypeOpenAI Type = "openai"
)

// Message is one prior turn sent as conversation history.
type Message struct {
	Role    models.MessageRole
	Content string
}

// Request is a single generation call.
type Request struct {
	SystemPrompt string
	History      []Message
	Input        string
}

// Response is the generated reply and the provider's usage report, when it
// gives one.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Client generates replies. Every provider failure is returned as an error
// and treated by callers as a single opaque failure path.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Model returns the model name used for cost estimation.
	Model() string

	Close() error
}

// HistoryFromMessages converts stored messages into request history.
func HistoryFromMessages(messages []models.Message) []Message {
	history := make([]Message, 0, len(messages))
	for _, m := range messages {
		history = append(history, Message{Role: m.Role, Content: m.Content})
	}
	return history
}
