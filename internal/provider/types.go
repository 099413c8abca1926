// Package provider abstracts streaming LLM completion backends behind a
// single interface, with concrete providers registering themselves by name.
package provider

import "context"

// LLMProvider defines the interface for interacting with an LLM provider.
type LLMProvider interface {
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error)
}

// CompletionRequest represents a request to an LLM for completion.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string
	Content string
}

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	Type  string // "text_delta", "stop", "error"
	Text  string
	Error error
}

// NewUserMessage creates a new user message with the given text.
func NewUserMessage(text string) Message {
	return Message{Role: "user", Content: text}
}
