// Package docgen generates documentation text for code elements using an LLM,
// with per-style prompt templates, client-side rate limiting, and error
// classification.
package docgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/codantix/codantix/internal/provider"
)

// Completer abstracts LLM completion for testability.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLMCompleter wraps an LLMProvider to collect streamed text into a single string.
type LLMCompleter struct {
	provider    provider.LLMProvider
	model       string
	maxTokens   int
	temperature *float64
}

// NewLLMCompleter creates a new LLMCompleter.
func NewLLMCompleter(p provider.LLMProvider, model string, maxTokens int, temperature *float64) *LLMCompleter {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &LLMCompleter{provider: p, model: model, maxTokens: maxTokens, temperature: temperature}
}

// Complete sends a prompt to the LLM and returns the full response text.
func (c *LLMCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := provider.CompletionRequest{
		Model:       c.model,
		System:      system,
		Messages:    []provider.Message{provider.NewUserMessage(prompt)},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	ch, err := c.provider.Stream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm complete: %w", err)
	}

	var parts []string
	for evt := range ch {
		switch evt.Type {
		case "text_delta":
			parts = append(parts, evt.Text)
		case "error":
			return "", fmt.Errorf("llm stream error: %w", evt.Error)
		}
	}

	return strings.Join(parts, ""), nil
}
