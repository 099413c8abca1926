package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codantix/codantix/internal/config"
)

type stubProvider struct {
	baseURL string
	apiKey  string
	headers map[string]string
}

func (s *stubProvider) Stream(context.Context, CompletionRequest) (<-chan StreamEvent, error) {
	ch := make(chan StreamEvent)
	close(ch)
	return ch, nil
}

func registerStubs(t *testing.T) map[string]*stubProvider {
	t.Helper()
	created := map[string]*stubProvider{}
	for _, name := range []string{"anthropic", "openai"} {
		name := name
		Register(name, func(baseURL, apiKey string, extraHeaders map[string]string) LLMProvider {
			p := &stubProvider{baseURL: baseURL, apiKey: apiKey, headers: extraHeaders}
			created[name] = p
			return p
		})
	}
	return created
}

func TestNewAnthropicProvider(t *testing.T) {
	created := registerStubs(t)
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-secret")

	cfg := config.DefaultConfig()
	cfg.Provider.Default = "anthropic"

	p, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, p)

	stub := created["anthropic"]
	require.NotNil(t, stub)
	assert.Equal(t, "https://api.anthropic.com", stub.baseURL)
	assert.Equal(t, "anthropic-secret", stub.apiKey)
}

func TestNewAnthropicMissingKey(t *testing.T) {
	registerStubs(t)
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := config.DefaultConfig()
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestNewOpenAICompatibleProvider(t *testing.T) {
	created := registerStubs(t)
	t.Setenv("LOCALAI_API_KEY", "local-secret")

	cfg := config.DefaultConfig()
	cfg.Provider.Default = "localai"
	cfg.Provider.OpenAI = []config.OpenAICompatibleConfig{{
		Name:         "localai",
		BaseURL:      "http://localhost:8080/v1",
		ExtraHeaders: map[string]string{"X-Tenant": "dev"},
	}}

	p, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, p)

	stub := created["openai"]
	require.NotNil(t, stub)
	assert.Equal(t, "http://localhost:8080/v1", stub.baseURL)
	assert.Equal(t, "local-secret", stub.apiKey)
	assert.Equal(t, "dev", stub.headers["X-Tenant"])
}

func TestNewUnknownProvider(t *testing.T) {
	registerStubs(t)

	cfg := config.DefaultConfig()
	cfg.Provider.Default = "mystery"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
