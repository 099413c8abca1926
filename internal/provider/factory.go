package provider

import (
	"fmt"
	"strings"

	"github.com/codantix/codantix/internal/config"
)

const anthropicBaseURL = "https://api.anthropic.com"

// Constructor is a function that creates a new LLMProvider.
type Constructor func(baseURL, apiKey string, extraHeaders map[string]string) LLMProvider

// registry holds registered provider constructors.
var registry = map[string]Constructor{}

// Register registers a provider constructor by name. Concrete providers call
// this from init().
func Register(name string, constructor Constructor) {
	registry[name] = constructor
}

// New creates an LLMProvider based on the given configuration. "anthropic"
// selects the native Anthropic provider; any other name is looked up among
// the configured OpenAI-compatible providers.
func New(cfg *config.Config) (LLMProvider, error) {
	if cfg.Provider.Default == "anthropic" {
		return newAnthropic(cfg)
	}
	return newOpenAICompatible(cfg)
}

func newAnthropic(cfg *config.Config) (LLMProvider, error) {
	constructor, ok := registry["anthropic"]
	if !ok {
		return nil, fmt.Errorf("anthropic provider not registered")
	}

	apiKey, err := config.ResolveAPIKey(
		cfg.Provider.Anthropic.APIKeySource,
		cfg.Provider.Anthropic.APIKey,
		"ANTHROPIC_API_KEY",
	)
	if err != nil {
		return nil, fmt.Errorf("resolving Anthropic API key: %w", err)
	}

	return constructor(anthropicBaseURL, apiKey, nil), nil
}

func newOpenAICompatible(cfg *config.Config) (LLMProvider, error) {
	name := cfg.Provider.Default

	constructor, ok := registry["openai"]
	if !ok {
		return nil, fmt.Errorf("openai provider not registered")
	}

	for _, oc := range cfg.Provider.OpenAI {
		if oc.Name == name {
			envVar := strings.ToUpper(name) + "_API_KEY"
			apiKey, err := config.ResolveAPIKey(oc.APIKeySource, oc.APIKey, envVar)
			if err != nil {
				return nil, fmt.Errorf("resolving %s API key: %w", name, err)
			}
			return constructor(oc.BaseURL, apiKey, oc.ExtraHeaders), nil
		}
	}

	return nil, fmt.Errorf("unknown provider: %q", name)
}
