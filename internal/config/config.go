// Package config loads and validates the application configuration from TOML
// or YAML files, with defaults applied for anything unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/codantix/codantix/internal/parser"
)

// Doc styles supported by the generator templates.
const (
	DocStyleGoogle = "google"
	DocStyleNumpy  = "numpy"
	DocStyleJSDoc  = "jsdoc"
)

// defaultFiles are searched in order when no explicit config path is given.
var defaultFiles = []string{"codantix.toml", "codantix.yaml", "codantix.yml"}

// Config represents the top-level application configuration.
type Config struct {
	Project  ProjectConfig  `toml:"project" yaml:"project"`
	Provider ProviderConfig `toml:"provider" yaml:"provider"`
	LLM      LLMConfig      `toml:"llm" yaml:"llm"`
	Index    IndexConfig    `toml:"index" yaml:"index"`
}

// ProjectConfig describes the repository being documented.
type ProjectConfig struct {
	Name        string   `toml:"name" yaml:"name"`
	SourcePaths []string `toml:"source_paths" yaml:"source_paths"`
	Languages   []string `toml:"languages" yaml:"languages"`
	DocStyle    string   `toml:"doc_style" yaml:"doc_style"`
}

// ProviderConfig holds settings for LLM provider selection.
type ProviderConfig struct {
	Default   string                   `toml:"default" yaml:"default"`
	Model     string                   `toml:"model" yaml:"model"`
	Anthropic AnthropicProviderConfig  `toml:"anthropic" yaml:"anthropic"`
	OpenAI    []OpenAICompatibleConfig `toml:"openai_compatible" yaml:"openai_compatible"`
}

// AnthropicProviderConfig holds Anthropic-specific provider settings.
type AnthropicProviderConfig struct {
	APIKeySource string `toml:"api_key_source" yaml:"api_key_source"`
	APIKey       string `toml:"api_key" yaml:"api_key"`
}

// OpenAICompatibleConfig holds settings for an OpenAI-compatible provider.
type OpenAICompatibleConfig struct {
	Name         string            `toml:"name" yaml:"name"`
	BaseURL      string            `toml:"base_url" yaml:"base_url"`
	APIKeySource string            `toml:"api_key_source" yaml:"api_key_source"`
	APIKey       string            `toml:"api_key" yaml:"api_key"`
	ExtraHeaders map[string]string `toml:"extra_headers" yaml:"extra_headers"`
}

// LLMConfig controls generation parameters and client-side throttling.
type LLMConfig struct {
	MaxTokens         int     `toml:"max_tokens" yaml:"max_tokens"`
	Temperature       float64 `toml:"temperature" yaml:"temperature"`
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `toml:"burst" yaml:"burst"`
	Concurrency       int     `toml:"concurrency" yaml:"concurrency"`
}

// IndexConfig controls the local documentation index.
type IndexConfig struct {
	Path       string          `toml:"path" yaml:"path"`
	Collection string          `toml:"collection" yaml:"collection"`
	Embedding  EmbeddingConfig `toml:"embedding" yaml:"embedding"`
}

// EmbeddingConfig controls optional vector embedding of indexed docs.
type EmbeddingConfig struct {
	Enabled      bool   `toml:"enabled" yaml:"enabled"`
	BaseURL      string `toml:"base_url" yaml:"base_url"`
	Model        string `toml:"model" yaml:"model"`
	APIKeySource string `toml:"api_key_source" yaml:"api_key_source"`
	APIKey       string `toml:"api_key" yaml:"api_key"`
	Dimensions   int    `toml:"dimensions" yaml:"dimensions"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			SourcePaths: []string{"src"},
			Languages:   []string{"python", "javascript", "typescript", "java", "go"},
			DocStyle:    DocStyleGoogle,
		},
		Provider: ProviderConfig{
			Default: "anthropic",
			Model:   "claude-sonnet-4-5",
			Anthropic: AnthropicProviderConfig{
				APIKeySource: "env",
			},
		},
		LLM: LLMConfig{
			MaxTokens:         1024,
			Temperature:       0.7,
			RequestsPerSecond: 0.1,
			Burst:             10,
			Concurrency:       1,
		},
		Index: IndexConfig{
			Path:       "vecdb/codantix.db",
			Collection: "codantix_docs",
			Embedding: EmbeddingConfig{
				Model:        "text-embedding-3-small",
				APIKeySource: "env",
				Dimensions:   512,
			},
		},
	}
}

// Load reads configuration from the given path, or from the first of
// codantix.toml / codantix.yaml / codantix.yml in the working directory when
// path is empty. A missing file yields the defaults; a malformed file is an
// error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		for _, candidate := range defaultFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot honor.
func (c *Config) Validate() error {
	switch c.Project.DocStyle {
	case DocStyleGoogle, DocStyleNumpy, DocStyleJSDoc:
	default:
		return fmt.Errorf("unsupported doc_style %q: must be one of google, numpy, jsdoc", c.Project.DocStyle)
	}

	if len(c.Project.Languages) == 0 {
		return fmt.Errorf("at least one language must be configured")
	}
	for _, lang := range c.Project.Languages {
		if !parser.KnownLanguage(lang) {
			return fmt.Errorf("unsupported language %q", lang)
		}
	}

	if c.LLM.RequestsPerSecond <= 0 {
		return fmt.Errorf("llm.requests_per_second must be positive")
	}
	if c.LLM.Burst <= 0 {
		return fmt.Errorf("llm.burst must be positive")
	}
	return nil
}
