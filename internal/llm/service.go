// Package llm provides the text-completion client used for schema linking,
// SQL generation and revision. Providers differ only in transport; the rest
// of the pipeline sees a single Complete call returning raw text.
package llm

import (
	"context"
)

// Service defines the interface for completion operations.
type Service interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configure(config Config) error
}

// Config represents completion service configuration.
type Config struct {
	Provider string            `json:"provider"` // openai, anthropic, ollama
	Model    string            `json:"model"`
	APIKey   string            `json:"api_key,omitempty"`
	BaseURL  string            `json:"base_url,omitempty"`
	Options  map[string]string `json:"options,omitempty"`
}

// Provider constants for the supported backends.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderLocal     = "local"
)
