package llm

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Provider constants for LLM provider selection.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const defaultMaxTokens = 1024

// Client sends one text prompt to one model and returns its text output.
// It does not interpret failures; callers decide whether to retry.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Config holds LLM client configuration for a single model.
type Config struct {
	Provider         string // "gemini", "openai" or "anthropic"
	APIKey           string // Required: API key for the provider
	BaseURL          string // Optional: custom API endpoint (openai, anthropic)
	Model            string
	MaxTokens        int  // Output cap for providers that require one
	StructuredOutput bool // Ask for a {"content": "..."} JSON reply
}

// StructuredReply is the reply shape requested in structured output mode.
type StructuredReply struct {
	Content string `json:"content" jsonschema:"description=The complete reply to post in the chat channel"`
}

// New creates a Client bound to cfg.Model.
// Defaults to Gemini if no provider is specified.
func New(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderGemini
	}

	switch provider {
	case ProviderGemini:
		return newGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// ContentSchema returns the JSON schema of StructuredReply.
func ContentSchema() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(StructuredReply{})
}
