package providers

import (
	"fmt"
	"os"

	"github.com/ChamsBouzaiene/dojo/internal/engine"
)

// Provider names accepted by NewFromConfig.
const (
	ProviderOllama    = "ollama"
	ProviderLMStudio  = "lmstudio"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Base URLs the local servers listen on out of the box.
const (
	OllamaBaseURL   = "http://localhost:11434/v1"
	LMStudioBaseURL = "http://localhost:1234/v1"
)

// Supported lists the providers NewFromConfig accepts, in the order
// the picker shows them.
func Supported() []string {
	return []string{ProviderOllama, ProviderLMStudio, ProviderOpenAI, ProviderAnthropic}
}

// DefaultBaseURL returns the endpoint a provider uses when the config
// does not override it. Hosted providers use their SDK default, so
// this is empty for them.
func DefaultBaseURL(provider string) string {
	switch provider {
	case ProviderOllama:
		return OllamaBaseURL
	case ProviderLMStudio:
		return LMStudioBaseURL
	}
	return ""
}

// NewFromConfig builds the client for a provider. baseURL overrides
// the provider default. Local servers ignore the API key but the SDK
// wants one, so a placeholder is sent; hosted providers read theirs
// from the environment.
func NewFromConfig(provider, baseURL string) (engine.LLMClient, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL(provider)
	}

	switch provider {
	case ProviderOllama, "":
		apiKey := os.Getenv("OLLAMA_API_KEY")
		if apiKey == "" {
			apiKey = "ollama"
		}
		if baseURL == "" {
			baseURL = OllamaBaseURL
		}
		return NewOpenAIClient(apiKey, baseURL), nil

	case ProviderLMStudio:
		apiKey := os.Getenv("LMSTUDIO_API_KEY")
		if apiKey == "" {
			apiKey = "lm-studio"
		}
		return NewOpenAIClient(apiKey, baseURL), nil

	case ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(apiKey, baseURL), nil

	case ProviderAnthropic:
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return NewAnthropicClient(apiKey), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: ollama, lmstudio, openai, anthropic)", provider)
	}
}
