package providers

import (
	"context"
	"fmt"
)

// DefaultMaxTokens caps the completion length when a request leaves MaxTokens unset.
const DefaultMaxTokens = 2048

// CompletionRequest is one system/user exchange sent to a text-generation service.
type CompletionRequest struct {
	SystemPrompt string
	UserMessage  string
	MaxTokens    int
	Temperature  float64
}

func (r CompletionRequest) maxTokens() int {
	if r.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}

// CompletionResponse holds the raw generated text. Callers must treat Text as untrusted.
type CompletionResponse struct {
	Text       string
	TokensUsed int
}

// Completer is the text-generation capability reviewers depend on.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Name() string
}

// Known lists the provider names accepted by New.
var Known = []string{"anthropic", "openai", "gemini", "ollama"}

// New creates a provider by name.
func New(provider, model string) (Completer, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAI(model)
	case "gemini", "google":
		return NewGemini(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
