package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"
	defaultOllamaURL = "http://localhost:11434"
)

// ChatCompletions speaks the OpenAI chat-completions protocol. It backs the
// OpenAI provider and OpenAI-compatible local servers (Ollama, LM Studio).
type ChatCompletions struct {
	name   string
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewOpenAI reads OPENAI_API_KEY (and optionally PANEL_OPENAI_BASE_URL).
func NewOpenAI(model string) (*ChatCompletions, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &authError{message: "OPENAI_API_KEY environment variable is not set"}
	}
	url := os.Getenv("PANEL_OPENAI_BASE_URL")
	if url == "" {
		url = defaultOpenAIURL
	}
	return &ChatCompletions{
		name:   "openai",
		apiKey: key,
		model:  model,
		url:    url,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// NewOllama targets OLLAMA_HOST (default localhost). No API key is required,
// but PANEL_OLLAMA_API_KEY is sent when set.
func NewOllama(model string) (*ChatCompletions, error) {
	base := os.Getenv("OLLAMA_HOST")
	if base == "" {
		base = defaultOllamaURL
	}
	return &ChatCompletions{
		name:   "ollama",
		apiKey: os.Getenv("PANEL_OLLAMA_API_KEY"),
		model:  model,
		url:    normalizeChatURL(base),
		client: &http.Client{Timeout: 300 * time.Second},
	}, nil
}

// normalizeChatURL accepts a host, a /v1 base or a full endpoint URL.
func normalizeChatURL(base string) string {
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1/chat/completions")
	base = strings.TrimSuffix(base, "/v1")
	return base + "/v1/chat/completions"
}

func (c *ChatCompletions) Name() string { return c.name }

func (c *ChatCompletions) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserMessage},
		},
		MaxTokens: req.maxTokens(),
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var result chatResponse
	if err := postJSON(ctx, c.client, c.url, headers, payload, &result); err != nil {
		return CompletionResponse{}, err
	}
	if len(result.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("no choices in response")
	}
	if result.Choices[0].Message.Content == "" {
		return CompletionResponse{}, fmt.Errorf("empty text content in API response")
	}
	return CompletionResponse{
		Text:       result.Choices[0].Message.Content,
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}
