package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Default endpoints and models for the OpenAI-compatible providers.
const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	DefaultGroqModel     = "llama-3.1-8b-instant"
)

// ErrNoAPIKey is returned when a provider is used without a key.
var ErrNoAPIKey = errors.New("missing API key")

const requestTimeout = 60 * time.Second

// CompletionsProvider talks to an OpenAI-compatible chat completions API.
type CompletionsProvider struct {
	name   string
	model  string
	apiKey string
	client *openai.Client
}

// NewOpenAI returns the OpenAI provider. Empty model or base URL use the defaults.
func NewOpenAI(apiKey, model, baseURL string) *CompletionsProvider {
	return newCompletions(ProviderOpenAI, apiKey, orDefault(model, DefaultOpenAIModel), orDefault(baseURL, DefaultOpenAIBaseURL))
}

// NewGroq returns the Groq provider. Empty model or base URL use the defaults.
func NewGroq(apiKey, model, baseURL string) *CompletionsProvider {
	return newCompletions(ProviderGroq, apiKey, orDefault(model, DefaultGroqModel), orDefault(baseURL, DefaultGroqBaseURL))
}

func newCompletions(name, apiKey, model, baseURL string) *CompletionsProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	return &CompletionsProvider{
		name:   name,
		model:  model,
		apiKey: apiKey,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Name returns the provider name.
func (p *CompletionsProvider) Name() string {
	return p.name
}

// Model returns the configured model id.
func (p *CompletionsProvider) Model() string {
	return p.model
}

// Complete sends one system+user exchange and returns the first choice.
func (p *CompletionsProvider) Complete(ctx context.Context, system, user string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("%s: %w", p.name, ErrNoAPIKey)
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty response", p.name)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
