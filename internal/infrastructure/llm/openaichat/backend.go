package openaichat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/precisionrag/backend/internal/core/domain"
	"github.com/precisionrag/backend/internal/core/ports"
)

const (
	openAIModel = "gpt-4o-mini"
	groqModel   = "llama-3.1-8b-instant"
	groqBaseURL = "https://api.groq.com/openai/v1"

	completionMaxTokens   = 1024
	completionTemperature = 0.2
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Backend completes prompts against an OpenAI-wire-compatible chat
// API. Groq exposes the same surface, so both providers share this
// implementation and differ only in base URL and model.
type Backend struct {
	apiKey  string
	baseURL string
	model   string
}

func NewBackend(apiKey, baseURL, model string) *Backend {
	return &Backend{apiKey: apiKey, baseURL: baseURL, model: model}
}

func (b *Backend) Complete(ctx context.Context, prompt string) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(b.apiKey)}
	if b.baseURL != "" {
		opts = append(opts, option.WithBaseURL(b.baseURL))
	}
	client := openai.NewClient(opts...)

	req := chatRequest{
		Model:       b.model,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}

	var out chatResponse
	if err := client.Post(ctx, "/chat/completions", req, &out); err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Factory maps a caller-supplied backend choice to a concrete backend.
// OpenAI always takes the caller's API key per request; Groq falls back
// to a server-configured key when the caller sends none; the local
// backend is wired at startup and needs no credential.
type Factory struct {
	local      ports.ChatBackend
	groqAPIKey string
}

func NewFactory(local ports.ChatBackend, groqAPIKey string) *Factory {
	return &Factory{local: local, groqAPIKey: strings.TrimSpace(groqAPIKey)}
}

func (f *Factory) Backend(choice, apiKey string) (ports.ChatBackend, error) {
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "openai":
		if strings.TrimSpace(apiKey) == "" {
			return nil, domain.WrapError(domain.ErrConfiguration, "resolve backend", errors.New("openai requires an api key"))
		}
		return NewBackend(apiKey, "", openAIModel), nil
	case "groq":
		key := strings.TrimSpace(apiKey)
		if key == "" {
			key = f.groqAPIKey
		}
		if key == "" {
			return nil, domain.WrapError(domain.ErrConfiguration, "resolve backend", errors.New("groq requires an api key"))
		}
		return NewBackend(key, groqBaseURL, groqModel), nil
	case "ollama", "local":
		if f.local == nil {
			return nil, domain.WrapError(domain.ErrConfiguration, "resolve backend", errors.New("local backend is not configured"))
		}
		return f.local, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "resolve backend", fmt.Errorf("unknown backend %q", choice))
	}
}
