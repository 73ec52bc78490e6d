package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/santiagomed/blendgen/logger"
)

const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaClient uses Ollama's native /api/chat endpoint.
type OllamaClient struct {
	config      *LlmConfig
	client      *api.Client
	completions *completionLog
	logger      logger.Logger
}

func NewOllamaClient(cfg *LlmConfig, l logger.Logger) (LlmClient, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	// tolerate the OpenAI-compatible base URL being reused here
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
	}

	httpClient := &http.Client{}
	if cfg.APIKey != "" {
		httpClient.Transport = &bearerTransport{token: cfg.APIKey, next: http.DefaultTransport}
	}

	return &OllamaClient{
		config:      cfg,
		client:      api.NewClient(base, httpClient),
		completions: newCompletionLog(cfg, l),
		logger:      l,
	}, nil
}

func (o *OllamaClient) GetCompletion(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: o.config.ModelName,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
	}

	var resp api.ChatResponse
	err := o.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		var apiErr api.StatusError
		if errors.As(err, &apiErr) {
			return "", statusError(apiErr.StatusCode, fmt.Errorf("ollama: %s", apiErr.ErrorMessage))
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("model service unreachable: %w", err)
	}

	if resp.Message.Content == "" {
		return "", ErrEmptyResponse
	}

	res := resp.Message.Content
	o.completions.record(prompt, res, resp.PromptEvalCount, resp.EvalCount)

	return res, nil
}

// bearerTransport adds the configured key to every request, for Ollama
// instances behind an authenticating proxy.
type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(r)
}
