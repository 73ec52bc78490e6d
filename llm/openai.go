package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/santiagomed/blendgen/logger"
	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIBaseURL is Ollama's OpenAI-compatible endpoint.
const DefaultOpenAIBaseURL = "http://localhost:11434/v1"

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	openAIClient *openai.Client
	config       *LlmConfig
	completions  *completionLog
	logger       logger.Logger
}

func NewOpenAIClient(cfg *LlmConfig, l logger.Logger) (LlmClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// local servers ignore the key but the header must be present
		apiKey = "ollama"
	}
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = cfg.BaseURL
	if clientCfg.BaseURL == "" {
		clientCfg.BaseURL = DefaultOpenAIBaseURL
	}

	return &OpenAIClient{
		openAIClient: openai.NewClientWithConfig(clientCfg),
		config:       cfg,
		completions:  newCompletionLog(cfg, l),
		logger:       l,
	}, nil
}

func (c *OpenAIClient) GetCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := c.openAIClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.config.ModelName,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	res := resp.Choices[0].Message.Content
	c.completions.record(prompt, res, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return res, nil
}

func mapOpenAIError(err error) error {
	var status int
	apiErr := &openai.APIError{}
	reqErr := &openai.RequestError{}
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("model service unreachable: %w", err)
	}
	return statusError(status, err)
}

func statusError(status int, err error) error {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("unauthorized: invalid API key: %w", err)
	case http.StatusNotFound:
		return fmt.Errorf("model not found: %w", err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited by model service: %w", err)
	case http.StatusInternalServerError:
		return fmt.Errorf("model service error: %w", err)
	default:
		return fmt.Errorf("model API error: %w", err)
	}
}
