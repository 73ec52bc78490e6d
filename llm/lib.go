package llm

import (
	"errors"
	"fmt"

	"github.com/santiagomed/blendgen/logger"
	tellm "github.com/santiagomed/tellm/sdk"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

var ErrEmptyResponse = errors.New("model returned an empty response")

type LlmConfig struct {
	Provider  string
	BaseURL   string
	APIKey    string
	ModelName string
	SessionID string
	TellmURL  string
}

// NewClient builds the client for cfg.Provider.
func NewClient(cfg *LlmConfig, l logger.Logger) (LlmClient, error) {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if cfg.ModelName == "" {
		return nil, errors.New("model name is required")
	}
	cfg.SessionID = EnsureSessionID(cfg.SessionID)

	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg, l)
	case ProviderOllama:
		return NewOllamaClient(cfg, l)
	default:
		return nil, fmt.Errorf("unknown model provider: %q", cfg.Provider)
	}
}

// completionLog forwards prompt/response pairs to a tellm collector when one is configured.
type completionLog struct {
	client  *tellm.Client
	batchID string
	model   string
	logger  logger.Logger
}

func newCompletionLog(cfg *LlmConfig, l logger.Logger) *completionLog {
	if cfg.TellmURL == "" {
		return nil
	}
	return &completionLog{
		client:  tellm.NewClient(cfg.TellmURL),
		batchID: cfg.SessionID,
		model:   cfg.ModelName,
		logger:  l,
	}
}

func (c *completionLog) record(prompt, response string, promptTokens, completionTokens int) {
	if c == nil {
		return
	}
	err := c.client.Log(c.batchID, prompt, response, c.model, promptTokens, completionTokens)
	if err != nil {
		c.logger.WithField("warning", err).Warn("failed to log to tellm")
	}
}
