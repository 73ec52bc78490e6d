package llm

import "context"

// LlmClient sends one prompt as a single user message and returns the reply text.
type LlmClient interface {
	GetCompletion(ctx context.Context, prompt string) (string, error)
}
