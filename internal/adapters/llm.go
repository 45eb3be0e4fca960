package adapters

import (
	"context"

	"github.com/iamwavecut/masterbot/internal/adapters/llm"
)

// LLM defines the interface for language model operations
type LLM interface {
	// ChatCompletion performs a chat completion request
	ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error)

	WithModel(modelName string) LLM
	WithParameters(parameters *llm.GenerationParameters) LLM
	WithSystemPrompt(prompt string) LLM
}
