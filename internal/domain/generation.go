package domain

import "context"

// Generator is the text generation contract (answering, reranking, evaluation).
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (GenerationResult, error)
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text  string
	Usage TokenUsage
}

// TokenUsage holds token counters from a single generation call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add accumulates another usage into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
