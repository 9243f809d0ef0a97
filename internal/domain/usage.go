package domain

import "context"

type usageKey struct{}

// Usage collects oracle token consumption across the stages of a single
// request. The caller puts a mutable pointer into the context before
// running the pipeline; stages add as they call the oracles; the caller
// reads the totals afterwards.
type Usage struct {
	EmbeddingTokens int
	Generation      TokenUsage
	GenerationCalls int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records embedding tokens consumed.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.EmbeddingTokens += n
	}
}

// AddGeneration records one generation call's token usage.
func (u *Usage) AddGeneration(t TokenUsage) {
	if u != nil {
		u.Generation.Add(t)
		u.GenerationCalls++
	}
}
