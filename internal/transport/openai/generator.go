package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/metrics"
)

// Generator is a chat completion provider using the OpenAI API.
type Generator struct {
	client       *openai.Client
	defaultModel string
	logger       *zap.Logger
}

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Logger       *zap.Logger
}

// NewGenerator creates an OpenAI chat completion provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client:       openai.NewClientWithConfig(clientCfg),
		defaultModel: cfg.DefaultModel,
		logger:       cfg.Logger,
	}
}

// Generate implements domain.Generator. An empty model falls back to the
// configured default. Usage is recorded in the context collector so the
// caller can report per-request token totals.
func (g *Generator) Generate(ctx context.Context, prompt, model string) (domain.GenerationResult, error) {
	if model == "" {
		model = g.defaultModel
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(model, "error").Inc()
		return domain.GenerationResult{}, parseGenerationError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(model, "error").Inc()
		return domain.GenerationResult{}, fmt.Errorf("empty completion response: %w", domain.ErrGenerationProviderError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(model).Observe(duration.Seconds())

	usage := domain.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(model, "prompt").Add(float64(usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(model, "completion").Add(float64(usage.CompletionTokens))
		metrics.GenerationTokensTotal.WithLabelValues(model, "total").Add(float64(usage.TotalTokens))
	}

	domain.UsageFromContext(ctx).AddGeneration(usage)

	return domain.GenerationResult{
		Text:  resp.Choices[0].Message.Content,
		Usage: usage,
	}, nil
}

// parseGenerationError wraps API failures with domain.ErrGenerationProviderError
// for correct 502 mapping.
func parseGenerationError(err error) error {
	wrap := domain.ErrGenerationProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("completion API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}
