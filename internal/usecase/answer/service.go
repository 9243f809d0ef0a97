// Package answer turns a ranked recipe list into a natural-language
// answer and judges that answer's relevance.
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

// Relevance verdicts from the evaluation oracle.
const (
	RelevanceRelevant       = "RELEVANT"
	RelevancePartlyRelevant = "PARTLY_RELEVANT"
	RelevanceNonRelevant    = "NON_RELEVANT"
	RelevanceUnknown        = "UNKNOWN"
)

// Data is a generated answer with its evaluation and accounting.
type Data struct {
	Answer string

	Relevance            string
	RelevanceExplanation string

	Usage     domain.TokenUsage
	EvalUsage domain.TokenUsage
	Cost      float64
}

// Service generates and evaluates answers through the generation oracle.
type Service struct {
	gen     domain.Generator
	model   string
	logger  *zap.Logger
	timeout time.Duration
}

// New creates an answer service. model is used for both answering and
// evaluation.
func New(gen domain.Generator, model string, logger *zap.Logger) *Service {
	return &Service{gen: gen, model: model, logger: logger}
}

// WithTimeout puts a deadline on each oracle call. Zero leaves calls
// unbounded. The answer and evaluation calls are bounded separately.
func (s *Service) WithTimeout(timeout time.Duration) *Service {
	s.timeout = timeout
	return s
}

// generate runs one oracle call under the configured deadline.
func (s *Service) generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.gen.Generate(ctx, prompt, s.model)
}

// Generate produces an answer grounded in the given recipes, evaluates
// its relevance, and totals the OpenAI cost of both calls.
func (s *Service) Generate(ctx context.Context, question string, recipes []recipe.Recipe) (Data, error) {
	prompt := buildAnswerPrompt(question, recipes)

	result, err := s.generate(ctx, prompt)
	if err != nil {
		return Data{}, fmt.Errorf("generate answer: %w", err)
	}

	data := Data{
		Answer: result.Text,
		Usage:  result.Usage,
	}

	relevance, explanation, evalUsage, err := s.EvaluateRelevance(ctx, question, result.Text)
	if err != nil {
		// Evaluation is advisory; the answer still stands.
		s.logger.Warn("Relevance evaluation failed", zap.Error(err))
		data.Relevance = RelevanceUnknown
		data.RelevanceExplanation = "Evaluation call failed"
	} else {
		data.Relevance = relevance
		data.RelevanceExplanation = explanation
		data.EvalUsage = evalUsage
	}

	combined := data.Usage
	combined.Add(data.EvalUsage)
	data.Cost = CalculateCost(s.model, combined)

	return data, nil
}

// EvaluateRelevance asks the oracle to classify answer relevance.
// Unparseable verdicts degrade to UNKNOWN rather than failing.
func (s *Service) EvaluateRelevance(ctx context.Context, question, answer string) (relevance, explanation string, usage domain.TokenUsage, err error) {
	prompt := buildEvaluationPrompt(question, answer)

	result, err := s.generate(ctx, prompt)
	if err != nil {
		return "", "", domain.TokenUsage{}, fmt.Errorf("evaluate relevance: %w", err)
	}

	var parsed struct {
		Relevance   string `json:"Relevance"`
		Explanation string `json:"Explanation"`
	}
	if jsonErr := json.Unmarshal([]byte(result.Text), &parsed); jsonErr != nil || parsed.Relevance == "" {
		return RelevanceUnknown, "Failed to parse evaluation", result.Usage, nil
	}

	return parsed.Relevance, parsed.Explanation, result.Usage, nil
}

// gpt-4o-mini per-1K-token rates, USD.
const (
	promptRatePer1K     = 0.00015
	completionRatePer1K = 0.0006
)

// CalculateCost converts token usage into USD. Only gpt-4o-mini has a
// known rate card; other models cost out as zero.
func CalculateCost(model string, usage domain.TokenUsage) float64 {
	if model != "gpt-4o-mini" {
		return 0
	}
	return (float64(usage.PromptTokens)*promptRatePer1K +
		float64(usage.CompletionTokens)*completionRatePer1K) / 1000
}
