// Package chi implements the HTTP API: question answering, feedback
// collection, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/conversation"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
	"github.com/pantrychef-io/pantrychef/internal/domain/strategy"
	"github.com/pantrychef-io/pantrychef/internal/metrics"
	answeruc "github.com/pantrychef-io/pantrychef/internal/usecase/answer"
	healthuc "github.com/pantrychef-io/pantrychef/internal/usecase/health"
	pipelineuc "github.com/pantrychef-io/pantrychef/internal/usecase/pipeline"
)

// Pipeline runs a retrieval strategy for a question.
type Pipeline interface {
	Run(ctx context.Context, req pipelineuc.Request) (pipelineuc.Result, error)
}

// Answerer turns ranked recipes into an evaluated answer.
type Answerer interface {
	Generate(ctx context.Context, question string, recipes []recipe.Recipe) (answeruc.Data, error)
}

// ConversationStore persists conversations and feedback.
type ConversationStore interface {
	Save(ctx context.Context, conv *conversation.Conversation) (string, error)
	SaveFeedback(ctx context.Context, fb *conversation.Feedback) (string, error)
	FeedbackStats(ctx context.Context) (positive, negative int64, err error)
}

// HealthChecker reports component availability.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server wires the use case services to HTTP handlers.
type Server struct {
	pipeline      Pipeline
	answerer      Answerer
	conversations ConversationStore
	health        HealthChecker
	model         string
	logger        *zap.Logger
}

// NewServer creates the HTTP API server. model is reported back to
// clients as the generation model in use.
func NewServer(
	pipeline Pipeline,
	answerer Answerer,
	conversations ConversationStore,
	health HealthChecker,
	model string,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:      pipeline,
		answerer:      answerer,
		conversations: conversations,
		health:        health,
		model:         model,
		logger:        logger,
	}
}

// Routes mounts the API handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/question", s.handleQuestion)
	r.Post("/feedback", s.handleFeedback)
	r.Get("/stats", s.handleStats)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type questionRequest struct {
	Question       string `json:"question"`
	Approach       string `json:"approach,omitempty"`
	MaxTimeMinutes int    `json:"max_time_minutes,omitempty"`
	NumResults     int    `json:"num_results,omitempty"`
}

type recipeItem struct {
	ID                  string `json:"id,omitempty"`
	Name                string `json:"name"`
	MainIngredients     string `json:"main_ingredients,omitempty"`
	AllIngredients      string `json:"all_ingredients,omitempty"`
	Instructions        string `json:"instructions,omitempty"`
	CuisineType         string `json:"cuisine_type,omitempty"`
	MealType            string `json:"meal_type,omitempty"`
	Difficulty          string `json:"difficulty,omitempty"`
	DietaryRestrictions string `json:"dietary_restrictions,omitempty"`
	PrepTimeMinutes     *int   `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes     *int   `json:"cook_time_minutes,omitempty"`
}

type questionResponse struct {
	ConversationID       string       `json:"conversation_id"`
	Question             string       `json:"question"`
	Answer               string       `json:"answer"`
	Approach             string       `json:"approach"`
	ModelUsed            string       `json:"model_used"`
	Recipes              []recipeItem `json:"recipes"`
	Relevance            string       `json:"relevance,omitempty"`
	RelevanceExplanation string       `json:"relevance_explanation,omitempty"`
	ResponseTime         float64      `json:"response_time"`
	PromptTokens         int          `json:"prompt_tokens"`
	CompletionTokens     int          `json:"completion_tokens"`
	TotalTokens          int          `json:"total_tokens"`
	EmbeddingTokens      int          `json:"embedding_tokens"`
	OpenAICost           float64      `json:"openai_cost"`
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "No question provided")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	start := time.Now()

	result, err := s.pipeline.Run(ctx, pipelineuc.Request{
		Query:      req.Question,
		Strategy:   strategy.Strategy(req.Approach),
		NumResults: req.NumResults,
		MaxTime:    req.MaxTimeMinutes,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	data, err := s.answerer.Generate(ctx, req.Question, result.Recipes)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	responseTime := time.Since(start).Seconds()

	conv := &conversation.Conversation{
		Question:             req.Question,
		Answer:               data.Answer,
		Strategy:             string(result.Strategy),
		Model:                s.model,
		RecipeIDs:            recipeIDs(result.Recipes),
		ResponseTime:         responseTime,
		Relevance:            data.Relevance,
		RelevanceExplanation: data.RelevanceExplanation,
		PromptTokens:         data.Usage.PromptTokens,
		CompletionTokens:     data.Usage.CompletionTokens,
		TotalTokens:          data.Usage.TotalTokens + data.EvalUsage.TotalTokens + usage.EmbeddingTokens,
		EvalPromptTokens:     data.EvalUsage.PromptTokens,
		EvalComplTokens:      data.EvalUsage.CompletionTokens,
		Cost:                 data.Cost,
	}
	convID, err := s.conversations.Save(r.Context(), conv)
	if err != nil {
		// The answer was produced; losing the record is not worth a 500.
		s.logger.Error("Failed to save conversation", zap.Error(err))
	}

	metrics.RelevanceTotal.WithLabelValues(data.Relevance).Inc()

	items := make([]recipeItem, len(result.Recipes))
	for i := range result.Recipes {
		items[i] = recipeToItem(&result.Recipes[i])
	}

	writeJSON(w, http.StatusOK, questionResponse{
		ConversationID:       convID,
		Question:             req.Question,
		Answer:               data.Answer,
		Approach:             string(result.Strategy),
		ModelUsed:            s.model,
		Recipes:              items,
		Relevance:            data.Relevance,
		RelevanceExplanation: data.RelevanceExplanation,
		ResponseTime:         responseTime,
		PromptTokens:         data.Usage.PromptTokens,
		CompletionTokens:     data.Usage.CompletionTokens,
		TotalTokens:          conv.TotalTokens,
		EmbeddingTokens:      usage.EmbeddingTokens,
		OpenAICost:           data.Cost,
	})
}

type feedbackRequest struct {
	ConversationID string `json:"conversation_id"`
	Feedback       int    `json:"feedback"`
}

type feedbackResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Feedback       int    `json:"feedback"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.ConversationID == "" || (req.Feedback != 1 && req.Feedback != -1) {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"conversation_id and feedback (+1 or -1) are required")
		return
	}

	fb := &conversation.Feedback{
		ConversationID: req.ConversationID,
		Positive:       req.Feedback == 1,
	}
	id, err := s.conversations.SaveFeedback(r.Context(), fb)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sentiment := "positive"
	if !fb.Positive {
		sentiment = "negative"
	}
	metrics.FeedbackTotal.WithLabelValues(sentiment).Inc()

	writeJSON(w, http.StatusOK, feedbackResponse{
		ID:             id,
		ConversationID: req.ConversationID,
		Feedback:       req.Feedback,
	})
}

type statsResponse struct {
	Feedback struct {
		Positive int64 `json:"positive"`
		Negative int64 `json:"negative"`
	} `json:"feedback"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	positive, negative, err := s.conversations.FeedbackStats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var resp statsResponse
	resp.Feedback.Positive = positive
	resp.Feedback.Negative = negative
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

func recipeToItem(rec *recipe.Recipe) recipeItem {
	return recipeItem{
		ID:                  rec.ID,
		Name:                rec.Name,
		MainIngredients:     rec.MainIngredients,
		AllIngredients:      rec.AllIngredients,
		Instructions:        rec.Instructions,
		CuisineType:         rec.CuisineType,
		MealType:            rec.MealType,
		Difficulty:          rec.Difficulty,
		DietaryRestrictions: rec.DietaryRestrictions,
		PrepTimeMinutes:     rec.PrepMinutes,
		CookTimeMinutes:     rec.CookMinutes,
	}
}

func recipeIDs(recipes []recipe.Recipe) []string {
	ids := make([]string, 0, len(recipes))
	for i := range recipes {
		if recipes[i].ID != "" {
			ids = append(ids, recipes[i].ID)
		}
	}
	return ids
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelStatus maps domain sentinels to HTTP responses. Internal
// detail never reaches the client; only the sentinel text does.
var sentinelStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrUnknownStrategy, http.StatusBadRequest, "unknown_strategy"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, "embedding_quota_exceeded"},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"},
	{domain.ErrGenerationProviderError, http.StatusBadGateway, "generation_provider_error"},
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, m := range sentinelStatus {
		if errors.Is(err, m.err) {
			s.logger.Warn("domain error", zap.Error(err))
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
