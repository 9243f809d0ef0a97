package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain/conversation"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
	"github.com/pantrychef-io/pantrychef/internal/metrics"
	answeruc "github.com/pantrychef-io/pantrychef/internal/usecase/answer"
	healthuc "github.com/pantrychef-io/pantrychef/internal/usecase/health"
	pipelineuc "github.com/pantrychef-io/pantrychef/internal/usecase/pipeline"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// mockPipeline implements Pipeline for tests.
type mockPipeline struct {
	runFn func(ctx context.Context, req pipelineuc.Request) (pipelineuc.Result, error)
}

func (m *mockPipeline) Run(ctx context.Context, req pipelineuc.Request) (pipelineuc.Result, error) {
	if m.runFn != nil {
		return m.runFn(ctx, req)
	}
	return pipelineuc.Result{}, nil
}

// mockAnswerer implements Answerer for tests.
type mockAnswerer struct {
	generateFn func(ctx context.Context, question string, recipes []recipe.Recipe) (answeruc.Data, error)
}

func (m *mockAnswerer) Generate(ctx context.Context, question string, recipes []recipe.Recipe) (answeruc.Data, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, question, recipes)
	}
	return answeruc.Data{}, nil
}

// mockConversations implements ConversationStore for tests.
type mockConversations struct {
	saveFn         func(ctx context.Context, conv *conversation.Conversation) (string, error)
	saveFeedbackFn func(ctx context.Context, fb *conversation.Feedback) (string, error)
	statsFn        func(ctx context.Context) (int64, int64, error)
}

func (m *mockConversations) Save(ctx context.Context, conv *conversation.Conversation) (string, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, conv)
	}
	return "conv-1", nil
}

func (m *mockConversations) SaveFeedback(ctx context.Context, fb *conversation.Feedback) (string, error) {
	if m.saveFeedbackFn != nil {
		return m.saveFeedbackFn(ctx, fb)
	}
	return "fb-1", nil
}

func (m *mockConversations) FeedbackStats(ctx context.Context) (int64, int64, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return 0, 0, nil
}

// mockHealth implements HealthChecker for tests.
type mockHealth struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealth) Check(ctx context.Context) healthuc.Report {
	if m.checkFn != nil {
		return m.checkFn(ctx)
	}
	return healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}
}

func newTestServer(
	p Pipeline, a Answerer, c ConversationStore, h HealthChecker,
) http.Handler {
	if p == nil {
		p = &mockPipeline{}
	}
	if a == nil {
		a = &mockAnswerer{}
	}
	if c == nil {
		c = &mockConversations{}
	}
	if h == nil {
		h = &mockHealth{}
	}
	srv := NewServer(p, a, c, h, "gpt-4o-mini", zap.NewNop())
	r := chirouter.NewRouter()
	srv.Routes(r)
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
