package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/kiranshivaraju/recruitflow/internal/ai"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// DefaultEvaluation is what NewMockProvider answers to screening prompts.
const DefaultEvaluation = "```json\n" + `{
  "score": 82,
  "assessment": "Solid backend experience with relevant cloud exposure.",
  "matching_skills": ["Go", "PostgreSQL", "AWS"],
  "missing_skills": ["Kubernetes"],
  "recommendation": "PROCEED"
}` + "\n```"

// DefaultScript is what NewMockProvider answers to script prompts.
const DefaultScript = "Hello, this is the recruiting assistant calling about your application."

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (string, error)

	mu       sync.Mutex
	requests []models.CompletionRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// Requests returns every request received so far.
func (m *MockProvider) Requests() []models.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CompletionRequest(nil), m.requests...)
}

// NewMockProvider returns a MockProvider that answers screening prompts with
// DefaultEvaluation and every other prompt with DefaultScript.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			if strings.Contains(req.Prompt, "CANDIDATE RESUME") {
				return DefaultEvaluation, nil
			}
			return DefaultScript, nil
		},
	}
}

// NewStaticProvider returns a MockProvider that always answers with response.
func NewStaticProvider(response string) *MockProvider {
	return &MockProvider{
		Name_: "mock-static",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return response, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
