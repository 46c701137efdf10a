// Package evaluation grades a user's translation. The bot treats every
// provider as optional: any error here makes the caller fall back to a
// generic confirmation.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tbourn/go-tutor-bot/internal/config"
	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// ErrUnavailable wraps every provider failure: transport errors, timeouts,
// non-2xx responses and unusable payloads.
var ErrUnavailable = errors.New("evaluation unavailable")

// Request is the evaluation input; it is also the wire format of
// POST /v1/evaluate.
type Request struct {
	QuestionID string           `json:"qid"         binding:"required"`
	Direction  domain.Direction `json:"direction"   binding:"required,oneof=IT EN"`
	Source     string           `json:"source"      binding:"required"`
	UserAnswer string           `json:"user_answer" binding:"required"`
}

// Evaluator grades one answer.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (*domain.Evaluation, error)
}

// New builds the evaluator selected by cfg.Provider. It returns a nil
// Evaluator for "none".
func New(cfg config.EvalConfig) (Evaluator, error) {
	return build(cfg.Provider, cfg)
}

// NewServing builds the evaluator behind the local /v1/evaluate endpoint.
// Only self-contained providers can serve; remote would call itself.
func NewServing(cfg config.EvalConfig) (Evaluator, error) {
	switch cfg.ServeProvider {
	case config.EvalMock, config.EvalOllama:
		return build(cfg.ServeProvider, cfg)
	}
	return nil, fmt.Errorf("provider not implemented: %s", cfg.ServeProvider)
}

func build(provider string, cfg config.EvalConfig) (Evaluator, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch provider {
	case config.EvalNone, "":
		return nil, nil
	case config.EvalMock:
		return Mock{}, nil
	case config.EvalRemote:
		return &Remote{BaseURL: cfg.URL, Client: client, Timeout: cfg.Timeout}, nil
	case config.EvalOllama:
		return &Ollama{BaseURL: cfg.OllamaURL, Model: cfg.OllamaModel, Client: client, Timeout: cfg.Timeout}, nil
	}
	return nil, fmt.Errorf("unknown evaluation provider %q", provider)
}

// Mock acknowledges every answer without grading it.
type Mock struct{}

// MockFeedback is the fixed feedback returned by Mock.
const MockFeedback = "✅ Received (mock)."

// Evaluate implements Evaluator.
func (Mock) Evaluate(ctx context.Context, _ Request) (*domain.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &domain.Evaluation{Feedback: MockFeedback, Provider: config.EvalMock}, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
