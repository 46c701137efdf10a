// Handler wiring.
//
// Handlers is the HTTP face of the bot:
//   - POST /webhook/{secret}                 (Telegram deliveries)
//   - GET  /pending                          (admin: outstanding questions)
//   - POST /chats/{chat_id}/ask              (admin: send a question now)
//   - GET  /stats                            (admin: counters)
//   - GET  /questions/{qid}/events           (admin: audit trail of one question)
//   - POST /v1/evaluate                      (evaluation API)
//
// Handlers are transport-thin: they validate input, call the engine or the
// stores, and translate results into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-tutor-bot/internal/domain"
	"github.com/tbourn/go-tutor-bot/internal/evaluation"
)

//
// Service contracts (context-aware)
//

// PendingLister exposes a read-only view of the pending store.
type PendingLister interface {
	Snapshot(ctx context.Context) (map[string]domain.Exchange, error)
}

// pendingStatter is implemented by stores that can count without a full
// snapshot.
type pendingStatter interface {
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// Asker sends a new question to a chat.
type Asker interface {
	Ask(ctx context.Context, chatRef string, who domain.Requester) (*domain.Exchange, error)
}

// UpdateHandler processes one inbound chat message.
type UpdateHandler interface {
	Handle(ctx context.Context, in domain.Inbound) error
}

// EventReader reads the SQL mirror of the event log.
type EventReader interface {
	Counts(ctx context.Context) (map[domain.EventKind]int64, error)
	ByQuestion(ctx context.Context, questionID string) ([]domain.Event, error)
}

//
// Handler wiring
//

// Deps are the collaborators of Handlers. Events and Evaluator are optional.
type Deps struct {
	Pending        PendingLister
	Asker          Asker
	Updates        UpdateHandler
	Events         EventReader
	Evaluator      evaluation.Evaluator
	WebhookTimeout time.Duration
}

// Handlers groups the HTTP endpoints of the bot.
type Handlers struct {
	pending        PendingLister
	asker          Asker
	updates        UpdateHandler
	events         EventReader
	evaluator      evaluation.Evaluator
	webhookTimeout time.Duration
}

// New constructs Handlers bound to d.
func New(d Deps) *Handlers {
	if d.WebhookTimeout <= 0 {
		d.WebhookTimeout = 35 * time.Second
	}
	return &Handlers{
		pending:        d.Pending,
		asker:          d.Asker,
		updates:        d.Updates,
		events:         d.Events,
		evaluator:      d.Evaluator,
		webhookTimeout: d.WebhookTimeout,
	}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListPendingResponse wraps a page of outstanding questions.
type ListPendingResponse struct {
	Pending    []domain.Exchange `json:"pending"`
	Pagination Pagination        `json:"pagination"`
}

// StatsResponse summarizes the pending store and, when mirrored, the event log.
type StatsResponse struct {
	Pending       int64                      `json:"pending"                example:"3"`
	OldestAskedAt *time.Time                 `json:"oldest_asked_at,omitempty"`
	Events        map[domain.EventKind]int64 `json:"events,omitempty"`
}

// AskRequest optionally describes who the question is sent for.
type AskRequest struct {
	UserID       int64  `json:"user_id"       example:"7"`
	Username     string `json:"username"      example:"anna"`
	FirstName    string `json:"first_name"    example:"Anna"`
	LastName     string `json:"last_name"     example:"Rossi"`
	LanguageCode string `json:"language_code" example:"it"`
}

// QuestionEventsResponse lists the mirrored events of one question.
type QuestionEventsResponse struct {
	QuestionID string         `json:"qid"`
	Events     []domain.Event `json:"events"`
}

// WebhookAck is returned to Telegram for every accepted delivery.
type WebhookAck struct {
	OK bool `json:"ok" example:"true"`
}
