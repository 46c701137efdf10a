// Package services – Engine
//
// Engine owns the lifecycle of a question: ASKED while it sits in the pending
// store, ANSWERED once a reply has consumed it. The pending store's atomic
// Take is the single point that decides which reply wins; everything after it
// (evaluation, confirmation, audit) runs only for that winner.
//
// Observability: Ask and Answer are OpenTelemetry spans and feed the tutor_*
// Prometheus counters.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-tutor-bot/internal/domain"
	"github.com/tbourn/go-tutor-bot/internal/evaluation"
	"github.com/tbourn/go-tutor-bot/internal/eventlog"
	"github.com/tbourn/go-tutor-bot/internal/repo"
)

// PendingStore holds the questions still waiting for an answer.
type PendingStore interface {
	// Put records ex under key; repo.ErrDuplicate if key is taken.
	Put(ctx context.Context, key string, ex domain.Exchange) error
	// Take atomically removes and returns the record; repo.ErrNotFound if absent.
	Take(ctx context.Context, key string) (*domain.Exchange, error)
	// Snapshot returns a copy of every pending record.
	Snapshot(ctx context.Context) (map[string]domain.Exchange, error)
}

// Transport delivers chat messages and returns the sent message's
// correlation key.
type Transport interface {
	Send(ctx context.Context, chatRef, text string, opts domain.SendOptions) (string, error)
}

// QuestionPicker chooses the next prompt.
type QuestionPicker interface {
	Select() (domain.Direction, string)
}

// ConfirmationPicker chooses a generic reply for a matched answer.
type ConfirmationPicker interface {
	Pick() string
}

// Engine correlates questions and answers.
type Engine struct {
	Store         PendingStore
	Log           eventlog.Sink
	Transport     Transport
	Questions     QuestionPicker
	Confirmations ConfirmationPicker

	// Evaluator is optional; nil confirms every answer generically.
	Evaluator   evaluation.Evaluator
	EvalTimeout time.Duration

	Now    func() time.Time
	NewID  func() string
	Logger zerolog.Logger
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

// Ask sends a fresh question to chatRef and records it as pending under the
// sent message's key. Nothing is recorded when the send fails.
func (e *Engine) Ask(ctx context.Context, chatRef string, who domain.Requester) (*domain.Exchange, error) {
	tr := otel.Tracer("services/Engine")
	ctx, span := tr.Start(context.WithoutCancel(ctx), "Ask",
		trace.WithAttributes(attribute.String("chat.id", chatRef)),
	)
	defer span.End()

	dir, sentence := e.Questions.Select()
	qid := e.newID()
	span.SetAttributes(attribute.String("question.id", qid), attribute.String("question.direction", string(dir)))

	key, err := e.Transport.Send(ctx, chatRef, RenderQuestion(qid, dir, sentence),
		domain.SendOptions{ForceReply: true, Markdown: true})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send")
		return nil, fmt.Errorf("%w: send question: %v", ErrTransport, err)
	}

	ex := domain.Exchange{
		CorrelationKey: key,
		QuestionID:     qid,
		Direction:      dir,
		PromptText:     sentence,
		AskedAt:        e.now().UTC(),
		ChatRef:        chatRef,
		Requester:      who,
	}
	if err := e.Store.Put(ctx, key, ex); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put")
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
		}
		return nil, err
	}
	questionsAsked.Inc()

	e.appendEvent(ctx, domain.AskedEvent(ex, ex.AskedAt))
	e.Logger.Info().
		Str("qid", qid).
		Str("chat_id", chatRef).
		Str("key", key).
		Str("direction", string(dir)).
		Msg("question asked")
	return &ex, nil
}

// Answer consumes the question in.ReplyToKey points at, confirms it in the
// chat and records the answered event. Messages that are not replies, or
// that reply to something not pending, are ignored with (nil, nil).
//
// The event is appended even when the confirmation cannot be sent; the send
// error is then returned together with the event.
func (e *Engine) Answer(ctx context.Context, in domain.Inbound) (*domain.Event, error) {
	tr := otel.Tracer("services/Engine")
	ctx, span := tr.Start(context.WithoutCancel(ctx), "Answer",
		trace.WithAttributes(
			attribute.String("chat.id", in.ChatRef),
			attribute.String("message.key", in.MessageID),
		),
	)
	defer span.End()

	if !in.IsReply() {
		repliesIgnored.WithLabelValues(ignoreNotReply).Inc()
		return nil, nil
	}

	ex, err := e.Store.Take(ctx, in.ReplyToKey)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			repliesIgnored.WithLabelValues(ignoreUnknownKey).Inc()
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "take")
		return nil, err
	}
	answersMatched.Inc()
	span.SetAttributes(attribute.String("question.id", ex.QuestionID))

	in.Text = strings.TrimSpace(in.Text)
	botReply, eval := e.evaluate(ctx, ex, in.Text)

	_, sendErr := e.Transport.Send(ctx, in.ChatRef, RenderConfirmation(botReply),
		domain.SendOptions{ReplyToKey: in.MessageID})

	ev := domain.AnsweredEvent(*ex, in, e.now(), botReply, eval)
	e.appendEvent(ctx, ev)
	e.Logger.Info().
		Str("qid", ex.QuestionID).
		Str("chat_id", in.ChatRef).
		Str("key", in.ReplyToKey).
		Msg("question answered")

	if sendErr != nil {
		span.RecordError(sendErr)
		span.SetStatus(codes.Error, "send")
		return &ev, fmt.Errorf("%w: send confirmation: %v", ErrTransport, sendErr)
	}
	return &ev, nil
}

func (e *Engine) evaluate(ctx context.Context, ex *domain.Exchange, answer string) (string, *domain.Evaluation) {
	if e.Evaluator == nil {
		return e.Confirmations.Pick(), nil
	}
	ectx := ctx
	if e.EvalTimeout > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, e.EvalTimeout)
		defer cancel()
	}
	res, err := e.Evaluator.Evaluate(ectx, evaluation.Request{
		QuestionID: ex.QuestionID,
		Direction:  ex.Direction,
		Source:     ex.PromptText,
		UserAnswer: answer,
	})
	if err != nil || res == nil || strings.TrimSpace(res.Feedback) == "" {
		evaluationFallbacks.Inc()
		e.Logger.Warn().Err(err).Str("qid", ex.QuestionID).Msg("evaluation unavailable, sending generic confirmation")
		return e.Confirmations.Pick(), nil
	}
	return res.Feedback, res
}

func (e *Engine) appendEvent(ctx context.Context, ev domain.Event) {
	if e.Log == nil {
		return
	}
	if err := e.Log.Append(ctx, ev); err != nil {
		eventLogFailures.Inc()
		e.Logger.Error().Err(err).
			Str("qid", ev.QuestionID).
			Str("event", string(ev.Kind)).
			Msg("event log append")
	}
}
