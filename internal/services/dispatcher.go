package services

import (
	"context"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// UpdateRecorder remembers which platform updates were already handled.
type UpdateRecorder interface {
	FirstSeen(ctx context.Context, updateID int64, chatRef string) (bool, error)
}

// updateForgetter is implemented by recorders that can release an update id
// whose handling failed.
type updateForgetter interface {
	Forget(ctx context.Context, updateID int64, chatRef string) error
}

// Dispatcher routes inbound chat messages to the engine.
type Dispatcher struct {
	Engine *Engine
	// Updates is optional; without it redelivered updates are still safe
	// because Answer is idempotent, but /ask would be asked twice.
	Updates UpdateRecorder
}

// Handle processes one inbound message:
//
//	/start  greeting, then a question
//	/ask    a question
//	other commands are ignored
//	text    treated as a possible answer
//
// The update id is recorded before routing so concurrent deliveries of the
// same update run once. If routing fails the id is released again, so a
// later delivery of that update is retried rather than dropped.
func (d *Dispatcher) Handle(ctx context.Context, in domain.Inbound) error {
	if d.Updates == nil || in.UpdateID == 0 {
		return d.route(ctx, in)
	}
	first, err := d.Updates.FirstSeen(ctx, in.UpdateID, in.ChatRef)
	if err != nil {
		return err
	}
	if !first {
		repliesIgnored.WithLabelValues(ignoreDuplicateUpd).Inc()
		return nil
	}
	err = d.route(ctx, in)
	if f, ok := d.Updates.(updateForgetter); ok && err != nil {
		if ferr := f.Forget(ctx, in.UpdateID, in.ChatRef); ferr != nil {
			d.Engine.Logger.Warn().Err(ferr).Int64("update_id", in.UpdateID).Msg("release update id")
		}
	}
	return err
}

func (d *Dispatcher) route(ctx context.Context, in domain.Inbound) error {
	switch in.Command {
	case domain.CommandStart:
		if _, err := d.Engine.Transport.Send(ctx, in.ChatRef, Greeting, domain.SendOptions{}); err != nil {
			d.Engine.Logger.Warn().Err(err).Str("chat_id", in.ChatRef).Msg("send greeting")
		}
		_, err := d.Engine.Ask(ctx, in.ChatRef, in.Sender)
		return err
	case domain.CommandAsk:
		_, err := d.Engine.Ask(ctx, in.ChatRef, in.Sender)
		return err
	case "":
		_, err := d.Engine.Answer(ctx, in)
		return err
	default:
		repliesIgnored.WithLabelValues(ignoreCommand).Inc()
		return nil
	}
}
