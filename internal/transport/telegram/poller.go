package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// HandlerFunc processes one inbound message.
type HandlerFunc func(ctx context.Context, in domain.Inbound) error

// Poller long-polls getUpdates and hands each text message to Handle on a
// bounded pool of workers.
type Poller struct {
	Client         *Client
	Handle         HandlerFunc
	Timeout        int           // long-poll timeout, seconds
	Workers        int           // max concurrent handlers
	HandlerTimeout time.Duration // per-update budget, 0 = none
	Logger         zerolog.Logger
}

// Run blocks until ctx is done. In-flight handlers finish before it returns.
func (p *Poller) Run(ctx context.Context) error {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.Timeout
	updates := p.Client.api.GetUpdatesChan(cfg)

	var g errgroup.Group
	g.SetLimit(workers)

	for {
		select {
		case <-ctx.Done():
			p.Client.api.StopReceivingUpdates()
			_ = g.Wait()
			return nil
		case u, ok := <-updates:
			if !ok {
				_ = g.Wait()
				return nil
			}
			in, ok := NewInbound(u)
			if !ok {
				continue
			}
			g.Go(func() error {
				p.handle(ctx, in)
				return nil
			})
		}
	}
}

func (p *Poller) handle(ctx context.Context, in domain.Inbound) {
	hctx := context.WithoutCancel(ctx)
	if p.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(hctx, p.HandlerTimeout)
		defer cancel()
	}
	if err := p.Handle(hctx, in); err != nil {
		p.Logger.Error().Err(err).
			Int64("update_id", in.UpdateID).
			Str("chat_id", in.ChatRef).
			Msg("handle update")
	}
}
