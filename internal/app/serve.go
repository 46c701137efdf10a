package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-tutor-bot/internal/config"
	"github.com/tbourn/go-tutor-bot/internal/observability"
	"github.com/tbourn/go-tutor-bot/internal/repo"
	"github.com/tbourn/go-tutor-bot/internal/transport/telegram"
)

// shutdownGrace bounds HTTP draining and trace flushing on exit.
const shutdownGrace = 10 * time.Second

// ErrNoTelegram is returned when a mode needs the Telegram client but the
// App was built with a substitute transport.
var ErrNoTelegram = errors.New("telegram client not configured")

// Serve runs the HTTP server, the update source for the configured mode and
// the background maintenance loops until ctx is done or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	shutdownOTel, err := observability.SetupOTel(ctx, a.Cfg.OTEL, a.version,
		attribute.String("tutorbot.mode", a.Cfg.Bot.Mode),
		attribute.String("tutorbot.pending_backend", a.Cfg.Store.PendingBackend),
	)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		if err := shutdownOTel.Within(shutdownGrace); err != nil {
			a.Logger.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	var poller *telegram.Poller
	switch a.Cfg.Bot.Mode {
	case config.ModeWebhook:
		if err := a.registerWebhook(); err != nil {
			return err
		}
	default:
		if a.Client == nil {
			return ErrNoTelegram
		}
		// getUpdates is refused while a webhook is set
		if err := a.Client.DeleteWebhook(); err != nil {
			a.Logger.Warn().Err(err).Msg("deleteWebhook failed")
		}
		poller = &telegram.Poller{
			Client:         a.Client,
			Handle:         a.Dispatcher.Handle,
			Timeout:        a.Cfg.Bot.PollTimeout,
			Workers:        a.Cfg.Bot.Workers,
			HandlerTimeout: a.Cfg.Bot.WebhookTimeout,
			Logger:         a.Logger.With().Str("component", "poller").Logger(),
		}
	}

	srv := &http.Server{
		Addr:              ":" + a.Cfg.Port,
		Handler:           a.Router(),
		ReadTimeout:       a.Cfg.ReadTimeout,
		ReadHeaderTimeout: a.Cfg.ReadHeaderTimeout,
		WriteTimeout:      a.Cfg.WriteTimeout,
		IdleTimeout:       a.Cfg.IdleTimeout,
		MaxHeaderBytes:    a.Cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info().Str("addr", srv.Addr).Str("mode", a.Cfg.Bot.Mode).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if poller != nil {
		g.Go(func() error { return poller.Run(gctx) })
	}
	if a.Sweeper != nil {
		g.Go(func() error { return a.Sweeper.Run(gctx) })
	}
	g.Go(func() error { return a.purgeUpdates(gctx) })

	return g.Wait()
}

// registerWebhook points Telegram at this server when a public URL is set.
func (a *App) registerWebhook() error {
	if a.Cfg.Bot.WebhookURL == "" {
		a.Logger.Info().Msg("WEBHOOK_URL not set; expecting an externally registered webhook")
		return nil
	}
	if a.Client == nil {
		return ErrNoTelegram
	}
	url := a.Cfg.Bot.WebhookURL + "/webhook/" + a.Cfg.Bot.WebhookSecret
	if err := a.Client.SetWebhook(url, a.Cfg.Bot.WebhookHeader); err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	a.Logger.Info().Str("url", a.Cfg.Bot.WebhookURL+"/webhook/***").Msg("webhook registered")
	return nil
}

// purgeUpdates drops expired processed-update markers once per dedup TTL.
func (a *App) purgeUpdates(ctx context.Context) error {
	t := time.NewTicker(a.Cfg.Store.UpdateDedupTTL)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := repo.PurgeExpiredUpdates(ctx, a.DB, a.now())
			if err != nil {
				a.Logger.Warn().Err(err).Msg("purge processed updates")
				continue
			}
			if n > 0 {
				a.Logger.Debug().Int64("purged", n).Msg("processed updates purged")
			}
		}
	}
}
