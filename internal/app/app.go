// Package app assembles the bot from configuration: storage, event log,
// evaluation, transport, the correlation engine and the HTTP surface. The CLI
// commands build one App per invocation and use the parts they need.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-tutor-bot/internal/config"
	"github.com/tbourn/go-tutor-bot/internal/content"
	"github.com/tbourn/go-tutor-bot/internal/domain"
	"github.com/tbourn/go-tutor-bot/internal/evaluation"
	"github.com/tbourn/go-tutor-bot/internal/eventlog"
	httpapi "github.com/tbourn/go-tutor-bot/internal/http"
	"github.com/tbourn/go-tutor-bot/internal/http/handlers"
	"github.com/tbourn/go-tutor-bot/internal/repo"
	"github.com/tbourn/go-tutor-bot/internal/services"
	"github.com/tbourn/go-tutor-bot/internal/transport/telegram"
)

// Options override parts of the assembly.
type Options struct {
	// Transport replaces the Telegram client. Polling and webhook
	// registration are unavailable when set.
	Transport services.Transport
	// Now replaces the wall clock.
	Now func() time.Time
	// Logger replaces the global logger.
	Logger *zerolog.Logger
	// Version is reported in traces.
	Version string
}

// App holds the assembled components.
type App struct {
	Cfg    config.Config
	Logger zerolog.Logger

	DB         *gorm.DB
	Store      services.PendingStore
	Events     *repo.EventRepo // nil unless EVENT_LOG_MIRROR
	Engine     *services.Engine
	Dispatcher *services.Dispatcher
	Sweeper    *services.Sweeper // nil when the backend cannot sweep
	Client     *telegram.Client  // nil when Options.Transport is set

	version string
	now     func() time.Time
	closers []func() error
}

// New builds an App. On error everything opened so far is closed.
func New(ctx context.Context, cfg config.Config, opts Options) (a *App, err error) {
	a = &App{Cfg: cfg, now: opts.Now, version: opts.Version, Logger: log.Logger}
	if a.now == nil {
		a.now = time.Now
	}
	if opts.Logger != nil {
		a.Logger = *opts.Logger
	}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	if err = a.openDB(); err != nil {
		return a, err
	}
	if err = a.openStore(ctx); err != nil {
		return a, err
	}
	sink, err := a.openEventLog()
	if err != nil {
		return a, err
	}

	evaluator, err := evaluation.New(cfg.Eval)
	if err != nil {
		return a, err
	}

	transport := opts.Transport
	if transport == nil {
		if a.Client, err = telegram.New(cfg.Bot.Token, cfg.Bot.TransportTimeout); err != nil {
			return a, err
		}
		transport = a.Client
	}

	dir, _ := domain.ParseDirection(cfg.Content.DefaultDirection)
	a.Engine = &services.Engine{
		Store:         a.Store,
		Log:           sink,
		Transport:     transport,
		Questions:     content.NewSelector(content.FileSource(cfg.Content.QuestionsPath), content.WithDefaultDirection(dir)),
		Confirmations: content.NewConfirmations(content.FileSource(cfg.Content.AnswersPath)),
		Evaluator:     evaluator,
		EvalTimeout:   cfg.Eval.Timeout,
		Now:           a.now,
		Logger:        a.Logger.With().Str("component", "engine").Logger(),
	}
	a.Dispatcher = &services.Dispatcher{
		Engine:  a.Engine,
		Updates: &repo.UpdateLog{DB: a.DB, TTL: cfg.Store.UpdateDedupTTL, Now: a.now},
	}
	if sw, ok := a.Store.(services.Sweepable); ok {
		a.Sweeper = &services.Sweeper{
			Store:    sw,
			MaxAge:   cfg.Store.PendingMaxAge,
			Interval: cfg.Store.SweepInterval,
			Now:      a.now,
			Logger:   a.Logger.With().Str("component", "sweeper").Logger(),
		}
	}
	return a, nil
}

func (a *App) openDB() error {
	var err error
	switch a.Cfg.Store.DBDriver {
	case config.DriverPostgres:
		a.DB, err = repo.OpenPostgres(a.Cfg.Store.DatabaseURL)
	default:
		path := a.Cfg.Store.DBPath
		if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		var quarantined string
		a.DB, quarantined, err = repo.OpenOrRecoverSQLite(path, a.now())
		if quarantined != "" {
			a.Logger.Warn().Str("path", path).Str("moved_to", quarantined).Msg("corrupt database quarantined; starting empty")
		}
	}
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, func() error { return repo.Close(a.DB) })

	if a.Cfg.OTEL.Enabled {
		if err := repo.EnableTracing(a.DB); err != nil {
			return fmt.Errorf("gorm tracing: %w", err)
		}
	}
	if err := repo.AutoMigrate(a.DB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Cfg.Store.PendingBackend {
	case config.BackendFile:
		fs, err := repo.OpenFileStore(a.Cfg.Store.PendingPath, a.now())
		if err != nil {
			return fmt.Errorf("open pending file: %w", err)
		}
		if q := fs.Quarantined(); q != "" {
			a.Logger.Warn().Str("path", a.Cfg.Store.PendingPath).Str("moved_to", q).Msg("corrupt pending file quarantined; starting empty")
		}
		a.Store = fs
	case config.BackendRedis:
		rdb, err := repo.DialRedis(ctx, a.Cfg.Redis.Addr, a.Cfg.Redis.Password, a.Cfg.Redis.DB)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, rdb.Close)
		a.Store = repo.NewRedisStore(rdb, a.Cfg.Redis.Prefix, a.Cfg.Store.PendingMaxAge)
	default:
		a.Store = repo.NewSQLStore(a.DB)
	}
	return nil
}

func (a *App) openEventLog() (eventlog.Sink, error) {
	journal, err := eventlog.OpenJSONL(a.Cfg.Store.EventLogPath, a.Cfg.Store.EventLogFsync)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	a.closers = append(a.closers, journal.Close)
	if !a.Cfg.Store.EventLogMirror {
		return journal, nil
	}
	a.Events = &repo.EventRepo{DB: a.DB}
	return eventlog.Tee{journal, a.Events}, nil
}

// Handlers builds the HTTP handlers. The serving evaluator is resolved here;
// an unsupported provider leaves /v1/evaluate answering 501.
func (a *App) Handlers() *handlers.Handlers {
	deps := handlers.Deps{
		Pending:        a.Store,
		Asker:          a.Engine,
		Updates:        a.Dispatcher,
		WebhookTimeout: a.Cfg.Bot.WebhookTimeout,
	}
	if a.Events != nil {
		deps.Events = a.Events
	}
	if a.Cfg.Eval.Serve {
		ev, err := evaluation.NewServing(a.Cfg.Eval)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("evaluation endpoint disabled")
		} else if ev != nil {
			deps.Evaluator = ev
		}
	}
	return handlers.New(deps)
}

// Router returns a Gin engine with every enabled route registered.
func (a *App) Router() *gin.Engine {
	gin.SetMode(a.Cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, a.Handlers(), a.Cfg)
	return r
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
