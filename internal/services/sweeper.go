package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// Sweepable is implemented by pending stores that can drop stale records.
type Sweepable interface {
	SweepOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Exchange, error)
}

// Sweeper periodically removes pending questions older than MaxAge.
// Swept questions are only logged; they never produce audit events.
type Sweeper struct {
	Store    Sweepable
	MaxAge   time.Duration
	Interval time.Duration
	Now      func() time.Time
	Logger   zerolog.Logger
}

// SweepOnce removes every record asked before now-MaxAge.
func (s *Sweeper) SweepOnce(ctx context.Context) ([]domain.Exchange, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	swept, err := s.Store.SweepOlderThan(ctx, now().Add(-s.MaxAge))
	if err != nil {
		return nil, err
	}
	pendingSwept.Add(float64(len(swept)))
	for _, ex := range swept {
		s.Logger.Info().
			Str("qid", ex.QuestionID).
			Str("key", ex.CorrelationKey).
			Time("asked_at", ex.AskedAt).
			Msg("pending question expired")
	}
	return swept, nil
}

// Run sweeps every Interval until ctx is done. A zero MaxAge disables it.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.MaxAge <= 0 {
		return nil
	}
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.Logger.Error().Err(err).Msg("sweep pending")
			}
		}
	}
}
