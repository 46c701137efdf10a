package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-tutor-bot/internal/domain"
	"github.com/tbourn/go-tutor-bot/internal/repo"
)

type seenSet struct {
	seen map[int64]bool
	err  error
}

func (s *seenSet) FirstSeen(_ context.Context, id int64, _ string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen[id] {
		return false, nil
	}
	s.seen[id] = true
	return true, nil
}

func (s *seenSet) Forget(_ context.Context, id int64, _ string) error {
	delete(s.seen, id)
	return nil
}

func TestDispatcher_FailedUpdateIsReleasedForRetry(t *testing.T) {
	h := newHarness(t)
	seen := &seenSet{seen: map[int64]bool{}}
	d := &Dispatcher{Engine: h.engine, Updates: seen}
	ctx := context.Background()

	down := errors.New("bad gateway")
	h.tx.fail = func(string) error { return down }
	ask := domain.Inbound{UpdateID: 20, ChatRef: "42", Command: domain.CommandAsk}
	require.ErrorIs(t, d.Handle(ctx, ask), ErrTransport)
	require.False(t, seen.seen[20])

	h.tx.fail = nil
	require.NoError(t, d.Handle(ctx, ask))
	require.Len(t, h.tx.Sent(), 1)
	require.True(t, seen.seen[20])

	require.NoError(t, d.Handle(ctx, ask))
	require.Len(t, h.tx.Sent(), 1)
}

func TestDispatcher_StartGreetsThenAsks(t *testing.T) {
	h := newHarness(t)
	d := &Dispatcher{Engine: h.engine, Updates: &seenSet{seen: map[int64]bool{}}}

	require.NoError(t, d.Handle(context.Background(), domain.Inbound{UpdateID: 1, ChatRef: "42", Command: domain.CommandStart, Sender: anna}))

	sent := h.tx.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, Greeting, sent[0].Text)
	require.True(t, sent[1].Opts.ForceReply)
}

func TestDispatcher_RoutesAndDedups(t *testing.T) {
	h := newHarness(t)
	d := &Dispatcher{Engine: h.engine, Updates: &seenSet{seen: map[int64]bool{}}}
	ctx := context.Background()

	ask := domain.Inbound{UpdateID: 10, ChatRef: "42", Command: domain.CommandAsk}
	require.NoError(t, d.Handle(ctx, ask))
	require.NoError(t, d.Handle(ctx, ask)) // redelivered update
	require.Len(t, h.tx.Sent(), 1)

	require.NoError(t, d.Handle(ctx, domain.Inbound{UpdateID: 11, ChatRef: "42", Command: "settings"}))
	require.Len(t, h.tx.Sent(), 1)

	answer := reply("42", 102, h.tx.Sent()[0].Key, "Good morning")
	answer.UpdateID = 12
	require.NoError(t, d.Handle(ctx, answer))
	require.Len(t, h.tx.Sent(), 2)
	require.Len(t, h.log.Events(), 2)
}

func TestDispatcher_RecorderErrorStopsHandling(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("db locked")
	d := &Dispatcher{Engine: h.engine, Updates: &seenSet{err: boom}}

	err := d.Handle(context.Background(), domain.Inbound{UpdateID: 1, ChatRef: "42", Command: domain.CommandAsk})
	require.ErrorIs(t, err, boom)
	require.Empty(t, h.tx.Sent())
}

func TestDispatcher_WithUpdateLog(t *testing.T) {
	h := newHarness(t)
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "updates.db"))
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	t.Cleanup(func() { _ = repo.Close(db) })

	d := &Dispatcher{Engine: h.engine, Updates: &repo.UpdateLog{DB: db, TTL: time.Hour}}
	in := domain.Inbound{UpdateID: 77, ChatRef: "42", Command: domain.CommandAsk}
	require.NoError(t, d.Handle(context.Background(), in))
	require.NoError(t, d.Handle(context.Background(), in))
	require.Len(t, h.tx.Sent(), 1)
}

func TestSweeper_RemovesStaleOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	old, err := h.engine.Ask(ctx, "42", anna)
	require.NoError(t, err)
	h.engine.Now = func() time.Time { return t0.Add(2 * time.Hour) }
	fresh, err := h.engine.Ask(ctx, "42", anna)
	require.NoError(t, err)

	s := &Sweeper{
		Store:  h.store,
		MaxAge: time.Hour,
		Now:    func() time.Time { return t0.Add(2*time.Hour + time.Minute) },
		Logger: zerolog.Nop(),
	}
	swept, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	require.Len(t, swept, 1)
	require.Equal(t, old.QuestionID, swept[0].QuestionID)

	snap, err := h.store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	require.Contains(t, snap, fresh.CorrelationKey)

	// swept questions can no longer be answered
	ev, err := h.engine.Answer(ctx, reply("42", 900, old.CorrelationKey, "late"))
	require.NoError(t, err)
	require.Nil(t, ev)
}

func TestSweeper_DisabledReturnsImmediately(t *testing.T) {
	s := &Sweeper{MaxAge: 0}
	require.NoError(t, s.Run(context.Background()))
}
