package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

func TestRecordUpdate_FirstThenDuplicate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &domain.ProcessedUpdate{})
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	rec, err := RecordUpdate(ctx, db, 1001, "42", time.Hour, now)
	if err != nil {
		t.Fatalf("RecordUpdate: %v", err)
	}
	if rec.ID == "" || rec.UpdateID != 1001 || !rec.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := RecordUpdate(ctx, db, 1001, "42", time.Hour, now.Add(time.Minute)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestRecordUpdate_ExpiredRecordIsReplaced(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &domain.ProcessedUpdate{})
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	if _, err := RecordUpdate(ctx, db, 7, "42", time.Minute, now); err != nil {
		t.Fatalf("RecordUpdate: %v", err)
	}
	if _, err := RecordUpdate(ctx, db, 7, "42", time.Minute, now.Add(2*time.Minute)); err != nil {
		t.Fatalf("expired record should be replaced, got %v", err)
	}
	var n int64
	db.Model(&domain.ProcessedUpdate{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected a single row, got %d", n)
	}
}

func TestPurgeExpiredUpdates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &domain.ProcessedUpdate{})
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	_, _ = RecordUpdate(ctx, db, 1, "42", time.Minute, now)
	_, _ = RecordUpdate(ctx, db, 2, "42", time.Hour, now)

	n, err := PurgeExpiredUpdates(ctx, db, now.Add(10*time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredUpdates = %d, %v", n, err)
	}
}

func TestUpdateLog_FirstSeen(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &domain.ProcessedUpdate{})
	fixed := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	u := &UpdateLog{DB: db, TTL: time.Hour, Now: func() time.Time { return fixed }}

	first, err := u.FirstSeen(ctx, 55, "42")
	if err != nil || !first {
		t.Fatalf("first delivery: %v %v", first, err)
	}
	again, err := u.FirstSeen(ctx, 55, "42")
	if err != nil || again {
		t.Fatalf("redelivery should not be first: %v %v", again, err)
	}
	other, err := u.FirstSeen(ctx, 56, "42")
	if err != nil || !other {
		t.Fatalf("different update should be first: %v %v", other, err)
	}
}

func TestUpdateLog_ForgetReleasesUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &domain.ProcessedUpdate{})
	u := &UpdateLog{DB: db, TTL: time.Hour}

	if first, err := u.FirstSeen(ctx, 90, "42"); err != nil || !first {
		t.Fatalf("first delivery: %v %v", first, err)
	}
	if err := u.Forget(ctx, 90, "42"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if first, err := u.FirstSeen(ctx, 90, "42"); err != nil || !first {
		t.Fatalf("released update should count as new: %v %v", first, err)
	}
	if err := u.Forget(ctx, 91, "42"); err != nil {
		t.Fatalf("Forget of unknown update: %v", err)
	}
}

func TestUpdateLog_PropagatesDBErrors(t *testing.T) {
	db := newTestDB(t) // no table
	u := &UpdateLog{DB: db, TTL: time.Hour}
	if _, err := u.FirstSeen(context.Background(), 1, "42"); err == nil {
		t.Fatalf("expected error without processed_updates table")
	}
}
