package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// PendingStats returns the number of pending exchanges and the AskedAt of
// the oldest one. When nothing is pending, oldest is nil.
func PendingStats(ctx context.Context, db *gorm.DB) (count int64, oldest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Exchange{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get earliest asked_at (avoid MIN() -> TEXT in SQLite)
	var row struct {
		AskedAt time.Time
	}
	if err = q.Select("asked_at").Order("asked_at ASC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.AskedAt, nil
}

// EventCounts returns the number of mirrored events per kind.
func EventCounts(ctx context.Context, db *gorm.DB) (map[domain.EventKind]int64, error) {
	var rows []struct {
		Event string
		N     int64
	}
	err := db.WithContext(ctx).Model(&domain.Event{}).
		Select("event, COUNT(*) AS n").
		Group("event").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[domain.EventKind]int64{domain.EventAsked: 0, domain.EventAnswered: 0}
	for _, r := range rows {
		out[domain.EventKind(r.Event)] = r.N
	}
	return out, nil
}
