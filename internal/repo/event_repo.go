package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// EventRepo mirrors the audit trail into the exchange_events table.
// Rows are only ever inserted.
type EventRepo struct {
	DB *gorm.DB
}

// Append inserts a copy of ev.
func (r *EventRepo) Append(ctx context.Context, ev domain.Event) error {
	ev.ID = 0
	return r.DB.WithContext(ctx).Create(&ev).Error
}

// ListEventsByQuestion returns the events recorded for one question, oldest first.
func ListEventsByQuestion(ctx context.Context, db *gorm.DB, questionID string) ([]domain.Event, error) {
	var out []domain.Event
	err := db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// Counts returns the number of mirrored events per kind.
func (r *EventRepo) Counts(ctx context.Context) (map[domain.EventKind]int64, error) {
	return EventCounts(ctx, r.DB)
}

// ByQuestion returns the mirrored events of one question, oldest first.
func (r *EventRepo) ByQuestion(ctx context.Context, questionID string) ([]domain.Event, error) {
	return ListEventsByQuestion(ctx, r.DB, questionID)
}
