package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// RecordUpdate registers updateID as processed until now+ttl. It returns
// ErrDuplicate when a live record for the same update already exists. An
// expired record for the id is replaced.
func RecordUpdate(ctx context.Context, db *gorm.DB, updateID int64, chatRef string, ttl time.Duration, now time.Time) (*domain.ProcessedUpdate, error) {
	now = now.UTC()
	rec := &domain.ProcessedUpdate{
		ID:         uuid.NewString(),
		UpdateID:   updateID,
		ChatRef:    chatRef,
		ReceivedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("update_id = ? AND expires_at <= ?", updateID, now).
			Delete(&domain.ProcessedUpdate{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredUpdates deletes processed-update records that expired before now.
func PurgeExpiredUpdates(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&domain.ProcessedUpdate{})
	return res.RowsAffected, res.Error
}

// UpdateLog adapts RecordUpdate to the dispatcher's dedup check.
type UpdateLog struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

// FirstSeen reports whether updateID is new; it records it if so.
func (u *UpdateLog) FirstSeen(ctx context.Context, updateID int64, chatRef string) (bool, error) {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	_, err := RecordUpdate(ctx, u.DB, updateID, chatRef, u.TTL, now())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrDuplicate):
		return false, nil
	default:
		return false, err
	}
}

// Forget drops the record of updateID so a later delivery counts as new.
func (u *UpdateLog) Forget(ctx context.Context, updateID int64, chatRef string) error {
	return u.DB.WithContext(ctx).
		Where("update_id = ? AND chat_ref = ?", updateID, chatRef).
		Delete(&domain.ProcessedUpdate{}).Error
}
