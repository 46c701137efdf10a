package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// SQLStore keeps pending exchanges in the pending_exchanges table.
//
// Mutations are serialized in-process by mu. Take additionally requires its
// DELETE to affect exactly one row, so processes sharing the database also
// see a single winner for each key.
type SQLStore struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *gorm.DB) *SQLStore { return &SQLStore{db: db} }

// Put inserts ex under key. ErrDuplicate when key is already pending.
func (s *SQLStore) Put(ctx context.Context, key string, ex domain.Exchange) error {
	ex.CorrelationKey = key
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.WithContext(ctx).Create(&ex).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Take removes and returns the exchange stored under key, or ErrNotFound.
func (s *SQLStore) Take(ctx context.Context, key string) (*domain.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out domain.Exchange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, "correlation_key = ?", key).Error; err != nil {
			return err
		}
		res := tx.Where("correlation_key = ?", key).Delete(&domain.Exchange{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// someone else consumed it between our read and delete
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Snapshot returns every pending exchange keyed by correlation key.
func (s *SQLStore) Snapshot(ctx context.Context) (map[string]domain.Exchange, error) {
	var rows []domain.Exchange
	if err := s.db.WithContext(ctx).Order("asked_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]domain.Exchange, len(rows))
	for _, r := range rows {
		out[r.CorrelationKey] = r
	}
	return out, nil
}

// SweepOlderThan removes exchanges asked before cutoff and returns them.
func (s *SQLStore) SweepOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []domain.Exchange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("asked_at < ?", cutoff).Order("asked_at ASC").Find(&stale).Error; err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		keys := make([]string, len(stale))
		for i, ex := range stale {
			keys[i] = ex.CorrelationKey
		}
		return tx.Where("correlation_key IN ?", keys).Delete(&domain.Exchange{}).Error
	})
	if err != nil {
		return nil, err
	}
	return stale, nil
}

// Stats reports how many exchanges are pending and when the oldest was asked.
func (s *SQLStore) Stats(ctx context.Context) (int64, *time.Time, error) {
	return PendingStats(ctx, s.db)
}
