package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// FileStore keeps pending exchanges in a single JSON object on disk, keyed by
// correlation key. The whole index is loaded at open and rewritten on every
// mutation through a temp file and rename, so a crash leaves either the old
// or the new index.
type FileStore struct {
	path        string
	mu          sync.Mutex
	items       map[string]domain.Exchange
	quarantined string
}

// OpenFileStore loads path. A missing file starts an empty store. A file that
// cannot be read or decoded is moved aside and the store starts empty; see
// Quarantined.
func OpenFileStore(path string, now time.Time) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	s := &FileStore{path: path, items: map[string]domain.Exchange{}}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err == nil && len(bytes.TrimSpace(b)) == 0:
		return s, nil
	case err == nil:
		if items, ok := decodeIndex(b); ok {
			s.items = items
			return s, nil
		}
	}

	// unreadable or undecodable: degrade to empty
	s.items = map[string]domain.Exchange{}
	s.quarantined = fmt.Sprintf("%s.corrupt-%d", path, now.Unix())
	if rerr := os.Rename(path, s.quarantined); rerr != nil {
		s.quarantined = ""
	}
	return s, nil
}

// decodeIndex parses a key → record object. A document that is not an
// object, or holds a null or id-less record, is rejected as a whole.
func decodeIndex(b []byte) (map[string]domain.Exchange, bool) {
	var raw map[string]*domain.Exchange
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		return nil, false
	}
	items := make(map[string]domain.Exchange, len(raw))
	for k, ex := range raw {
		if ex == nil || ex.QuestionID == "" {
			return nil, false
		}
		ex.CorrelationKey = k
		items[k] = *ex
	}
	return items, true
}

// Quarantined returns where a corrupt index was moved at open, or "".
func (s *FileStore) Quarantined() string { return s.quarantined }

// Put inserts ex under key. ErrDuplicate when key is already pending.
func (s *FileStore) Put(_ context.Context, key string, ex domain.Exchange) error {
	ex.CorrelationKey = key
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		return ErrDuplicate
	}
	s.items[key] = ex
	if err := s.persist(); err != nil {
		delete(s.items, key)
		return err
	}
	return nil
}

// Take removes and returns the exchange stored under key, or ErrNotFound.
func (s *FileStore) Take(_ context.Context, key string) (*domain.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.items, key)
	if err := s.persist(); err != nil {
		s.items[key] = ex
		return nil, err
	}
	return &ex, nil
}

// Snapshot returns a copy of the index.
func (s *FileStore) Snapshot(_ context.Context) (map[string]domain.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Exchange, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out, nil
}

// SweepOlderThan removes exchanges asked before cutoff and returns them.
func (s *FileStore) SweepOlderThan(_ context.Context, cutoff time.Time) ([]domain.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []domain.Exchange
	for k, ex := range s.items {
		if ex.AskedAt.Before(cutoff) {
			stale = append(stale, ex)
			delete(s.items, k)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}
	if err := s.persist(); err != nil {
		for _, ex := range stale {
			s.items[ex.CorrelationKey] = ex
		}
		return nil, err
	}
	return stale, nil
}

// Stats reports how many exchanges are pending and when the oldest was asked.
func (s *FileStore) Stats(_ context.Context) (int64, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest *time.Time
	for _, ex := range s.items {
		if oldest == nil || ex.AskedAt.Before(*oldest) {
			at := ex.AskedAt
			oldest = &at
		}
	}
	return int64(len(s.items)), oldest, nil
}

// persist rewrites the whole index. Caller holds mu.
func (s *FileStore) persist() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.items); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
