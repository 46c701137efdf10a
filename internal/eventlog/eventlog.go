// Package eventlog writes the append-only audit trail of asked and answered
// questions. Each entry is one self-contained JSON object per line; entries
// are never rewritten or truncated.
package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// Sink accepts audit entries.
type Sink interface {
	Append(ctx context.Context, ev domain.Event) error
}

// JSONL appends entries to a UTF-8 file, one JSON object per line.
// Concurrent appends are serialized so lines never interleave.
type JSONL struct {
	mu    sync.Mutex
	f     *os.File
	fsync bool
}

// OpenJSONL opens (or creates) path for appending. With fsync set, every
// entry is flushed to stable storage before Append returns.
func OpenJSONL(path string, fsync bool) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONL{f: f, fsync: fsync}, nil
}

// Encode renders ev as a single JSON line with a trailing newline.
// Non-ASCII text is kept verbatim.
func Encode(ev domain.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Append implements Sink.
func (l *JSONL) Append(_ context.Context, ev domain.Event) error {
	line, err := Encode(ev)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return os.ErrClosed
	}
	if _, err := l.f.Write(line); err != nil {
		return err
	}
	if l.fsync {
		return l.f.Sync()
	}
	return nil
}

// Close flushes and closes the file.
func (l *JSONL) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := errors.Join(l.f.Sync(), l.f.Close())
	l.f = nil
	return err
}

// Tee fans an entry out to several sinks. Every sink is attempted; the
// returned error joins all failures.
type Tee []Sink

// Append implements Sink.
func (t Tee) Append(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.Append(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
