package repo

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func openFileStore(t *testing.T, path string) *FileStore {
	t.Helper()
	s, err := OpenFileStore(path, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	return s
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	s := openFileStore(t, filepath.Join(t.TempDir(), "nested", "pending.json"))
	snap, _ := s.Snapshot(context.Background())
	if len(snap) != 0 || s.Quarantined() != "" {
		t.Fatalf("expected empty store, got %v quarantined=%q", snap, s.Quarantined())
	}
}

func TestFileStore_PutTake_PersistsOriginalShape(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pending.json")
	s := openFileStore(t, path)

	if err := s.Put(ctx, "42:100", exchange("42:100", "q-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	var onDisk map[string]map[string]any
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("index is not a JSON object: %v", err)
	}
	rec, ok := onDisk["42:100"]
	if !ok || rec["qid"] != "q-1" || rec["sentence"] != "Buongiorno" || rec["direction"] != "IT" || rec["chat_id"] != "42" {
		t.Fatalf("unexpected on-disk record: %s", raw)
	}

	got, err := s.Take(ctx, "42:100")
	if err != nil || got.QuestionID != "q-1" {
		t.Fatalf("Take: %+v %v", got, err)
	}
	if _, err := s.Take(ctx, "42:100"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Take should be ErrNotFound, got %v", err)
	}
	raw, _ = os.ReadFile(path)
	if strings.TrimSpace(string(raw)) != "{}" {
		t.Fatalf("index should be empty after take, got %s", raw)
	}
}

func TestFileStore_DuplicateKeepsFirst(t *testing.T) {
	ctx := context.Background()
	s := openFileStore(t, filepath.Join(t.TempDir(), "pending.json"))
	if err := s.Put(ctx, "k", exchange("42:1", "q-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "k", exchange("42:1", "q-2")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	snap, _ := s.Snapshot(ctx)
	if snap["k"].QuestionID != "q-1" {
		t.Fatalf("first record must be untouched, got %+v", snap["k"])
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pending.json")
	s := openFileStore(t, path)
	for _, k := range []string{"42:1", "42:2"} {
		if err := s.Put(ctx, k, exchange(k, "q"+k)); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	s2 := openFileStore(t, path)
	snap, _ := s2.Snapshot(ctx)
	if len(snap) != 2 || snap["42:2"].CorrelationKey != "42:2" {
		t.Fatalf("expected 2 records after reopen, got %+v", snap)
	}
	if _, err := s2.Take(ctx, "42:1"); err != nil {
		t.Fatalf("Take after reopen: %v", err)
	}
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pending.json")
	if err := os.WriteFile(path, []byte(`{"42:1": {"qid": `), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := openFileStore(t, path)
	snap, _ := s.Snapshot(ctx)
	if len(snap) != 0 {
		t.Fatalf("corrupt index must degrade to empty, got %+v", snap)
	}
	if want := path + ".corrupt-1700000000"; s.Quarantined() != want {
		t.Fatalf("Quarantined() = %q want %q", s.Quarantined(), want)
	}
	if err := s.Put(ctx, "42:2", exchange("42:2", "q-2")); err != nil {
		t.Fatalf("store must stay usable: %v", err)
	}
}

func TestFileStore_NullDocumentStartsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, doc := range map[string]string{
		"null document": "null\n",
		"null record":   `{"42:1": null}`,
		"id-less":       `{"42:1": {"sentence": "Ciao"}}`,
		"array":         `[]`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pending.json")
			if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
				t.Fatalf("seed: %v", err)
			}

			s := openFileStore(t, path)
			if want := path + ".corrupt-1700000000"; s.Quarantined() != want {
				t.Fatalf("Quarantined() = %q want %q", s.Quarantined(), want)
			}
			if snap, _ := s.Snapshot(ctx); len(snap) != 0 {
				t.Fatalf("want empty store, got %+v", snap)
			}
			if err := s.Put(ctx, "42:2", exchange("42:2", "q-2")); err != nil {
				t.Fatalf("Put after degraded open: %v", err)
			}
			if _, err := s.Take(ctx, "42:2"); err != nil {
				t.Fatalf("Take after degraded open: %v", err)
			}
		})
	}
}

func TestFileStore_ConcurrentTake_ExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	s := openFileStore(t, filepath.Join(t.TempDir(), "pending.json"))
	if err := s.Put(ctx, "42:100", exchange("42:100", "q-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var wg sync.WaitGroup
	var winners atomic.Int32
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "42:100"); err == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	if winners.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners.Load())
	}
}

func TestFileStore_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	s := openFileStore(t, filepath.Join(dir, "pending.json"))
	if err := s.Put(ctx, "42:1", exchange("42:1", "q-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// make the directory vanish so the temp file cannot be created
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}

	if err := s.Put(ctx, "42:2", exchange("42:2", "q-2")); err == nil {
		t.Fatalf("expected persist error")
	}
	if _, err := s.Take(ctx, "42:1"); err == nil {
		t.Fatalf("expected persist error on take")
	}
	snap, _ := s.Snapshot(ctx)
	if _, ok := snap["42:1"]; !ok || len(snap) != 1 {
		t.Fatalf("in-memory state must be rolled back, got %+v", snap)
	}
}

func TestFileStore_SweepOlderThan_AndStats(t *testing.T) {
	ctx := context.Background()
	s := openFileStore(t, filepath.Join(t.TempDir(), "pending.json"))
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, k := range []string{"1:1", "1:2"} {
		ex := exchange(k, "q"+k)
		ex.AskedAt = base.Add(time.Duration(i) * time.Hour)
		_ = s.Put(ctx, k, ex)
	}

	n, oldest, _ := s.Stats(ctx)
	if n != 2 || !oldest.Equal(base) {
		t.Fatalf("Stats = %d %v", n, oldest)
	}
	swept, err := s.SweepOlderThan(ctx, base.Add(30*time.Minute))
	if err != nil || len(swept) != 1 || swept[0].CorrelationKey != "1:1" {
		t.Fatalf("SweepOlderThan = %+v %v", swept, err)
	}
	n, _, _ = s.Stats(ctx)
	if n != 1 {
		t.Fatalf("expected 1 remaining, got %d", n)
	}
}
