package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

var (
	askedAt = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	sampleX = domain.Exchange{
		CorrelationKey: "42:100",
		QuestionID:     "3f1c2a9e-7b4d-4c1a-9e2f-5a6b7c8d9e0f",
		Direction:      domain.DirectionIT,
		PromptText:     "Buongiorno",
		AskedAt:        askedAt,
		ChatRef:        "42",
		Requester:      domain.Requester{UserID: 7, Username: "anna", FirstName: "Anna", LanguageCode: "it"},
	}
)

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestEncode_AskedGolden(t *testing.T) {
	line, err := Encode(domain.AskedEvent(sampleX, askedAt))
	require.NoError(t, err)
	golden(t).Assert(t, "asked_event", line)
}

func TestEncode_AnsweredGolden(t *testing.T) {
	in := domain.Inbound{MessageID: "42:101", ChatRef: "42", Text: "Good morning <3 & è"}
	ev := domain.AnsweredEvent(sampleX, in, askedAt.Add(90*time.Second), "✅ Received (mock).",
		&domain.Evaluation{Feedback: "✅ Received (mock).", Provider: "mock"})
	line, err := Encode(ev)
	require.NoError(t, err)
	golden(t).Assert(t, "answered_event", line)
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), "line %q", sc.Text())
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestJSONL_AppendsInOrderAndSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "log.jsonl")
	ctx := context.Background()

	l, err := OpenJSONL(path, true)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, domain.AskedEvent(sampleX, askedAt)))
	require.NoError(t, l.Close())

	// reopening appends, never truncates
	l, err = OpenJSONL(path, false)
	require.NoError(t, err)
	in := domain.Inbound{MessageID: "42:101", Text: "Good morning"}
	require.NoError(t, l.Append(ctx, domain.AnsweredEvent(sampleX, in, askedAt.Add(time.Minute), "Thanks!", nil)))
	require.NoError(t, l.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	require.Equal(t, "asked", lines[0]["event"])
	require.Equal(t, "answered", lines[1]["event"])
	require.Equal(t, "Good morning", lines[1]["user_answer"])
	require.NotContains(t, lines[1], "evaluation")
}

func TestJSONL_ConcurrentAppendsNeverInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	l, err := OpenJSONL(path, false)
	require.NoError(t, err)
	defer l.Close()

	const n = 100
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ex := sampleX
			ex.QuestionID = fmt.Sprintf("q-%03d", i)
			ex.PromptText = fmt.Sprintf("frase numero %d", i)
			errs <- l.Append(context.Background(), domain.AskedEvent(ex, askedAt))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	lines := readLines(t, path)
	require.Len(t, lines, n)
	seen := map[any]bool{}
	for _, m := range lines {
		seen[m["qid"]] = true
	}
	require.Len(t, seen, n)
}

func TestJSONL_AppendAfterCloseFails(t *testing.T) {
	l, err := OpenJSONL(filepath.Join(t.TempDir(), "log.jsonl"), false)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	require.ErrorIs(t, l.Append(context.Background(), domain.AskedEvent(sampleX, askedAt)), os.ErrClosed)
}

type recordingSink struct {
	got []domain.Event
	err error
}

func (r *recordingSink) Append(_ context.Context, ev domain.Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestTee_AttemptsEverySinkAndJoinsErrors(t *testing.T) {
	errA := errors.New("a down")
	a := &recordingSink{err: errA}
	b := &recordingSink{}
	tee := Tee{a, nil, b}

	err := tee.Append(context.Background(), domain.AskedEvent(sampleX, askedAt))
	require.ErrorIs(t, err, errA)
	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)

	a.err = nil
	require.NoError(t, tee.Append(context.Background(), domain.AskedEvent(sampleX, askedAt)))
}
