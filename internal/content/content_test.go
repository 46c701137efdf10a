package content

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

type failingSource struct{}

func (failingSource) Lines() ([]string, error) { return nil, errors.New("boom") }

func seeded() Option { return WithRand(rand.New(rand.NewPCG(1, 2))) }

func TestSelector_ParsesDirectionsCommentsAndBlanks(t *testing.T) {
	src := StaticSource{
		"# comment line",
		"",
		"   ",
		"IT|Buongiorno",
		"en | Good evening ",
		"Bare sentence",
		"FR|Bonjour",
		"IT|   ",
		"  # indented comment",
	}
	qs := NewSelector(src, seeded()).Questions()
	require.Equal(t, []Question{
		{Direction: domain.DirectionIT, Sentence: "Buongiorno"},
		{Direction: domain.DirectionEN, Sentence: "Good evening"},
		{Direction: domain.DirectionEN, Sentence: "Bare sentence"},
	}, qs)
}

func TestSelector_DefaultDirectionOption(t *testing.T) {
	qs := NewSelector(StaticSource{"Ciao"}, WithDefaultDirection(domain.DirectionIT)).Questions()
	require.Equal(t, domain.DirectionIT, qs[0].Direction)

	// unknown default is ignored
	qs = NewSelector(StaticSource{"Ciao"}, WithDefaultDirection("XX")).Questions()
	require.Equal(t, domain.DirectionEN, qs[0].Direction)
}

func TestSelector_SplitsOnFirstPipeOnly(t *testing.T) {
	d, s := NewSelector(StaticSource{"IT|a|b"}, seeded()).Select()
	require.Equal(t, domain.DirectionIT, d)
	require.Equal(t, "a|b", s)
}

func TestSelector_EmptySourceReturnsSentinel(t *testing.T) {
	for name, src := range map[string]Source{
		"empty":    StaticSource{},
		"comments": StaticSource{"# nothing", ""},
		"failing":  failingSource{},
		"missing":  FileSource(filepath.Join(t.TempDir(), "questions.txt")),
		"nil":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			d, s := NewSelector(src).Select()
			require.Equal(t, domain.DirectionEN, d)
			require.Equal(t, EmptyQuestion, s)
		})
	}
}

func TestSelector_SingleQuestionAlwaysChosen(t *testing.T) {
	sel := NewSelector(StaticSource{"IT|Buongiorno"}, seeded())
	for i := 0; i < 10; i++ {
		d, s := sel.Select()
		require.Equal(t, domain.DirectionIT, d)
		require.Equal(t, "Buongiorno", s)
	}
}

func TestSelector_UniformEnoughOverManyDraws(t *testing.T) {
	sel := NewSelector(StaticSource{"IT|uno", "IT|due", "IT|tre"}, seeded())
	counts := map[string]int{}
	for i := 0; i < 3000; i++ {
		_, s := sel.Select()
		counts[s]++
	}
	require.Len(t, counts, 3)
	for s, n := range counts {
		require.InDelta(t, 1000, n, 150, "sentence %q drawn %d times", s, n)
	}
}

func TestSelector_FileSourceReReadsAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	// "È" written decomposed (E + combining grave) behind a BOM
	require.NoError(t, os.WriteFile(path, []byte("\ufeffIT|Che ore sono? E\u0300 tardi\n"), 0o644))

	sel := NewSelector(FileSource(path), seeded())
	_, s := sel.Select()
	require.Equal(t, "Che ore sono? \u00c8 tardi", s)

	require.NoError(t, os.WriteFile(path, []byte("EN|Good night\n"), 0o644))
	d, s := sel.Select()
	require.Equal(t, domain.DirectionEN, d)
	require.Equal(t, "Good night", s)
}

func TestSelector_OverlongLineKeepsEarlierLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	content := "IT|Buongiorno\n" + strings.Repeat("x", 2<<20) + "\nEN|Never reached\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, err := FileSource(path).Lines()
	require.Error(t, err)
	require.Equal(t, []string{"IT|Buongiorno"}, lines)

	d, s := NewSelector(FileSource(path), seeded()).Select()
	require.Equal(t, domain.DirectionIT, d)
	require.Equal(t, "Buongiorno", s)
}

func TestConfirmations_PickAndFallback(t *testing.T) {
	require.Equal(t, FallbackConfirmation, NewConfirmations(StaticSource{"# only comments"}).Pick())
	require.Equal(t, FallbackConfirmation, NewConfirmations(failingSource{}).Pick())

	c := NewConfirmations(StaticSource{"Great job!", "", "Nice one."}, seeded())
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[c.Pick()] = true
	}
	require.Equal(t, map[string]bool{"Great job!": true, "Nice one.": true}, seen)
}
