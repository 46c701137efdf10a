package content

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// EmptyQuestion is served when no eligible question exists.
const EmptyQuestion = "No questions found. Add lines to questions.txt"

// Option configures a Selector or Confirmations.
type Option func(*config)

type config struct {
	rng       *rand.Rand
	direction domain.Direction
}

func defaultConfig() config {
	return config{
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		direction: domain.DirectionEN,
	}
}

// WithRand replaces the random source; tests pass a seeded one.
func WithRand(r *rand.Rand) Option {
	return func(c *config) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithDefaultDirection sets the direction of lines without a DIR| prefix.
func WithDefaultDirection(d domain.Direction) Option {
	return func(c *config) {
		if _, ok := domain.ParseDirection(string(d)); ok {
			c.direction = d
		}
	}
}

// Question is one parsed question line.
type Question struct {
	Direction domain.Direction
	Sentence  string
}

// Selector picks a random question from a Source.
//
// A line is either "DIR|sentence" (split at the first '|') or a bare
// sentence that takes the default direction. Lines with an unknown
// direction tag or an empty sentence are skipped.
type Selector struct {
	src Source
	cfg config
	mu  sync.Mutex // guards cfg.rng
}

// NewSelector builds a Selector over src.
func NewSelector(src Source, opts ...Option) *Selector {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Selector{src: src, cfg: cfg}
}

// Questions returns every eligible question currently in the source.
func (s *Selector) Questions() []Question {
	lines := eligible(s.src)
	out := make([]Question, 0, len(lines))
	for _, l := range lines {
		if q, ok := s.parse(l); ok {
			out = append(out, q)
		}
	}
	return out
}

// Select returns a uniformly random eligible question, or the EmptyQuestion
// sentinel with direction EN when none exists.
func (s *Selector) Select() (domain.Direction, string) {
	qs := s.Questions()
	if len(qs) == 0 {
		return domain.DirectionEN, EmptyQuestion
	}
	s.mu.Lock()
	i := s.cfg.rng.IntN(len(qs))
	s.mu.Unlock()
	return qs[i].Direction, qs[i].Sentence
}

func (s *Selector) parse(line string) (Question, bool) {
	tag, sentence, found := strings.Cut(line, "|")
	if !found {
		return Question{Direction: s.cfg.direction, Sentence: line}, true
	}
	d, ok := domain.ParseDirection(tag)
	sentence = strings.TrimSpace(sentence)
	if !ok || sentence == "" {
		return Question{}, false
	}
	return Question{Direction: d, Sentence: sentence}, true
}
