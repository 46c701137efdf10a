package content

import "sync"

// FallbackConfirmation is used when the confirmation source has no lines.
const FallbackConfirmation = "Thanks!"

// Confirmations picks a generic reply sent after an answer is received.
type Confirmations struct {
	src Source
	cfg config
	mu  sync.Mutex
}

// NewConfirmations builds a picker over src. Direction options are ignored.
func NewConfirmations(src Source, opts ...Option) *Confirmations {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Confirmations{src: src, cfg: cfg}
}

// Pick returns a uniformly random eligible line or FallbackConfirmation.
func (c *Confirmations) Pick() string {
	lines := eligible(c.src)
	if len(lines) == 0 {
		return FallbackConfirmation
	}
	c.mu.Lock()
	i := c.cfg.rng.IntN(len(lines))
	c.mu.Unlock()
	return lines[i]
}
