package scoring

import (
	"fmt"
	"sync"

	"lead-insights-go/internal/types"
)

// Settings holds the process-wide scoring configuration. Requests snapshot
// it once at the start and score with that value; an update lands on the
// next request, never on a partially scored one.
type Settings struct {
	mu  sync.RWMutex
	cfg types.ScoringConfig
}

func NewSettings(cfg types.ScoringConfig) *Settings {
	return &Settings{cfg: cfg}
}

func (s *Settings) Snapshot() types.ScoringConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update validates and replaces the configuration.
func (s *Settings) Update(cfg types.ScoringConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Validate checks the documented bounds: weights in 0..10, decay in
// [0.1,0.9].
func Validate(cfg types.ScoringConfig) error {
	for name, w := range map[string]int{
		"sentiment": cfg.Weights.Sentiment,
		"presence":  cfg.Weights.Presence,
		"relevance": cfg.Weights.Relevance,
	} {
		if w < 0 || w > 10 {
			return fmt.Errorf("weight %q out of range: %d (want 0..10)", name, w)
		}
	}
	if cfg.TimeDecay < 0.1 || cfg.TimeDecay > 0.9 {
		return fmt.Errorf("time decay out of range: %g (want 0.1..0.9)", cfg.TimeDecay)
	}
	return nil
}
