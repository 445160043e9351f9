package policy

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
)

// RandomPolicy selects actions uniformly from a discrete action space
type RandomPolicy struct {
	rng     *rand.Rand
	actions int
}

var _ Policy = (*RandomPolicy)(nil)

// NewRandom creates a new random policy over actions discrete actions.
// A nil source is replaced with a time-seeded one.
func NewRandom(actions int, src rand.Source) (*RandomPolicy, error) {
	if actions <= 0 {
		return nil, fmt.Errorf("action space must have at least one action, got %d", actions)
	}
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return &RandomPolicy{
		rng:     rand.New(src),
		actions: actions,
	}, nil
}

// SelectAction implements Policy interface
func (p *RandomPolicy) SelectAction(state []float64) (int, error) {
	return p.rng.Intn(p.actions), nil
}
