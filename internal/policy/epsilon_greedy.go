package policy

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/karishmathakrar/GreenGridPR/internal/estimator"
)

// EpsilonGreedy explores with probability epsilon and otherwise picks the
// action with the highest estimated value.
type EpsilonGreedy struct {
	mu         sync.Mutex
	epsilon    float64
	minEpsilon float64
	decay      float64
	estimator  estimator.Estimator
	explorer   *RandomPolicy
	rng        *rand.Rand
}

var _ Policy = (*EpsilonGreedy)(nil)

// NewEpsilonGreedy wraps est. decay is applied multiplicatively by
// UpdateEpsilon and the result never drops below minEpsilon.
func NewEpsilonGreedy(epsilon, minEpsilon, decay float64, est estimator.Estimator, src rand.Source) (*EpsilonGreedy, error) {
	if est == nil {
		return nil, fmt.Errorf("estimator is required")
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("epsilon must be in [0, 1], got %v", epsilon)
	}
	if minEpsilon < 0 || minEpsilon > epsilon {
		return nil, fmt.Errorf("min epsilon must be in [0, %v], got %v", epsilon, minEpsilon)
	}
	if decay <= 0 || decay > 1 {
		return nil, fmt.Errorf("decay must be in (0, 1], got %v", decay)
	}
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	explorer, err := NewRandom(est.Actions(), src)
	if err != nil {
		return nil, fmt.Errorf("exploration policy: %w", err)
	}
	return &EpsilonGreedy{
		epsilon:    epsilon,
		minEpsilon: minEpsilon,
		decay:      decay,
		estimator:  est,
		explorer:   explorer,
		rng:        rand.New(src),
	}, nil
}

// SelectAction implements Policy interface
func (p *EpsilonGreedy) SelectAction(state []float64) (int, error) {
	p.mu.Lock()
	if p.rng.Float64() < p.epsilon {
		defer p.mu.Unlock()
		return p.explorer.SelectAction(state)
	}
	p.mu.Unlock()

	values, err := p.estimator.Predict(state)
	if err != nil {
		return 0, fmt.Errorf("predict action values: %w", err)
	}
	return estimator.Greedy(values), nil
}

// UpdateEpsilon decays epsilon once, floored at the minimum.
func (p *EpsilonGreedy) UpdateEpsilon() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epsilon = math.Max(p.minEpsilon, p.epsilon*p.decay)
}

// SetEpsilon overrides the current exploration rate, e.g. 0 for evaluation.
func (p *EpsilonGreedy) SetEpsilon(epsilon float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epsilon = epsilon
}

// Epsilon returns the current exploration rate.
func (p *EpsilonGreedy) Epsilon() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epsilon
}
