package replay

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/karishmathakrar/GreenGridPR/internal/ring"
)

// PrioritizedBuffer samples transitions in proportion to priority ** alpha and
// returns importance-sampling weights that correct for the bias.
//
// Transitions and their scaled priorities live in two rings that are pushed in
// lockstep, so position i in one always corresponds to position i in the
// other. Positions shift when an Add evicts the oldest entry: priority updates
// for a sampled batch must be applied before the next Add, otherwise they land
// on whichever transition now occupies the position.
type PrioritizedBuffer struct {
	mu          sync.Mutex
	alpha       float64
	transitions *ring.Ring[Transition]
	priorities  *ring.Ring[float64] // raw ** alpha
	src         rand.Source
}

// NewPrioritizedBuffer creates an empty buffer. alpha = 0 degenerates to
// uniform sampling with replacement.
func NewPrioritizedBuffer(capacity int, alpha float64, src rand.Source) (*PrioritizedBuffer, error) {
	transitions, err := ring.New[Transition](capacity)
	if err != nil {
		return nil, fmt.Errorf("new prioritized buffer: %w", err)
	}
	priorities, err := ring.New[float64](capacity)
	if err != nil {
		return nil, fmt.Errorf("new prioritized buffer: %w", err)
	}
	return &PrioritizedBuffer{
		alpha:       alpha,
		transitions: transitions,
		priorities:  priorities,
		src:         defaultSource(src),
	}, nil
}

// Add appends a transition with the given raw priority. Priorities should be
// positive; a zero priority is stored but the transition is never drawn.
func (b *PrioritizedBuffer) Add(t Transition, priority float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.transitions.Push(t)
	b.priorities.Push(b.scale(priority))
}

// Sample draws batchSize positions with replacement, each with probability
// p_i = scaled_i / sum(scaled). Weights are (N * p_i) ** -beta normalised so
// the largest weight in the batch is 1. beta is not range checked.
func (b *PrioritizedBuffer) Sample(batchSize int, beta float64) (Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if batchSize <= 0 {
		return Batch{}, fmt.Errorf("sample %d: %w", batchSize, ErrInvalidBatchSize)
	}
	n := b.transitions.Len()
	if batchSize > n {
		return Batch{}, fmt.Errorf("sample %d of %d stored: %w", batchSize, n, ErrInsufficientData)
	}

	scaled := b.priorities.Values()
	for i, p := range scaled {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return Batch{}, fmt.Errorf("priority at %d is %v: %w", i, p, ErrInvalidPriorityState)
		}
	}
	total := floats.Sum(scaled)
	if total == 0 {
		return Batch{}, fmt.Errorf("all %d priorities are zero: %w", n, ErrInvalidPriorityState)
	}
	if math.IsInf(total, 0) {
		return Batch{}, fmt.Errorf("priority sum of %d entries overflows: %w", n, ErrInvalidPriorityState)
	}

	weighted := sampleuv.NewWeighted(scaled, b.src)
	batch := Batch{
		Transitions: make([]Transition, batchSize),
		Indices:     make([]int, batchSize),
		Weights:     make([]float64, batchSize),
	}
	for i := 0; i < batchSize; i++ {
		idx, ok := weighted.Take()
		if !ok {
			return Batch{}, fmt.Errorf("draw %d: %w", i, ErrInvalidPriorityState)
		}
		// Put the weight back so every draw sees the full distribution.
		weighted.Reweight(idx, scaled[idx])

		p := scaled[idx] / total
		batch.Indices[i] = idx
		batch.Transitions[i], _ = b.transitions.At(idx)
		batch.Weights[i] = math.Pow(float64(n)*p, -beta)
	}

	maxWeight := floats.Max(batch.Weights)
	for i := range batch.Weights {
		batch.Weights[i] /= maxWeight
	}
	return batch, nil
}

// UpdatePriorities overwrites the scaled priority at each index with
// priority ** alpha. All indices are validated before anything is written.
// Duplicate indices are applied in order, so the last one wins.
func (b *PrioritizedBuffer) UpdatePriorities(indices []int, priorities []float64) error {
	if len(indices) != len(priorities) {
		return fmt.Errorf("%d indices vs %d priorities: %w", len(indices), len(priorities), ErrArityMismatch)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.priorities.Len()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return fmt.Errorf("index %d with %d stored: %w", idx, n, ErrIndexOutOfRange)
		}
	}
	for i, idx := range indices {
		b.priorities.Set(idx, b.scale(priorities[i]))
	}
	return nil
}

// ScaledPriority returns the stored priority ** alpha at position i.
func (b *PrioritizedBuffer) ScaledPriority(i int) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.priorities.At(i)
	if !ok {
		return 0, fmt.Errorf("index %d with %d stored: %w", i, b.priorities.Len(), ErrIndexOutOfRange)
	}
	return p, nil
}

// MaxPriority returns the largest stored priority in raw (unscaled) terms, or
// DefaultPriority when the buffer is empty or alpha is zero.
func (b *PrioritizedBuffer) MaxPriority() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.priorities.Len() == 0 || b.alpha == 0 {
		return DefaultPriority
	}
	maxScaled := 0.0
	for i := 0; i < b.priorities.Len(); i++ {
		p, _ := b.priorities.At(i)
		if p > maxScaled {
			maxScaled = p
		}
	}
	if maxScaled <= 0 {
		return DefaultPriority
	}
	return math.Pow(maxScaled, 1/b.alpha)
}

// Stats returns a snapshot of occupancy and the scaled priority range.
func (b *PrioritizedBuffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := Stats{
		Len:      b.transitions.Len(),
		Capacity: b.transitions.Cap(),
		Full:     b.transitions.Full(),
		Alpha:    b.alpha,
	}
	if stats.Len == 0 {
		return stats
	}
	scaled := b.priorities.Values()
	stats.TotalPriority = floats.Sum(scaled)
	stats.MinPriority = floats.Min(scaled)
	stats.MaxPriority = floats.Max(scaled)
	return stats
}

// Clear drops every transition and priority. Capacity and alpha are kept.
func (b *PrioritizedBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.transitions.Reset()
	b.priorities.Reset()
}

// Len returns the number of stored transitions.
func (b *PrioritizedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transitions.Len()
}

// Cap returns the buffer capacity.
func (b *PrioritizedBuffer) Cap() int {
	return b.transitions.Cap()
}

// Alpha returns the priority exponent.
func (b *PrioritizedBuffer) Alpha() float64 {
	return b.alpha
}

func (b *PrioritizedBuffer) scale(priority float64) float64 {
	return math.Pow(priority, b.alpha)
}
