// Package replay implements fixed-capacity experience replay buffers with
// uniform and priority-proportional sampling.
package replay

import (
	"fmt"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/karishmathakrar/GreenGridPR/internal/ring"
)

// Buffer is a replay buffer sampled uniformly without replacement.
type Buffer struct {
	mu          sync.Mutex
	transitions *ring.Ring[Transition]
	src         rand.Source
}

// NewBuffer creates an empty buffer. A nil source is replaced with a
// time-seeded one.
func NewBuffer(capacity int, src rand.Source) (*Buffer, error) {
	transitions, err := ring.New[Transition](capacity)
	if err != nil {
		return nil, fmt.Errorf("new replay buffer: %w", err)
	}
	return &Buffer{
		transitions: transitions,
		src:         defaultSource(src),
	}, nil
}

// Add appends a transition, evicting the oldest one when the buffer is full.
func (b *Buffer) Add(t Transition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.transitions.Push(t)
}

// Sample draws batchSize distinct transitions. The order of the result is
// unspecified.
func (b *Buffer) Sample(batchSize int) ([]Transition, error) {
	transitions, _, err := b.SampleIndices(batchSize)
	return transitions, err
}

// SampleIndices is Sample that also returns the drawn positions.
func (b *Buffer) SampleIndices(batchSize int) ([]Transition, []int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if batchSize <= 0 {
		return nil, nil, fmt.Errorf("sample %d: %w", batchSize, ErrInvalidBatchSize)
	}
	n := b.transitions.Len()
	if batchSize > n {
		return nil, nil, fmt.Errorf("sample %d of %d stored: %w", batchSize, n, ErrInsufficientData)
	}

	indices := make([]int, batchSize)
	sampleuv.WithoutReplacement(indices, n, b.src)

	sampled := make([]Transition, batchSize)
	for i, idx := range indices {
		sampled[i], _ = b.transitions.At(idx)
	}
	return sampled, indices, nil
}

// Len returns the number of stored transitions.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transitions.Len()
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.transitions.Cap()
}
