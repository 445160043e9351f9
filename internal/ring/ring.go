// Package ring provides a fixed-capacity FIFO store backed by a circular arena.
package ring

import "errors"

// ErrInvalidCapacity is returned when a ring is created with a non-positive capacity.
var ErrInvalidCapacity = errors.New("capacity must be positive")

// Ring holds at most Cap() elements. Pushing into a full ring silently evicts
// the oldest element and reuses its slot. Logical index i always addresses the
// i-th oldest surviving element, so indices shift as evictions occur.
type Ring[T any] struct {
	buf   []T
	start int
	size  int
}

// New creates an empty ring with the given capacity.
func New[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Ring[T]{buf: make([]T, capacity)}, nil
}

// Push appends v. When the ring is full the oldest element is evicted and
// returned with ok set to true.
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	if r.size < len(r.buf) {
		r.buf[r.slot(r.size)] = v
		r.size++
		return evicted, false
	}
	evicted = r.buf[r.start]
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
	return evicted, true
}

// At returns the i-th oldest element.
func (r *Ring[T]) At(i int) (T, bool) {
	if i < 0 || i >= r.size {
		var zero T
		return zero, false
	}
	return r.buf[r.slot(i)], true
}

// Set overwrites the i-th oldest element in place.
func (r *Ring[T]) Set(i int, v T) bool {
	if i < 0 || i >= r.size {
		return false
	}
	r.buf[r.slot(i)] = v
	return true
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Full reports whether the next Push evicts.
func (r *Ring[T]) Full() bool { return r.size == len(r.buf) }

// Values copies the contents, oldest first.
func (r *Ring[T]) Values() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.buf[r.slot(i)]
	}
	return out
}

// Reset drops every element but keeps the arena.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.start = 0
	r.size = 0
}

func (r *Ring[T]) slot(i int) int {
	return (r.start + i) % len(r.buf)
}
