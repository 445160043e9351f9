package replay

import (
	"time"

	"golang.org/x/exp/rand"
)

const (
	// DefaultAlpha is the priority exponent used when none is configured.
	DefaultAlpha = 0.6
	// DefaultBeta is the importance-sampling exponent used when none is configured.
	DefaultBeta = 0.4
	// DefaultPriority is the raw priority given to transitions added without one.
	DefaultPriority = 1.0
)

// Transition represents a single step of environment interaction
type Transition struct {
	State     []float64 `json:"state"`
	Action    int       `json:"action"`
	Reward    float64   `json:"reward"`
	NextState []float64 `json:"next_state"`
	Done      bool      `json:"done"`
}

// Batch is the result of a prioritized sample. All three slices share the
// draw order; Indices may contain duplicates.
type Batch struct {
	Transitions []Transition
	Indices     []int
	Weights     []float64
}

// Len returns the number of draws in the batch.
func (b Batch) Len() int { return len(b.Indices) }

// Stats summarises a prioritized buffer. Priorities are the stored scaled
// values (raw ** alpha).
type Stats struct {
	Len           int     `json:"len"`
	Capacity      int     `json:"capacity"`
	Full          bool    `json:"full"`
	Alpha         float64 `json:"alpha"`
	TotalPriority float64 `json:"total_priority"`
	MinPriority   float64 `json:"min_priority"`
	MaxPriority   float64 `json:"max_priority"`
}

func defaultSource(src rand.Source) rand.Source {
	if src != nil {
		return src
	}
	return rand.NewSource(uint64(time.Now().UnixNano()))
}
