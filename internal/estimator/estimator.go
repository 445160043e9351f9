// Package estimator provides action-value estimators consumed by policies and
// the learning agent.
package estimator

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"github.com/karishmathakrar/GreenGridPR/internal/replay"
)

// ErrShapeMismatch indicates an input whose size does not match the estimator.
var ErrShapeMismatch = errors.New("shape mismatch")

// Estimator maps a state to one value per discrete action and learns from
// weighted replay batches.
type Estimator interface {
	// Predict returns the estimated value of every action in state.
	Predict(state []float64) ([]float64, error)
	// Update performs one learning step on batch, scaling each sample's loss by
	// the matching importance weight, and returns a new priority per sample.
	Update(batch []replay.Transition, weights []float64) ([]float64, error)
	// Actions returns the size of the action space.
	Actions() int
}

// Greedy returns the action with the largest value; ties go to the lowest index.
func Greedy(values []float64) int {
	if len(values) == 0 {
		return 0
	}
	return floats.MaxIdx(values)
}
