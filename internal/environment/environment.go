// Package environment defines the interaction contract between agents and
// simulated worlds.
package environment

import "errors"

var (
	// ErrInvalidAction indicates an action outside the action space.
	ErrInvalidAction = errors.New("invalid action")
	// ErrNotReset indicates Step was called before Reset or after the episode ended.
	ErrNotReset = errors.New("environment must be reset")
)

// StepResult is the outcome of applying one action.
type StepResult struct {
	State  []float64
	Reward float64
	Done   bool
	Info   map[string]float64
}

// Environment is an episodic world with a discrete action space.
type Environment interface {
	// Reset starts a new episode and returns its initial state.
	Reset() ([]float64, error)
	// Step applies action to the current episode.
	Step(action int) (StepResult, error)
	// ActionCount returns the number of discrete actions.
	ActionCount() int
	// ObservationSize returns the length of every state vector.
	ObservationSize() int
	// Close releases any resources held by the environment.
	Close() error
}
