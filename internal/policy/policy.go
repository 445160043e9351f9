// Package policy provides action selection strategies for the agent
package policy

// Policy interface for action selection
type Policy interface {
	// SelectAction chooses a discrete action index for the given state
	SelectAction(state []float64) (int, error)
}
