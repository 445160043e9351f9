package training

import (
	"gonum.org/v1/gonum/stat"

	"github.com/karishmathakrar/GreenGridPR/internal/ring"
)

// DefaultWindow is the number of recent episodes averaged for progress reports.
const DefaultWindow = 100

// Scores holds the total reward of each episode in order.
type Scores []float64

// Mean returns the average score, or 0 for no episodes.
func (s Scores) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	return stat.Mean(s, nil)
}

// RollingMean returns, for every episode, the mean of the last window scores
// up to and including it.
func (s Scores) RollingMean(window int) []float64 {
	if window <= 0 {
		window = DefaultWindow
	}
	recent, _ := ring.New[float64](window)
	out := make([]float64, len(s))
	for i, score := range s {
		recent.Push(score)
		out[i] = stat.Mean(recent.Values(), nil)
	}
	return out
}
