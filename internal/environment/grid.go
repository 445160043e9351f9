package environment

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
)

// GridObservationSize is the length of a Grid state vector.
const GridObservationSize = 5

// Cell holds the siting features of one grid location, each in [0, 1].
type Cell struct {
	SolarOutput float64 `json:"solar_output"`
	WindDensity float64 `json:"wind_density"`
	Elevation   float64 `json:"elevation"`
}

// Features returns the cell as a feature vector.
func (c Cell) Features() []float64 {
	return []float64{c.SolarOutput, c.WindDensity, c.Elevation}
}

// GridConfig configures a Grid.
type GridConfig struct {
	Cells   int
	Horizon int
	Seed    uint64
}

// DefaultGridConfig returns a small grid suitable for smoke runs.
func DefaultGridConfig() GridConfig {
	return GridConfig{Cells: 16, Horizon: 50}
}

// Grid is a placeholder siting world: every step the agent picks a cell and
// is rewarded by a fixed linear score of that cell's features. Episodes end
// after Horizon steps. The state is the chosen cell's features followed by
// the episode progress and the average score collected so far.
type Grid struct {
	cells    []Cell
	horizon  int
	step     int
	current  int
	total    float64
	started  bool
	finished bool
}

var _ Environment = (*Grid)(nil)

// NewGrid generates cfg.Cells random cells. A zero seed uses the clock.
func NewGrid(cfg GridConfig) (*Grid, error) {
	if cfg.Cells <= 0 {
		return nil, fmt.Errorf("grid needs at least one cell, got %d", cfg.Cells)
	}
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("grid horizon must be positive, got %d", cfg.Horizon)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))

	cells := make([]Cell, cfg.Cells)
	for i := range cells {
		cells[i] = Cell{
			SolarOutput: rng.Float64(),
			WindDensity: rng.Float64(),
			Elevation:   rng.Float64(),
		}
	}
	return NewGridFromCells(cells, cfg.Horizon)
}

// NewGridFromCells builds a grid over known cells.
func NewGridFromCells(cells []Cell, horizon int) (*Grid, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("grid needs at least one cell")
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("grid horizon must be positive, got %d", horizon)
	}
	return &Grid{
		cells:   append([]Cell(nil), cells...),
		horizon: horizon,
	}, nil
}

// Score is the reward for building at c.
func (c Cell) Score() float64 {
	return 0.6*c.SolarOutput + 0.4*c.WindDensity - 0.1*c.Elevation
}

// Reset implements Environment.
func (g *Grid) Reset() ([]float64, error) {
	g.step = 0
	g.current = 0
	g.total = 0
	g.started = true
	g.finished = false
	return g.state(), nil
}

// Step implements Environment.
func (g *Grid) Step(action int) (StepResult, error) {
	if !g.started || g.finished {
		return StepResult{}, ErrNotReset
	}
	if action < 0 || action >= len(g.cells) {
		return StepResult{}, fmt.Errorf("action %d of %d cells: %w", action, len(g.cells), ErrInvalidAction)
	}

	g.current = action
	reward := g.cells[action].Score()
	g.total += reward
	g.step++
	g.finished = g.step >= g.horizon

	return StepResult{
		State:  g.state(),
		Reward: reward,
		Done:   g.finished,
		Info:   map[string]float64{"cell": float64(action), "total": g.total},
	}, nil
}

// ActionCount implements Environment.
func (g *Grid) ActionCount() int { return len(g.cells) }

// ObservationSize implements Environment.
func (g *Grid) ObservationSize() int { return GridObservationSize }

// Close implements Environment.
func (g *Grid) Close() error { return nil }

// Cells returns a copy of the grid cells.
func (g *Grid) Cells() []Cell { return append([]Cell(nil), g.cells...) }

func (g *Grid) state() []float64 {
	state := append(g.cells[g.current].Features(), float64(g.step)/float64(g.horizon), 0)
	if g.step > 0 {
		state[4] = g.total / float64(g.step)
	}
	return state
}
