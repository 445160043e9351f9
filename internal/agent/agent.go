// Package agent couples an action-selection policy, an action-value estimator
// and a prioritized replay buffer into a learning agent.
package agent

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/karishmathakrar/GreenGridPR/internal/estimator"
	"github.com/karishmathakrar/GreenGridPR/internal/metrics"
	"github.com/karishmathakrar/GreenGridPR/internal/policy"
	"github.com/karishmathakrar/GreenGridPR/internal/replay"
)

// Config holds the learning schedule
type Config struct {
	BatchSize  int
	LearnEvery int
	BetaStart  float64
	BetaFrames int
}

// DefaultConfig returns the schedule used by the CLI.
func DefaultConfig() Config {
	return Config{
		BatchSize:  64,
		LearnEvery: 4,
		BetaStart:  replay.DefaultBeta,
		BetaFrames: 100000,
	}
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.LearnEvery <= 0 {
		return fmt.Errorf("learn_every must be positive")
	}
	if c.BetaFrames <= 0 {
		return fmt.Errorf("beta_frames must be positive")
	}
	return nil
}

// Agent drives learning from its own experience. It is not safe for
// concurrent use: Step relies on no Add happening between a sample and the
// matching priority update.
type Agent struct {
	cfg       Config
	policy    *policy.EpsilonGreedy
	estimator estimator.Estimator
	memory    *replay.PrioritizedBuffer
	collector *metrics.Collector
	logger    zerolog.Logger

	steps      int
	learnSteps int
}

// New creates a new agent
func New(cfg Config, p *policy.EpsilonGreedy, est estimator.Estimator, memory *replay.PrioritizedBuffer, logger zerolog.Logger) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p == nil || est == nil || memory == nil {
		return nil, errors.New("policy, estimator and memory are required")
	}
	return &Agent{
		cfg:       cfg,
		policy:    p,
		estimator: est,
		memory:    memory,
		collector: metrics.NewCollector(logger),
		logger:    logger,
	}, nil
}

// SelectAction picks an action with the agent's epsilon-greedy policy, or
// greedily when explore is false.
func (a *Agent) SelectAction(state []float64, explore bool) (int, error) {
	if explore {
		return a.policy.SelectAction(state)
	}
	values, err := a.estimator.Predict(state)
	if err != nil {
		return 0, fmt.Errorf("predict action values: %w", err)
	}
	return estimator.Greedy(values), nil
}

// Step records a transition and learns every LearnEvery steps once the
// buffer holds a full batch. New transitions get the current maximum priority
// so they are likely to be replayed at least once.
func (a *Agent) Step(t replay.Transition) error {
	a.memory.Add(t, a.memory.MaxPriority())
	a.steps++

	if a.steps%a.cfg.LearnEvery != 0 || a.memory.Len() < a.cfg.BatchSize {
		return nil
	}
	return a.learn()
}

func (a *Agent) learn() error {
	start := time.Now()
	beta := a.Beta()

	batch, err := a.memory.Sample(a.cfg.BatchSize, beta)
	if err != nil {
		return fmt.Errorf("sample replay batch: %w", err)
	}
	priorities, err := a.estimator.Update(batch.Transitions, batch.Weights)
	if err != nil {
		return fmt.Errorf("update estimator: %w", err)
	}
	if err := a.memory.UpdatePriorities(batch.Indices, priorities); err != nil {
		return fmt.Errorf("update priorities: %w", err)
	}

	a.learnSteps++
	a.collector.LearnStep(a.learnSteps, batch.Len(), beta, stat.Mean(priorities, nil), time.Since(start))
	return nil
}

// Beta is the importance-sampling exponent for the next learning step,
// annealed linearly from BetaStart to 1 over BetaFrames learning steps.
func (a *Agent) Beta() float64 {
	progress := float64(a.learnSteps) / float64(a.cfg.BetaFrames)
	return math.Min(1, a.cfg.BetaStart+progress*(1-a.cfg.BetaStart))
}

// EndEpisode decays exploration.
func (a *Agent) EndEpisode() {
	a.policy.UpdateEpsilon()
}

// Epsilon returns the current exploration rate.
func (a *Agent) Epsilon() float64 { return a.policy.Epsilon() }

// Steps returns the number of transitions recorded.
func (a *Agent) Steps() int { return a.steps }

// LearnSteps returns the number of completed learning steps.
func (a *Agent) LearnSteps() int { return a.learnSteps }

// Memory exposes the replay buffer, e.g. for stats endpoints.
func (a *Agent) Memory() *replay.PrioritizedBuffer { return a.memory }
