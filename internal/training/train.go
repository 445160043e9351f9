// Package training runs agents through episodes of an environment and tracks
// their scores.
package training

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/karishmathakrar/GreenGridPR/internal/agent"
	"github.com/karishmathakrar/GreenGridPR/internal/environment"
	"github.com/karishmathakrar/GreenGridPR/internal/events"
	"github.com/karishmathakrar/GreenGridPR/internal/metrics"
	"github.com/karishmathakrar/GreenGridPR/internal/replay"
	"github.com/karishmathakrar/GreenGridPR/internal/results"
	"github.com/karishmathakrar/GreenGridPR/internal/ring"
)

const (
	modeTrain    = "train"
	modeEvaluate = "evaluate"
)

// Options controls a training or evaluation run
type Options struct {
	RunID        string
	Environment  string
	Episodes     int
	MaxTimesteps int
	Window       int
	LogEvery     int
}

// DefaultOptions returns the run settings used by the CLI.
func DefaultOptions() Options {
	return Options{
		Environment:  "grid",
		Episodes:     1000,
		MaxTimesteps: 1000,
		Window:       DefaultWindow,
		LogEvery:     100,
	}
}

// Validate checks if the options are valid
func (o Options) Validate() error {
	if o.Episodes <= 0 {
		return fmt.Errorf("episodes must be positive")
	}
	if o.MaxTimesteps <= 0 {
		return fmt.Errorf("max_timesteps must be positive")
	}
	return nil
}

// Runner executes episodes for one agent in one environment
type Runner struct {
	agent     *agent.Agent
	env       environment.Environment
	store     results.Store
	publisher events.Publisher
	collector *metrics.Collector
	logger    zerolog.Logger
}

// NewRunner creates a runner. store and publisher may be nil.
func NewRunner(a *agent.Agent, env environment.Environment, store results.Store, publisher events.Publisher, logger zerolog.Logger) *Runner {
	if store == nil {
		store = results.NewMemoryStore()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Runner{
		agent:     a,
		env:       env,
		store:     store,
		publisher: publisher,
		collector: metrics.NewCollector(logger),
		logger:    logger,
	}
}

// Train runs opts.Episodes learning episodes, decaying exploration after each
// one, and returns every episode's score.
func (r *Runner) Train(ctx context.Context, opts Options) (Scores, error) {
	return r.run(ctx, modeTrain, opts)
}

// Evaluate runs greedy episodes without learning.
func (r *Runner) Evaluate(ctx context.Context, opts Options) (Scores, error) {
	return r.run(ctx, modeEvaluate, opts)
}

func (r *Runner) run(ctx context.Context, mode string, opts Options) (Scores, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}

	if err := r.store.SaveRun(ctx, results.Run{
		ID:          opts.RunID,
		Mode:        mode,
		Environment: opts.Environment,
		Episodes:    opts.Episodes,
		StartedAt:   time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("save run %s: %w", opts.RunID, err)
	}

	logger := r.logger.With().Str("run_id", opts.RunID).Str("mode", mode).Logger()
	logger.Info().Int("episodes", opts.Episodes).Msg("run starting")

	window, err := ring.New[float64](opts.Window)
	if err != nil {
		return nil, err
	}
	scores := make(Scores, 0, opts.Episodes)

	for episode := 1; episode <= opts.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			logger.Info().Int("episode", episode).Msg("run cancelled")
			return scores, err
		}

		epsilon := r.agent.Epsilon()
		score, steps, err := r.runEpisode(ctx, mode == modeTrain, opts.MaxTimesteps)
		if err != nil {
			return scores, fmt.Errorf("episode %d: %w", episode, err)
		}
		if mode == modeTrain {
			r.agent.EndEpisode()
		} else {
			epsilon = 0
		}

		scores = append(scores, score)
		window.Push(score)
		mean := stat.Mean(window.Values(), nil)

		if err := r.record(ctx, opts.RunID, mode, episode, score, mean, epsilon, steps); err != nil {
			return scores, err
		}
		r.collector.EpisodeCompleted(opts.RunID, episode, score, mean, epsilon, steps)
		if opts.LogEvery > 0 && episode%opts.LogEvery == 0 {
			logger.Info().
				Int("episode", episode).
				Float64("average_score", mean).
				Msg("progress")
		}
	}

	logger.Info().Float64("mean_score", scores.Mean()).Msg("run finished")
	return scores, nil
}

func (r *Runner) runEpisode(ctx context.Context, learn bool, maxTimesteps int) (float64, int, error) {
	state, err := r.env.Reset()
	if err != nil {
		return 0, 0, fmt.Errorf("reset environment: %w", err)
	}

	score := 0.0
	steps := 0
	for steps < maxTimesteps {
		if err := ctx.Err(); err != nil {
			return score, steps, err
		}

		action, err := r.agent.SelectAction(state, learn)
		if err != nil {
			return score, steps, err
		}
		res, err := r.env.Step(action)
		if err != nil {
			return score, steps, fmt.Errorf("step environment: %w", err)
		}
		if learn {
			if err := r.agent.Step(replay.Transition{
				State:     state,
				Action:    action,
				Reward:    res.Reward,
				NextState: res.State,
				Done:      res.Done,
			}); err != nil {
				return score, steps, err
			}
		}

		state = res.State
		score += res.Reward
		steps++
		if res.Done {
			break
		}
	}
	return score, steps, nil
}

func (r *Runner) record(ctx context.Context, runID, mode string, episode int, score, mean, epsilon float64, steps int) error {
	if err := r.store.AppendEpisode(ctx, results.Episode{
		RunID:      runID,
		Episode:    episode,
		Score:      score,
		Steps:      steps,
		Epsilon:    epsilon,
		RecordedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("record episode %d: %w", episode, err)
	}

	if err := r.publisher.PublishEpisode(ctx, events.EpisodeEvent{
		RunID:       runID,
		Mode:        mode,
		Episode:     episode,
		Score:       score,
		RollingMean: mean,
		Epsilon:     epsilon,
		Steps:       steps,
	}); err != nil {
		r.logger.Warn().Err(err).Int("episode", episode).Msg("failed to publish episode event")
	}
	return nil
}
