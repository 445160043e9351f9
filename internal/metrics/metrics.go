package metrics

import (
	"time"

	"github.com/rs/zerolog"
)

// Collector emits metric-style log lines for training and replay operations
type Collector struct {
	logger zerolog.Logger
}

func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{
		logger: logger,
	}
}

// Track finished episodes
func (c *Collector) EpisodeCompleted(runID string, episode int, score, rollingMean, epsilon float64, steps int) {
	c.logger.Info().
		Str("metric", "episode_completed").
		Str("run_id", runID).
		Int("episode", episode).
		Float64("score", score).
		Float64("rolling_mean", rollingMean).
		Float64("epsilon", epsilon).
		Int("steps", steps).
		Msg("Episode metric")
}

// Track learning steps
func (c *Collector) LearnStep(step int, batchSize int, beta, meanPriority float64, duration time.Duration) {
	c.logger.Debug().
		Str("metric", "learn_step").
		Int("step", step).
		Int("batch_size", batchSize).
		Float64("beta", beta).
		Float64("mean_priority", meanPriority).
		Dur("duration", duration).
		Msg("Learn step metric")
}

// Track replay RPCs
func (c *Collector) ReplayRequest(method string, ok bool, duration time.Duration) {
	c.logger.Info().
		Str("metric", "replay_request").
		Str("method", method).
		Bool("ok", ok).
		Dur("duration", duration).
		Msg("Replay request metric")
}

// Track HTTP API requests
func (c *Collector) APIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	c.logger.Info().
		Str("metric", "api_request").
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Msg("API request metric")
}
