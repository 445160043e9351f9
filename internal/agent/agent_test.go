package agent

import (
	"io"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/karishmathakrar/GreenGridPR/internal/policy"
	"github.com/karishmathakrar/GreenGridPR/internal/replay"
)

type recordingEstimator struct {
	updates  int
	batches  [][]replay.Transition
	priority float64
}

func (r *recordingEstimator) Predict([]float64) ([]float64, error) {
	return []float64{0, 1, 0}, nil
}

func (r *recordingEstimator) Update(batch []replay.Transition, weights []float64) ([]float64, error) {
	r.updates++
	r.batches = append(r.batches, batch)
	out := make([]float64, len(batch))
	for i := range out {
		out[i] = r.priority
	}
	return out, nil
}

func (r *recordingEstimator) Actions() int { return 3 }

func newTestAgent(t *testing.T, cfg Config, est *recordingEstimator) *Agent {
	t.Helper()
	p, err := policy.NewEpsilonGreedy(1, 0.1, 0.5, est, rand.NewSource(1))
	require.NoError(t, err)
	memory, err := replay.NewPrioritizedBuffer(100, 1.0, rand.NewSource(2))
	require.NoError(t, err)
	a, err := New(cfg, p, est, memory, zerolog.New(io.Discard))
	require.NoError(t, err)
	return a
}

func transition(i int) replay.Transition {
	return replay.Transition{
		State:     []float64{float64(i)},
		Action:    i % 3,
		Reward:    1,
		NextState: []float64{float64(i + 1)},
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.BatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LearnEvery = 0
	assert.Error(t, cfg.Validate())
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(DefaultConfig(), nil, nil, nil, zerolog.New(io.Discard))
	assert.Error(t, err)
}

func TestAgent_LearnsOnSchedule(t *testing.T) {
	est := &recordingEstimator{priority: 2}
	a := newTestAgent(t, Config{BatchSize: 4, LearnEvery: 2, BetaStart: 0.4, BetaFrames: 10}, est)

	for i := 0; i < 3; i++ {
		require.NoError(t, a.Step(transition(i)))
	}
	// Step 2 was a learn tick but the buffer held fewer than a batch.
	assert.Zero(t, est.updates)

	require.NoError(t, a.Step(transition(3)))
	assert.Equal(t, 1, est.updates)
	assert.Len(t, est.batches[0], 4)
	assert.Equal(t, 1, a.LearnSteps())

	require.NoError(t, a.Step(transition(4)))
	assert.Equal(t, 1, est.updates)
	require.NoError(t, a.Step(transition(5)))
	assert.Equal(t, 2, est.updates)
	assert.Equal(t, 6, a.Steps())
}

func TestAgent_WritesBackPriorities(t *testing.T) {
	est := &recordingEstimator{priority: 5}
	a := newTestAgent(t, Config{BatchSize: 2, LearnEvery: 1, BetaStart: 0.4, BetaFrames: 10}, est)

	require.NoError(t, a.Step(transition(0)))
	require.NoError(t, a.Step(transition(1)))
	require.Equal(t, 1, est.updates)

	// alpha is 1, so every sampled slot now stores exactly 5. The new
	// transition added next inherits the max priority.
	stats := a.Memory().Stats()
	assert.Equal(t, 5.0, stats.MaxPriority)

	require.NoError(t, a.Step(transition(2)))
	p, err := a.Memory().ScaledPriority(2)
	require.NoError(t, err)
	assert.Equal(t, 5.0, p)
}

func TestAgent_BetaAnnealing(t *testing.T) {
	est := &recordingEstimator{priority: 1}
	a := newTestAgent(t, Config{BatchSize: 1, LearnEvery: 1, BetaStart: 0.4, BetaFrames: 4}, est)

	assert.InDelta(t, 0.4, a.Beta(), 1e-12)
	require.NoError(t, a.Step(transition(0)))
	require.NoError(t, a.Step(transition(1)))
	assert.InDelta(t, 0.7, a.Beta(), 1e-12)

	for i := 2; i < 10; i++ {
		require.NoError(t, a.Step(transition(i)))
	}
	assert.Equal(t, 1.0, a.Beta())
}

func TestAgent_SelectActionAndEpsilon(t *testing.T) {
	est := &recordingEstimator{priority: 1}
	a := newTestAgent(t, DefaultConfig(), est)

	action, err := a.SelectAction([]float64{0}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, action)

	action, err = a.SelectAction([]float64{0}, true)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, action, 0)
	assert.Less(t, action, 3)

	a.EndEpisode()
	assert.InDelta(t, 0.5, a.Epsilon(), 1e-12)
	a.EndEpisode()
	a.EndEpisode()
	a.EndEpisode()
	assert.InDelta(t, 0.1, a.Epsilon(), 1e-12)
	assert.False(t, math.IsNaN(a.Beta()))
}
