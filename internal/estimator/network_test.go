package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karishmathakrar/GreenGridPR/internal/replay"
)

func smallConfig() NetworkConfig {
	cfg := DefaultNetworkConfig(3, 2)
	cfg.Hidden = []int{8}
	cfg.LearningRate = 0.02
	cfg.Seed = 7
	return cfg
}

func TestNewNetwork_Validation(t *testing.T) {
	cfg := smallConfig()
	cfg.InputSize = 0
	_, err := NewNetwork(cfg)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	cfg = smallConfig()
	cfg.Hidden = []int{4, 0}
	_, err = NewNetwork(cfg)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	cfg = smallConfig()
	cfg.LearningRate = 0
	_, err = NewNetwork(cfg)
	assert.Error(t, err)
}

func TestNetwork_PredictShapeAndDeterminism(t *testing.T) {
	a, err := NewNetwork(smallConfig())
	require.NoError(t, err)
	b, err := NewNetwork(smallConfig())
	require.NoError(t, err)

	state := []float64{0.2, -0.4, 1.0}
	va, err := a.Predict(state)
	require.NoError(t, err)
	vb, err := b.Predict(state)
	require.NoError(t, err)

	assert.Len(t, va, 2)
	assert.Equal(t, va, vb)
	assert.Equal(t, 2, a.Actions())

	_, err = a.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNetwork_UpdateLearnsTerminalReward(t *testing.T) {
	network, err := NewNetwork(smallConfig())
	require.NoError(t, err)

	transition := replay.Transition{
		State:     []float64{1, 0.5, -0.5},
		Action:    1,
		Reward:    1,
		NextState: []float64{0, 0, 0},
		Done:      true,
	}
	batch := []replay.Transition{transition}

	first, err := network.Update(batch, []float64{1})
	require.NoError(t, err)
	require.Len(t, first, 1)

	var last []float64
	for i := 0; i < 300; i++ {
		last, err = network.Update(batch, []float64{1})
		require.NoError(t, err)
	}
	assert.Less(t, last[0], first[0])

	values, err := network.Predict(transition.State)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, values[1], 0.05)
}

func TestNetwork_UpdatePrioritiesArePositive(t *testing.T) {
	network, err := NewNetwork(smallConfig())
	require.NoError(t, err)

	batch := []replay.Transition{
		{State: []float64{0, 0, 0}, Action: 0, Reward: 0, NextState: []float64{0, 0, 0}, Done: true},
		{State: []float64{1, 1, 1}, Action: 1, Reward: 2, NextState: []float64{1, 0, 1}},
	}
	priorities, err := network.Update(batch, []float64{1, 0.5})
	require.NoError(t, err)
	require.Len(t, priorities, 2)
	for _, p := range priorities {
		assert.GreaterOrEqual(t, p, DefaultPriorityEpsilon)
	}
}

func TestNetwork_UpdateErrors(t *testing.T) {
	network, err := NewNetwork(smallConfig())
	require.NoError(t, err)

	batch := []replay.Transition{{State: []float64{0, 0, 0}, Action: 0, NextState: []float64{0, 0, 0}}}
	_, err = network.Update(batch, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	batch[0].Action = 5
	_, err = network.Update(batch, []float64{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestGreedy(t *testing.T) {
	assert.Equal(t, 2, Greedy([]float64{0.1, -3, 4, 4}))
	assert.Equal(t, 0, Greedy(nil))
}
