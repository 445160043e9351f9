package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func makeTransition(action int) Transition {
	return Transition{
		State:     []float64{float64(action), 0, 0, 0, 0},
		Action:    action,
		Reward:    float64(action) * 0.5,
		NextState: []float64{float64(action + 1), 0, 0, 0, 0},
		Done:      action%10 == 9,
	}
}

func TestNewBuffer_InvalidCapacity(t *testing.T) {
	_, err := NewBuffer(0, nil)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestBuffer_AddAndEvict(t *testing.T) {
	buffer, err := NewBuffer(4, rand.NewSource(1))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		buffer.Add(makeTransition(i))
	}
	assert.Equal(t, 4, buffer.Len())

	buffer.Add(makeTransition(4))
	assert.Equal(t, 4, buffer.Len())

	all, err := buffer.Sample(4)
	require.NoError(t, err)
	actions := make([]int, 0, len(all))
	for _, tr := range all {
		actions = append(actions, tr.Action)
	}
	assert.NotContains(t, actions, 0)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, actions)
}

func TestBuffer_SampleInsufficientData(t *testing.T) {
	buffer, err := NewBuffer(10, rand.NewSource(1))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		buffer.Add(makeTransition(i))
	}

	_, err = buffer.Sample(5)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = buffer.Sample(0)
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestBuffer_SampleWithoutReplacement(t *testing.T) {
	buffer, err := NewBuffer(50, rand.NewSource(7))
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		buffer.Add(makeTransition(i))
	}

	for trial := 0; trial < 200; trial++ {
		sampled, indices, err := buffer.SampleIndices(20)
		require.NoError(t, err)
		require.Len(t, sampled, 20)

		seen := make(map[int]bool, len(indices))
		for i, idx := range indices {
			assert.False(t, seen[idx], "index %d drawn twice", idx)
			seen[idx] = true
			assert.Equal(t, idx, sampled[i].Action)
		}
	}
}

func TestBuffer_SampleIsDeterministicForSeed(t *testing.T) {
	first, err := NewBuffer(30, rand.NewSource(99))
	require.NoError(t, err)
	second, err := NewBuffer(30, rand.NewSource(99))
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		first.Add(makeTransition(i))
		second.Add(makeTransition(i))
	}

	_, a, err := first.SampleIndices(10)
	require.NoError(t, err)
	_, b, err := second.SampleIndices(10)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
