package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karishmathakrar/GreenGridPR/internal/training"
)

func TestPlotCurves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "scores.png")
	err := PlotCurves(path, "Training",
		Curve{Name: "score", Values: []float64{1, 3, 2, 5}},
		Curve{Name: "rolling mean", Values: []float64{1, 2, 2, 2.75}},
	)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPlotCurves_Empty(t *testing.T) {
	assert.Error(t, PlotCurves(filepath.Join(t.TempDir(), "x.png"), "empty"))
}

func TestPlotScores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.png")
	require.NoError(t, PlotScores(path, training.Scores{0.5, 1.5, 1, 2}, 2))
	_, err := os.Stat(path)
	assert.NoError(t, err)

	assert.Error(t, PlotScores(path, nil, 2))
}
