// Package analysis renders training results.
package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/karishmathakrar/GreenGridPR/internal/training"
)

// Curve is a named series of per-episode values.
type Curve struct {
	Name   string
	Values []float64
}

// PlotCurves writes a PNG (or any format plot supports by extension) with one
// line per curve against the episode number.
func PlotCurves(path, title string, curves ...Curve) error {
	if len(curves) == 0 {
		return fmt.Errorf("nothing to plot")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Score"
	for i, curve := range curves {
		points := make(plotter.XYs, len(curve.Values))
		for j, v := range curve.Values {
			points[j] = plotter.XY{X: float64(j + 1), Y: v}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("curve %s: %w", curve.Name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(curve.Name, line)
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// PlotScores writes the per-episode scores of a run alongside their rolling
// mean over window episodes.
func PlotScores(path string, scores training.Scores, window int) error {
	if len(scores) == 0 {
		return fmt.Errorf("no scores to plot")
	}
	return PlotCurves(path, fmt.Sprintf("Score (rolling mean over %d)", window),
		Curve{Name: "score", Values: scores},
		Curve{Name: "rolling mean", Values: scores.RollingMean(window)},
	)
}
