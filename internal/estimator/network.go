package estimator

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/karishmathakrar/GreenGridPR/internal/replay"
)

// DefaultPriorityEpsilon keeps priorities strictly positive when a TD error is zero.
const DefaultPriorityEpsilon = 1e-5

// NetworkConfig describes a fully connected action-value network.
type NetworkConfig struct {
	InputSize       int
	OutputSize      int
	Hidden          []int
	LearningRate    float64
	Gamma           float64
	PriorityEpsilon float64
	Seed            uint64
}

// DefaultNetworkConfig returns the layer sizes and step sizes used by the CLI.
func DefaultNetworkConfig(inputSize, outputSize int) NetworkConfig {
	return NetworkConfig{
		InputSize:       inputSize,
		OutputSize:      outputSize,
		Hidden:          []int{128, 256},
		LearningRate:    1e-3,
		Gamma:           0.99,
		PriorityEpsilon: DefaultPriorityEpsilon,
		Seed:            1,
	}
}

// Network is a feed-forward network with ReLU hidden layers and a linear
// output layer, trained with importance-weighted one-step TD targets.
type Network struct {
	cfg     NetworkConfig
	weights []*mat.Dense // out x in
	biases  []*mat.VecDense
}

var _ Estimator = (*Network)(nil)

// NewNetwork initialises a network with He-uniform weights and zero biases.
func NewNetwork(cfg NetworkConfig) (*Network, error) {
	if cfg.InputSize <= 0 || cfg.OutputSize <= 0 {
		return nil, fmt.Errorf("network %dx%d: %w", cfg.InputSize, cfg.OutputSize, ErrShapeMismatch)
	}
	for _, h := range cfg.Hidden {
		if h <= 0 {
			return nil, fmt.Errorf("hidden layer of size %d: %w", h, ErrShapeMismatch)
		}
	}
	if cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %v", cfg.LearningRate)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	sizes := append(append([]int{cfg.InputSize}, cfg.Hidden...), cfg.OutputSize)

	n := &Network{cfg: cfg}
	for l := 1; l < len(sizes); l++ {
		in, out := sizes[l-1], sizes[l]
		limit := math.Sqrt(6 / float64(in))
		data := make([]float64, out*in)
		for i := range data {
			data[i] = (2*rng.Float64() - 1) * limit
		}
		n.weights = append(n.weights, mat.NewDense(out, in, data))
		n.biases = append(n.biases, mat.NewVecDense(out, nil))
	}
	return n, nil
}

// Actions implements Estimator.
func (n *Network) Actions() int { return n.cfg.OutputSize }

// Predict implements Estimator.
func (n *Network) Predict(state []float64) ([]float64, error) {
	acts, _, err := n.forward(state)
	if err != nil {
		return nil, err
	}
	out := acts[len(acts)-1]
	values := make([]float64, out.Len())
	for i := range values {
		values[i] = out.AtVec(i)
	}
	return values, nil
}

// Update implements Estimator. The loss of sample j is
// 0.5 * w_j * (r + gamma * max_a Q(s', a) * (1 - done) - Q(s, a))^2 and the
// returned priority is |TD error| + PriorityEpsilon.
func (n *Network) Update(batch []replay.Transition, weights []float64) ([]float64, error) {
	if len(batch) != len(weights) {
		return nil, fmt.Errorf("%d transitions vs %d weights: %w", len(batch), len(weights), ErrShapeMismatch)
	}
	if len(batch) == 0 {
		return nil, nil
	}

	gradW := make([]*mat.Dense, len(n.weights))
	gradB := make([]*mat.VecDense, len(n.biases))
	for l, w := range n.weights {
		r, c := w.Dims()
		gradW[l] = mat.NewDense(r, c, nil)
		gradB[l] = mat.NewVecDense(r, nil)
	}

	priorities := make([]float64, len(batch))
	for j, t := range batch {
		if t.Action < 0 || t.Action >= n.cfg.OutputSize {
			return nil, fmt.Errorf("action %d of %d: %w", t.Action, n.cfg.OutputSize, ErrShapeMismatch)
		}
		target := t.Reward
		if !t.Done {
			next, err := n.Predict(t.NextState)
			if err != nil {
				return nil, err
			}
			target += n.cfg.Gamma * next[Greedy(next)]
		}

		acts, pre, err := n.forward(t.State)
		if err != nil {
			return nil, err
		}
		q := acts[len(acts)-1].AtVec(t.Action)
		tdError := target - q
		priorities[j] = math.Abs(tdError) + n.cfg.PriorityEpsilon

		delta := mat.NewVecDense(n.cfg.OutputSize, nil)
		delta.SetVec(t.Action, -weights[j]*tdError)
		n.backward(acts, pre, delta, gradW, gradB)
	}

	step := n.cfg.LearningRate / float64(len(batch))
	for l := range n.weights {
		gradW[l].Scale(step, gradW[l])
		n.weights[l].Sub(n.weights[l], gradW[l])
		n.biases[l].AddScaledVec(n.biases[l], -step, gradB[l])
	}
	return priorities, nil
}

func (n *Network) forward(state []float64) (acts, pre []*mat.VecDense, err error) {
	if len(state) != n.cfg.InputSize {
		return nil, nil, fmt.Errorf("state of size %d, want %d: %w", len(state), n.cfg.InputSize, ErrShapeMismatch)
	}
	a := mat.NewVecDense(len(state), append([]float64(nil), state...))
	acts = append(acts, a)
	last := len(n.weights) - 1
	for l, w := range n.weights {
		rows, _ := w.Dims()
		z := mat.NewVecDense(rows, nil)
		z.MulVec(w, a)
		z.AddVec(z, n.biases[l])
		pre = append(pre, z)

		next := mat.NewVecDense(rows, nil)
		next.CopyVec(z)
		if l != last {
			for i := 0; i < rows; i++ {
				if next.AtVec(i) < 0 {
					next.SetVec(i, 0)
				}
			}
		}
		acts = append(acts, next)
		a = next
	}
	return acts, pre, nil
}

// backward accumulates the gradients of one sample given the output delta.
func (n *Network) backward(acts, pre []*mat.VecDense, delta *mat.VecDense, gradW []*mat.Dense, gradB []*mat.VecDense) {
	for l := len(n.weights) - 1; l >= 0; l-- {
		var outer mat.Dense
		outer.Outer(1, delta, acts[l])
		gradW[l].Add(gradW[l], &outer)
		gradB[l].AddVec(gradB[l], delta)

		if l == 0 {
			return
		}
		_, cols := n.weights[l].Dims()
		prev := mat.NewVecDense(cols, nil)
		prev.MulVec(n.weights[l].T(), delta)
		for i := 0; i < cols; i++ {
			if pre[l-1].AtVec(i) <= 0 {
				prev.SetVec(i, 0)
			}
		}
		delta = prev
	}
}
