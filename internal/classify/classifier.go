// Package classify scores feature vectors for severity.
package classify

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ppiankov/medlens/internal/features"
	"github.com/ppiankov/medlens/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Scorer turns a feature vector into a severity in [0,1].
// Score blocks until the result is available; there are no partial results.
type Scorer interface {
	Score(ctx context.Context, vector []float64) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface
type ScorerFunc func(ctx context.Context, vector []float64) (float64, error)

// Score calls f(ctx, vector)
func (f ScorerFunc) Score(ctx context.Context, vector []float64) (float64, error) {
	return f(ctx, vector)
}

// MLP is a fixed feed-forward network (ReLU hidden layers, softmax output).
// It is immutable after construction and safe for concurrent use.
type MLP struct {
	layers []denseLayer
}

type denseLayer struct {
	weights *mat.Dense    // outputs x inputs
	biases  *mat.VecDense // outputs
}

// NewMLP builds a network from validated parameters
func NewMLP(p *Params) (*MLP, error) {
	if p == nil {
		return nil, fmt.Errorf("nil classifier params")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier params: %w", err)
	}

	m := &MLP{layers: make([]denseLayer, len(p.Layers))}
	for l, layer := range p.Layers {
		rows, cols := len(layer.Weights), len(layer.Weights[0])

		data := make([]float64, 0, rows*cols)
		for _, row := range layer.Weights {
			data = append(data, row...)
		}

		biases := make([]float64, rows)
		copy(biases, layer.Biases)

		m.layers[l] = denseLayer{
			weights: mat.NewDense(rows, cols, data),
			biases:  mat.NewVecDense(rows, biases),
		}
	}

	return m, nil
}

// Predict returns the class distribution for a feature vector
func (m *MLP) Predict(vector []float64) ([]float64, error) {
	if err := checkVector(vector); err != nil {
		return nil, err
	}

	input := make([]float64, len(vector))
	copy(input, vector)
	x := mat.NewVecDense(len(input), input)

	last := len(m.layers) - 1
	for l, layer := range m.layers {
		rows, _ := layer.weights.Dims()
		out := mat.NewVecDense(rows, nil)
		out.MulVec(layer.weights, x)
		out.AddVec(out, layer.biases)

		if l < last {
			for i := 0; i < rows; i++ {
				if out.AtVec(i) < 0 {
					out.SetVec(i, 0)
				}
			}
		}
		x = out
	}

	logits := make([]float64, x.Len())
	for i := range logits {
		logits[i] = x.AtVec(i)
	}
	return softmax(logits), nil
}

// Score returns the highest class probability.
// The context is accepted for interface compatibility; inference is not cancellable.
func (m *MLP) Score(_ context.Context, vector []float64) (float64, error) {
	probs, err := m.Predict(vector)
	if err != nil {
		return 0, err
	}
	return floats.Max(probs), nil
}

// softmax is computed with the max logit subtracted for stability
func softmax(logits []float64) []float64 {
	maxLogit := floats.Max(logits)

	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
	}
	sum := floats.Sum(out)
	floats.Scale(1/sum, out)

	return out
}

func checkVector(vector []float64) error {
	if len(vector) != features.Dimension {
		return &InvalidInputError{Got: len(vector), Want: features.Dimension}
	}
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidInputError{
				Got:    len(vector),
				Want:   features.Dimension,
				Reason: fmt.Sprintf("feature %d is not finite", i),
			}
		}
	}
	return nil
}

// Lazy loads an MLP on first use and shares it afterwards.
// A failed load is remembered and reported on every call.
type Lazy struct {
	once sync.Once
	load func() (*MLP, error)
	mlp  *MLP
	err  error
}

// NewLazy creates a scorer that calls load at most once
func NewLazy(load func() (*MLP, error)) *Lazy {
	return &Lazy{load: load}
}

// Score loads the network if needed and scores the vector
func (l *Lazy) Score(ctx context.Context, vector []float64) (float64, error) {
	l.once.Do(func() {
		l.mlp, l.err = l.load()
	})
	if l.err != nil {
		return 0, fmt.Errorf("load classifier: %w", l.err)
	}
	return l.mlp.Score(ctx, vector)
}

// LoaderFromConfig returns a loader for the configured parameters:
// a parameter file when set, otherwise seeded parameters
func LoaderFromConfig(cfg model.ClassifierConfig) func() (*MLP, error) {
	return func() (*MLP, error) {
		if cfg.ParamsPath != "" {
			p, err := LoadParams(cfg.ParamsPath)
			if err != nil {
				return nil, err
			}
			return NewMLP(p)
		}
		return NewMLP(SeededParams(cfg.Seed))
	}
}

// Classify scores a vector and derives the urgency bucket.
// Scores outside [0,1] from custom scorers are clamped.
func Classify(ctx context.Context, s Scorer, vector []float64) (float64, model.UrgencyLevel, error) {
	severity, err := s.Score(ctx, vector)
	if err != nil {
		return 0, "", err
	}
	if math.IsNaN(severity) {
		return 0, "", fmt.Errorf("scorer returned NaN")
	}
	severity = math.Max(0, math.Min(1, severity))
	return severity, model.UrgencyFromSeverity(severity), nil
}
