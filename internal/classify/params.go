package classify

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// LayerSizes is the fixed network shape: 5 inputs, two hidden layers, 3 classes
var LayerSizes = []int{5, 16, 8, 3}

// Params are the weights and biases of every dense layer
type Params struct {
	Layers []LayerParams `yaml:"layers"`
}

// LayerParams holds one dense layer. Weights has one row per output unit.
type LayerParams struct {
	Weights [][]float64 `yaml:"weights"`
	Biases  []float64   `yaml:"biases"`
}

// SeededParams generates Glorot-uniform weights and zero biases from a
// seed. The same seed always yields the same parameters.
func SeededParams(seed uint64) *Params {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	p := &Params{Layers: make([]LayerParams, len(LayerSizes)-1)}
	for l := 0; l < len(LayerSizes)-1; l++ {
		in, out := LayerSizes[l], LayerSizes[l+1]
		limit := math.Sqrt(6.0 / float64(in+out))

		weights := make([][]float64, out)
		for i := range weights {
			row := make([]float64, in)
			for j := range row {
				row[j] = (2*rng.Float64() - 1) * limit
			}
			weights[i] = row
		}

		p.Layers[l] = LayerParams{
			Weights: weights,
			Biases:  make([]float64, out),
		}
	}

	return p
}

// LoadParams reads parameters from a YAML file and validates their shape
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier params: %w", err)
	}

	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode classifier params: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &p, nil
}

// Validate checks that the parameters fit LayerSizes
func (p *Params) Validate() error {
	if len(p.Layers) != len(LayerSizes)-1 {
		return fmt.Errorf("expected %d layers, got %d", len(LayerSizes)-1, len(p.Layers))
	}

	for l, layer := range p.Layers {
		in, out := LayerSizes[l], LayerSizes[l+1]
		if len(layer.Weights) != out {
			return fmt.Errorf("layer %d: expected %d weight rows, got %d", l, out, len(layer.Weights))
		}
		for i, row := range layer.Weights {
			if len(row) != in {
				return fmt.Errorf("layer %d row %d: expected %d weights, got %d", l, i, in, len(row))
			}
			for _, w := range row {
				if math.IsNaN(w) || math.IsInf(w, 0) {
					return fmt.Errorf("layer %d row %d: non-finite weight", l, i)
				}
			}
		}
		if len(layer.Biases) != out {
			return fmt.Errorf("layer %d: expected %d biases, got %d", l, out, len(layer.Biases))
		}
	}

	return nil
}

// Marshal encodes the parameters as YAML
func (p *Params) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
