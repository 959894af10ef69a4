// Package model resolves meter ids to forecasting artifacts stored on disk,
// in object storage or behind a model server.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/meterforecast/backend/internal/domain"
)

// Layer is one fully connected layer; Weights is indexed [output][input]
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
}

// DenseNetwork is a feed-forward network applied to a flattened input window.
// It is the portable artifact format exported by the training pipeline.
type DenseNetwork struct {
	MeterID   string   `json:"meter_id"`
	Timesteps int      `json:"timesteps"`
	Features  []string `json:"features"`
	Layers    []Layer  `json:"layers"`
}

// DecodeDenseNetwork reads and validates a JSON artifact
func DecodeDenseNetwork(r io.Reader) (*DenseNetwork, error) {
	var n DenseNetwork
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, domain.ConfigurationError("decoding artifact: %v", err)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Validate checks that layer shapes chain from the window size down to one output
func (n *DenseNetwork) Validate() error {
	if n.Timesteps < 1 || len(n.Features) == 0 {
		return domain.ConfigurationError("artifact %s: invalid input shape (%d, %d)", n.MeterID, n.Timesteps, len(n.Features))
	}
	if len(n.Layers) == 0 {
		return domain.ConfigurationError("artifact %s: no layers", n.MeterID)
	}

	width := n.Timesteps * len(n.Features)
	for i, l := range n.Layers {
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Biases) {
			return domain.ConfigurationError("artifact %s: layer %d has %d rows and %d biases",
				n.MeterID, i, len(l.Weights), len(l.Biases))
		}
		for _, row := range l.Weights {
			if len(row) != width {
				return domain.ConfigurationError("artifact %s: layer %d expects %d inputs, got %d",
					n.MeterID, i, width, len(row))
			}
		}
		if _, err := activation(l.Activation); err != nil {
			return domain.ConfigurationError("artifact %s: layer %d: %v", n.MeterID, i, err)
		}
		width = len(l.Weights)
	}
	if width != 1 {
		return domain.ConfigurationError("artifact %s: final layer has %d outputs, want 1", n.MeterID, width)
	}
	return nil
}

// Predict runs the network over every window
func (n *DenseNetwork) Predict(_ context.Context, in *domain.InputWindow) ([]float64, error) {
	if in.Timesteps != n.Timesteps || len(in.Features) != len(n.Features) {
		return nil, domain.ConfigurationError("artifact %s expects (%d, %d) windows, got (%d, %d)",
			n.MeterID, n.Timesteps, len(n.Features), in.Timesteps, len(in.Features))
	}
	for i, name := range n.Features {
		if in.Features[i] != name {
			return nil, domain.ConfigurationError("artifact %s: feature %d is %q, window has %q",
				n.MeterID, i, name, in.Features[i])
		}
	}

	out := make([]float64, in.Windows)
	for w := 0; w < in.Windows; w++ {
		out[w] = n.forward(in.Flat(w))[0]
	}
	return out, nil
}

func (n *DenseNetwork) forward(x []float64) []float64 {
	for _, l := range n.Layers {
		act, _ := activation(l.Activation)
		next := make([]float64, len(l.Weights))
		for o, row := range l.Weights {
			sum := l.Biases[o]
			for i, w := range row {
				sum += w * x[i]
			}
			next[o] = act(sum)
		}
		x = next
	}
	return x
}

func activation(name string) (func(float64) float64, error) {
	switch name {
	case "", "linear":
		return func(v float64) float64 { return v }, nil
	case "relu":
		return func(v float64) float64 { return math.Max(0, v) }, nil
	case "tanh":
		return math.Tanh, nil
	case "sigmoid":
		return func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}
