// Package nn serves move evaluations from a resident policy/value network.
// The policy head scores all 4096 (origin, destination) pairs; Predict masks
// that down to the queried position's legal moves and renormalizes, so every
// request pays a position-aware selection step that cannot be cached.
package nn

import (
	"errors"
	"fmt"
	"math"

	"github.com/dylhunn/dragontoothmg"
	"gonum.org/v1/gonum/floats"

	"github.com/chesshacks/azbridge/encoding"
	"github.com/chesshacks/azbridge/policy"
)

// ErrNotLoaded reports a Predict or Forward call before a successful load.
var ErrNotLoaded = errors.New("model runtime not loaded")

// InferenceError wraps any failure inside a predict call: a runtime error,
// a shape mismatch, or degenerate renormalization input.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Prediction is the decoded result of one forward evaluation.
type Prediction struct {
	// Policy maps each legal move, in canonical short form, to its
	// probability. The values sum to 1 over exactly the legal set.
	Policy map[string]float64
	// Value estimates the outcome in [0,1] from white's perspective.
	Value float64
	// RawValue is the untransformed value channel. The model already bounds
	// its output, so this is identical to Value; kept for diagnostics.
	RawValue float64
}

// Engine owns the loaded runtime and the move-index codec for the life of
// the process.
type Engine struct {
	runtime Forward
	codec   *policy.Codec
}

// NewEngine wires an inference runtime to a freshly built codec.
func NewEngine(runtime Forward) *Engine {
	return &Engine{runtime: runtime, codec: policy.New()}
}

// Predict evaluates one position: encode, forward, gather the raw weight of
// each legal move through the codec, renormalize over the legal set, and
// pass the value channel through unchanged. Illegal-move mass is discarded.
func (e *Engine) Predict(b *dragontoothmg.Board) (*Prediction, error) {
	if e == nil || e.runtime == nil {
		return nil, &InferenceError{Stage: "forward", Err: ErrNotLoaded}
	}
	raw, value, err := e.runtime.Forward(encoding.Encode(b))
	if err != nil {
		return nil, &InferenceError{Stage: "forward", Err: err}
	}
	if len(raw) != policy.Size {
		return nil, &InferenceError{
			Stage: "forward",
			Err:   fmt.Errorf("policy head has %d entries, want %d", len(raw), policy.Size),
		}
	}
	legal := b.GenerateLegalMoves()
	weights := make([]float64, len(legal))
	for i := range legal {
		weights[i] = float64(raw[e.codec.IndexOf(legal[i])])
	}
	sum := floats.Sum(weights)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, &InferenceError{
			Stage: "renormalize",
			Err:   fmt.Errorf("probability mass %v over %d legal moves", sum, len(legal)),
		}
	}
	floats.Scale(1/sum, weights)
	dist := make(map[string]float64, len(legal))
	for i := range legal {
		dist[legal[i].String()] = weights[i]
	}
	return &Prediction{
		Policy:   dist,
		Value:    float64(value),
		RawValue: float64(value),
	}, nil
}
