package nn

import (
	"fmt"
	"os"
	"time"

	"github.com/owulveryck/onnx-go"
	"github.com/owulveryck/onnx-go/backend/x/gorgonnx"
	"github.com/rs/zerolog/log"
	"gorgonia.org/tensor"

	"github.com/chesshacks/azbridge/encoding"
)

// Forward is the tensor-inference runtime contract: one encoded position in,
// the raw policy head and value scalar out. Model satisfies it with a real
// ONNX graph; tests satisfy it with stubs.
type Forward interface {
	Forward(input []float32) (policy []float32, value float32, err error)
}

// Model wraps a loaded ONNX policy/value network. It is loaded once at
// process startup, read-only afterwards, and released exactly once via Close.
// A Model is not safe for concurrent Forward calls; the request loop is
// single-threaded by design.
type Model struct {
	backend *gorgonnx.Graph
	model   *onnx.Model
	closed  bool
}

// LoadModel reads a serialized ONNX artifact and builds the inference graph.
func LoadModel(path string) (*Model, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	backend := gorgonnx.NewGraph()
	model := onnx.NewModel(backend)
	if err := model.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("unmarshal onnx model: %w", err)
	}
	log.Info().Str("path", path).
		Int("model-size", len(data)).
		Dur("load-time", time.Since(start)).
		Msg("loaded-onnx-model")
	return &Model{backend: backend, model: model}, nil
}

// Forward runs one evaluation through the loaded graph.
func (m *Model) Forward(input []float32) ([]float32, float32, error) {
	if m == nil || m.closed {
		return nil, 0, ErrNotLoaded
	}
	in := tensor.New(
		tensor.WithShape(1, encoding.NumPlanes, 8, 8),
		tensor.WithBacking(input))
	m.model.SetInput(0, in)
	if err := m.backend.Run(); err != nil {
		return nil, 0, fmt.Errorf("run inference graph: %w", err)
	}
	out, err := m.model.GetOutputTensors()
	if err != nil {
		return nil, 0, fmt.Errorf("read output tensors: %w", err)
	}
	if len(out) < 2 {
		return nil, 0, fmt.Errorf("model produced %d outputs, want 2", len(out))
	}
	pol, err := floatData(out[0])
	if err != nil {
		return nil, 0, fmt.Errorf("policy output: %w", err)
	}
	val, err := floatData(out[1])
	if err != nil {
		return nil, 0, fmt.Errorf("value output: %w", err)
	}
	if len(val) < 1 {
		return nil, 0, fmt.Errorf("value output is empty")
	}
	return pol, val[0], nil
}

// Close releases the loaded graph. Safe to call more than once.
func (m *Model) Close() error {
	if m == nil || m.closed {
		return nil
	}
	m.closed = true
	m.backend = nil
	m.model = nil
	return nil
}

func floatData(t tensor.Tensor) ([]float32, error) {
	switch d := t.Data().(type) {
	case []float32:
		return d, nil
	case float32:
		return []float32{d}, nil
	default:
		return nil, fmt.Errorf("unexpected element type %T", d)
	}
}
