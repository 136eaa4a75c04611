package advisor

import (
	"fmt"
	"sync"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"gorgonia.org/tensor"
)

// ONNX projection model layout: a [1, DefaultDim] float32 "features" input
// holding the hashed bag of words, and an "embedding" output.
const (
	onnxInput  = "features"
	onnxOutput = "embedding"
)

// ONNXEmbedder projects hashed features through an ONNX model (gonnx, a
// pure Go runtime). The output is L2-normalized.
type ONNXEmbedder struct {
	features *HashEmbedder
	model    *gonnx.Model
	dim      int
	mu       sync.Mutex
}

// NewONNXEmbedder loads the projection model at path. outDim is the width of
// the model's embedding output.
func NewONNXEmbedder(path string, outDim int) (*ONNXEmbedder, error) {
	model, err := gonnx.NewModelFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load advisor model: %w", err)
	}
	if outDim <= 0 {
		outDim = DefaultDim
	}
	return &ONNXEmbedder{features: NewHashEmbedder(DefaultDim), model: model, dim: outDim}, nil
}

func (e *ONNXEmbedder) Dim() int { return e.dim }

func (e *ONNXEmbedder) Embed(text string) ([]float32, error) {
	feats, err := e.features.Embed(text)
	if err != nil {
		return nil, err
	}
	in := tensor.New(
		tensor.WithShape(1, DefaultDim),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(feats),
	)

	e.mu.Lock()
	outputs, err := e.model.Run(gonnx.Tensors{onnxInput: in})
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run advisor model: %w", err)
	}
	out, ok := outputs[onnxOutput]
	if !ok {
		return nil, fmt.Errorf("advisor model has no %q output", onnxOutput)
	}

	var v []float32
	switch d := out.Data().(type) {
	case []float32:
		v = append([]float32(nil), d...)
	case []float64:
		v = make([]float32, len(d))
		for i, x := range d {
			v[i] = float32(x)
		}
	default:
		return nil, fmt.Errorf("unexpected advisor output type %T", d)
	}
	if len(v) != e.dim {
		return nil, fmt.Errorf("advisor model produced %d values, want %d", len(v), e.dim)
	}
	normalize(v)
	return v, nil
}
