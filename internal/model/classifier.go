// Package model defines the convolutional MNIST classifier in its
// floating-point, quantization-prepared and fully quantized forms, and the
// conversions between them.
package model

import (
	"math/rand"

	"github.com/munir2200963/edge-labs/internal/nn"
	"github.com/munir2200963/edge-labs/internal/quant"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Network dimensions. Input is a 28x28 single-channel image; two 5x5
// convolution stages with 2x2 pooling reduce it to 16 channels of 4x4,
// flattened to 256 features for the classifier head.
const (
	InputSize     = 28
	InputChannels = 1
	Conv1Out      = 6
	Conv2Out      = 16
	ConvKernel    = 5
	PoolSize      = 2
	FlatFeatures  = 256
	Hidden1       = 120
	Hidden2       = 84
	NumClasses    = 10
)

// Mode tracks which forward-pass variant a Classifier runs.
type Mode int

const (
	// Float runs plain floating-point inference and training.
	Float Mode = iota
	// Calibration runs floating point but feeds activation observers,
	// preparing for post-training quantization.
	Calibration
	// QAT fake-quantizes weights and activations in every forward pass.
	QAT
)

func (m Mode) String() string {
	switch m {
	case Float:
		return "float"
	case Calibration:
		return "calibration"
	case QAT:
		return "qat"
	default:
		return "unknown"
	}
}

// Classifier is the floating-point network: two conv+relu+pool stages
// followed by three fully connected layers. Quantize/dequantize boundary
// markers around the network are inactive in Float mode.
type Classifier[B tensor.Backend] struct {
	Conv1 *nn.Conv2D[B]
	Conv2 *nn.Conv2D[B]
	FC1   *nn.Linear[B]
	FC2   *nn.Linear[B]
	FC3   *nn.Linear[B]

	backend B
	mode    Mode
	qconfig quant.QConfig

	// Observation points, populated by Prepare or PrepareQAT. stub covers
	// the network input; act observers sit after each activation and after
	// the final layer, the boundaries that carry quantization parameters
	// into the converted model.
	stub     *quant.FakeQuantizer
	actConv1 *quant.FakeQuantizer
	actConv2 *quant.FakeQuantizer
	actFC1   *quant.FakeQuantizer
	actFC2   *quant.FakeQuantizer
	actFC3   *quant.FakeQuantizer

	// Weight fake-quantizers, QAT only.
	wConv1 *quant.FakeQuantizer
	wConv2 *quant.FakeQuantizer
	wFC1   *quant.FakeQuantizer
	wFC2   *quant.FakeQuantizer
	wFC3   *quant.FakeQuantizer
}

// NewClassifier builds a classifier with freshly initialized weights. The
// RNG drives initialization, so a fixed seed gives a reproducible model.
func NewClassifier[B tensor.Backend](rng *rand.Rand, backend B) *Classifier[B] {
	return &Classifier[B]{
		Conv1:   nn.NewConv2D("conv1", InputChannels, Conv1Out, ConvKernel, 1, 0, rng, backend),
		Conv2:   nn.NewConv2D("conv2", Conv1Out, Conv2Out, ConvKernel, 1, 0, rng, backend),
		FC1:     nn.NewLinear("fc1", FlatFeatures, Hidden1, rng, backend),
		FC2:     nn.NewLinear("fc2", Hidden1, Hidden2, rng, backend),
		FC3:     nn.NewLinear("fc3", Hidden2, NumClasses, rng, backend),
		backend: backend,
	}
}

// Mode returns the classifier's current forward-pass mode.
func (c *Classifier[B]) Mode() Mode { return c.mode }

// Backend returns the classifier's compute backend.
func (c *Classifier[B]) Backend() B { return c.backend }

// Parameters returns all trainable parameters in layer order.
func (c *Classifier[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, m := range []nn.Module[B]{c.Conv1, c.Conv2, c.FC1, c.FC2, c.FC3} {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Forward computes class scores for a [batch, 1, 28, 28] input. The
// computation depends on the mode: plain float, float with observation, or
// fake-quantized.
func (c *Classifier[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x = c.boundary(x, c.stub)

	x = c.convBlock(x, c.Conv1, c.wConv1, c.actConv1)
	x = c.convBlock(x, c.Conv2, c.wConv2, c.actConv2)

	batch := x.Shape()[0]
	x = x.Reshape(batch, FlatFeatures)

	x = c.linearBlock(x, c.FC1, c.wFC1, c.actFC1, true)
	x = c.linearBlock(x, c.FC2, c.wFC2, c.actFC2, true)
	x = c.linearBlock(x, c.FC3, c.wFC3, c.actFC3, false)
	return x
}

// convBlock runs conv+relu+pool with optional weight fake quantization and
// an observation point after the activation.
func (c *Classifier[B]) convBlock(x *tensor.Tensor[float32, B], layer *nn.Conv2D[B], wfq, afq *quant.FakeQuantizer) *tensor.Tensor[float32, B] {
	w := layer.Weight.Value
	if wfq != nil {
		w = tensor.New[float32, B](wfq.Forward(w.Raw(), c.backend), c.backend)
	}
	out := x.Conv2D(w, layer.Stride, layer.Padding).Add(layer.Bias.Value).ReLU()
	out = c.boundary(out, afq)
	return out.MaxPool2D(PoolSize, PoolSize)
}

// linearBlock runs linear(+relu) with optional weight fake quantization
// and an observation point after the block.
func (c *Classifier[B]) linearBlock(x *tensor.Tensor[float32, B], layer *nn.Linear[B], wfq, afq *quant.FakeQuantizer, relu bool) *tensor.Tensor[float32, B] {
	w := layer.Weight.Value
	if wfq != nil {
		w = tensor.New[float32, B](wfq.Forward(w.Raw(), c.backend), c.backend)
	}
	out := x.MatMul(w.Transpose()).Add(layer.Bias.Value)
	if relu {
		out = out.ReLU()
	}
	return c.boundary(out, afq)
}

// boundary applies an observation or fake-quantization point when one is
// installed; in Float mode it is a pass-through.
func (c *Classifier[B]) boundary(x *tensor.Tensor[float32, B], fq *quant.FakeQuantizer) *tensor.Tensor[float32, B] {
	if fq == nil {
		return x
	}
	raw := fq.Forward(x.Raw(), c.backend)
	if raw == x.Raw() {
		return x
	}
	return tensor.New[float32, B](raw, c.backend)
}
