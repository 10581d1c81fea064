package quant

import (
	"math"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Scheme selects the integer grid a FakeQuantizer simulates.
type Scheme int

const (
	// AffineUint8 is the activation scheme: range [0, 255] with a zero point.
	AffineUint8 Scheme = iota
	// SymmetricInt8 is the weight scheme: range [-127, 127], zero point 0.
	SymmetricInt8
)

// Range returns the scheme's integer bounds.
func (s Scheme) Range() (qmin, qmax int) {
	if s == SymmetricInt8 {
		return Int8Min, Int8Max
	}
	return Uint8Min, Uint8Max
}

// fakeQuantBackend is implemented by backends that record fake
// quantization on a gradient tape. The autodiff decorator does; the plain
// CPU backend falls back to a direct computation.
type fakeQuantBackend interface {
	FakeQuant(x *tensor.RawTensor, scale float32, zeroPoint, qmin, qmax int) *tensor.RawTensor
}

// FakeQuantizer simulates quantization of one tensor during training. Each
// forward pass feeds the observer (until frozen) and then rounds the
// values to the observer's current integer grid.
type FakeQuantizer struct {
	observer Observer
	scheme   Scheme
	frozen   bool
	quantize bool
}

// NewFakeQuantizer creates a FakeQuantizer around an observer. With
// quantize false the forward pass only observes and returns its input
// unchanged, which is the calibration behavior for post-training
// quantization; QAT sets quantize true.
func NewFakeQuantizer(observer Observer, scheme Scheme, quantize bool) *FakeQuantizer {
	return &FakeQuantizer{observer: observer, scheme: scheme, quantize: quantize}
}

// Freeze stops observer updates. Fake quantization itself stays active, so
// late QAT epochs train against a fixed grid.
func (f *FakeQuantizer) Freeze() { f.frozen = true }

// Frozen reports whether observer updates are disabled.
func (f *FakeQuantizer) Frozen() bool { return f.frozen }

// Observer returns the underlying observer.
func (f *FakeQuantizer) Observer() Observer { return f.observer }

// QParams returns the observer's current quantization parameters.
func (f *FakeQuantizer) QParams() QParams { return f.observer.QParams() }

// Forward observes x (unless frozen) and returns its fake-quantized copy,
// or x itself in observe-only mode.
func (f *FakeQuantizer) Forward(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	if !f.frozen {
		f.observer.Observe(x.AsFloat32())
	}
	if !f.quantize {
		return x
	}
	qp := f.observer.QParams()
	qmin, qmax := f.scheme.Range()

	if fqb, ok := backend.(fakeQuantBackend); ok {
		return fqb.FakeQuant(x, qp.Scale, int(qp.ZeroPoint), qmin, qmax)
	}

	out := tensor.MustRaw(x.Shape(), tensor.Float32, x.Device())
	xData := x.AsFloat32()
	oData := out.AsFloat32()
	for i, v := range xData {
		q := int(math.Round(float64(v)/float64(qp.Scale))) + int(qp.ZeroPoint)
		if q < qmin {
			q = qmin
		} else if q > qmax {
			q = qmax
		}
		oData[i] = float32(q-int(qp.ZeroPoint)) * qp.Scale
	}
	return out
}
