// Package autodiff provides reverse-mode automatic differentiation as a
// backend decorator. Wrapping a backend in an AutodiffBackend records every
// differentiable operation on a GradientTape; Backward then replays the
// tape to produce gradients for training.
package autodiff

import (
	"math"

	"github.com/munir2200963/edge-labs/internal/autodiff/ops"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// AutodiffBackend wraps an inner backend and records differentiable
// operations on its tape. Non-differentiable operations (casts, argmax,
// reductions used only for metrics) pass straight through.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New wraps backend with a fresh tape. Recording starts disabled; call
// Tape().StartRecording() before the forward pass of a training step.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{inner: backend, tape: NewGradientTape()}
}

// Tape returns the gradient tape shared by all operations on this backend.
func (ad *AutodiffBackend[B]) Tape() *GradientTape { return ad.tape }

// Inner returns the wrapped backend.
func (ad *AutodiffBackend[B]) Inner() B { return ad.inner }

func (ad *AutodiffBackend[B]) Name() string          { return "autodiff(" + ad.inner.Name() + ")" }
func (ad *AutodiffBackend[B]) Device() tensor.Device { return ad.inner.Device() }

func (ad *AutodiffBackend[B]) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Add(a, b)
	ad.tape.Record(ops.NewAddOp(a, b, out))
	return out
}

func (ad *AutodiffBackend[B]) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Sub(a, b)
	ad.tape.Record(ops.NewSubOp(a, b, out))
	return out
}

func (ad *AutodiffBackend[B]) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Mul(a, b)
	ad.tape.Record(ops.NewMulOp(a, b, out))
	return out
}

func (ad *AutodiffBackend[B]) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Div(a, b)
	ad.tape.Record(ops.NewDivOp(a, b, out))
	return out
}

func (ad *AutodiffBackend[B]) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.MatMul(a, b)
	ad.tape.Record(ops.NewMatMulOp(a, b, out))
	return out
}

func (ad *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	out := ad.inner.Conv2D(input, kernel, stride, padding)
	ad.tape.Record(ops.NewConv2DOp(input, kernel, out, stride, padding))
	return out
}

func (ad *AutodiffBackend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	out := ad.inner.MaxPool2D(input, kernelSize, stride)
	if ad.tape.IsRecording() {
		indices := maxIndices(input, out, kernelSize, stride)
		ad.tape.Record(ops.NewMaxPool2DOp(input, out, indices, kernelSize, stride))
	}
	return out
}

func (ad *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.ReLU(x)
	ad.tape.Record(ops.NewReLUOp(x, out))
	return out
}

func (ad *AutodiffBackend[B]) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out := ad.inner.Reshape(x, shape)
	ad.tape.Record(ops.NewReshapeOp(x, out))
	return out
}

func (ad *AutodiffBackend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	out := ad.inner.Transpose(x, axes...)
	ad.tape.Record(ops.NewTransposeOp(x, out, axes))
	return out
}

// CrossEntropy computes the mean softmax cross-entropy loss and records it
// for backward. targets holds int64 class indices and receives no gradient.
func (ad *AutodiffBackend[B]) CrossEntropy(logits, targets *tensor.RawTensor) (*tensor.RawTensor, error) {
	op, out, err := ops.CrossEntropyForward(logits, targets, ad.inner)
	if err != nil {
		return nil, err
	}
	ad.tape.Record(op)
	return out, nil
}

// FakeQuant simulates affine quantization in float: each element is
// quantized to the integer grid defined by scale and zeroPoint, clamped to
// [qmin, qmax], and dequantized back. The recorded backward pass is a
// straight-through estimator that zeroes gradients for saturated elements.
func (ad *AutodiffBackend[B]) FakeQuant(x *tensor.RawTensor, scale float32, zeroPoint, qmin, qmax int) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), tensor.Float32, x.Device())
	xData := x.AsFloat32()
	oData := out.AsFloat32()
	mask := make([]bool, len(xData))
	for i, v := range xData {
		q := int(math.Round(float64(v)/float64(scale))) + zeroPoint
		mask[i] = q >= qmin && q <= qmax
		if q < qmin {
			q = qmin
		} else if q > qmax {
			q = qmax
		}
		oData[i] = float32(q-zeroPoint) * scale
	}
	ad.tape.Record(ops.NewFakeQuantOp(x, out, mask))
	return out
}

// Passthrough operations. These are either non-differentiable or only used
// outside the training graph, so they are not recorded.

func (ad *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return ad.inner.AddScalar(x, scalar)
}

func (ad *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return ad.inner.MulScalar(x, scalar)
}

func (ad *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor  { return ad.inner.Exp(x) }
func (ad *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor  { return ad.inner.Log(x) }
func (ad *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor { return ad.inner.Sqrt(x) }

func (ad *AutodiffBackend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return ad.inner.Softmax(x, dim)
}

func (ad *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Sum(x)
	ad.tape.Record(ops.NewSumOp(x, out))
	return out
}

func (ad *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := ad.inner.SumDim(x, dim, keepDim)
	if dim < 0 {
		dim += len(x.Shape())
	}
	ad.tape.Record(ops.NewSumDimOp(x, out, dim, keepDim))
	return out
}

func (ad *AutodiffBackend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return ad.inner.MeanDim(x, dim, keepDim)
}

func (ad *AutodiffBackend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return ad.inner.Argmax(x, dim)
}

func (ad *AutodiffBackend[B]) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return ad.inner.Cast(x, dtype)
}

func (ad *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return ad.inner.Conv2DInputBackward(input, kernel, outputGrad, stride, padding)
}

func (ad *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return ad.inner.Conv2DKernelBackward(input, kernel, outputGrad, stride, padding)
}

func (ad *AutodiffBackend[B]) MaxPool2DBackward(input, outputGrad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	return ad.inner.MaxPool2DBackward(input, outputGrad, maxIndices, kernelSize, stride)
}

// maxIndices recomputes the winning input index for each pooled output
// element. It mirrors the forward pass tie-breaking (first maximum wins).
func maxIndices(input, output *tensor.RawTensor, kernelSize, stride int) []int {
	shape := input.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	outShape := output.Shape()
	hOut, wOut := outShape[2], outShape[3]

	inData := input.AsFloat32()
	indices := make([]int, output.NumElements())

	idx := 0
	for nIdx := 0; nIdx < n; nIdx++ {
		for cIdx := 0; cIdx < c; cIdx++ {
			base := (nIdx*c + cIdx) * h * w
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					best := base + (oh*stride)*w + ow*stride
					bestVal := inData[best]
					for kh := 0; kh < kernelSize; kh++ {
						ih := oh*stride + kh
						if ih >= h {
							break
						}
						for kw := 0; kw < kernelSize; kw++ {
							iw := ow*stride + kw
							if iw >= w {
								break
							}
							pos := base + ih*w + iw
							if inData[pos] > bestVal {
								bestVal = inData[pos]
								best = pos
							}
						}
					}
					indices[idx] = best
					idx++
				}
			}
		}
	}
	return indices
}
