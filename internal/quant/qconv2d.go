package quant

import (
	"fmt"
	"math"

	"github.com/munir2200963/edge-labs/internal/parallel"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// QConv2D is a 2D convolution computing entirely in integers: uint8
// activations, int8 weights, int32 accumulation, then requantization to
// uint8 output. When WithReLU is set the rectifier is fused into the
// requantization clamp.
//
// Out-of-bounds positions under padding are skipped rather than read:
// padding holds the input zero point, whose centered value is exactly 0.
type QConv2D struct {
	Weight   *tensor.RawTensor // int8, [outChannels, inChannels, k, k]
	Bias     []int32           // quantized at InputQP.Scale * WeightQP.Scale
	WeightQP QParams
	InputQP  QParams
	OutputQP QParams
	WithReLU bool

	InChannels  int
	OutChannels int
	KernelSize  int
	Stride      int
	Padding     int
}

// NewQConv2D quantizes a float32 kernel [outChannels, inChannels, k, k]
// and bias (one value per output channel) into an integer convolution.
func NewQConv2D(weight, bias *tensor.RawTensor, stride, padding int, inputQP, outputQP QParams, weightObs Observer, withReLU bool) (*QConv2D, error) {
	shape := weight.Shape()
	if len(shape) != 4 || shape[2] != shape[3] {
		return nil, fmt.Errorf("qconv2d: want square 4D kernel, got shape %v", shape)
	}
	outC, inC, k := shape[0], shape[1], shape[2]

	weightObs.Observe(weight.AsFloat32())
	wqp := weightObs.QParams()
	qWeight := QuantizeInt8(weight, wqp)

	qBias := make([]int32, outC)
	if bias != nil {
		bData := bias.AsFloat32()
		if len(bData) != outC {
			return nil, fmt.Errorf("qconv2d: bias has %d values for %d output channels", len(bData), outC)
		}
		biasScale := inputQP.Scale * wqp.Scale
		for i, v := range bData {
			qBias[i] = int32(math.Round(float64(v) / float64(biasScale)))
		}
	}

	return &QConv2D{
		Weight:      qWeight,
		Bias:        qBias,
		WeightQP:    wqp,
		InputQP:     inputQP,
		OutputQP:    outputQP,
		WithReLU:    withReLU,
		InChannels:  inC,
		OutChannels: outC,
		KernelSize:  k,
		Stride:      stride,
		Padding:     padding,
	}, nil
}

// Forward convolves a uint8 input [batch, inChannels, h, w] and returns a
// uint8 output [batch, outChannels, hOut, wOut].
func (c *QConv2D) Forward(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	shape := x.Shape()
	if len(shape) != 4 || shape[1] != c.InChannels {
		return nil, fmt.Errorf("qconv2d: want input [N, %d, H, W], got shape %v", c.InChannels, shape)
	}
	batch, h, w := shape[0], shape[2], shape[3]
	k := c.KernelSize
	hOut := (h+2*c.Padding-k)/c.Stride + 1
	wOut := (w+2*c.Padding-k)/c.Stride + 1
	if hOut <= 0 || wOut <= 0 {
		return nil, fmt.Errorf("qconv2d: kernel %d does not fit input %dx%d with padding %d", k, h, w, c.Padding)
	}

	out := tensor.MustRaw(tensor.Shape{batch, c.OutChannels, hOut, wOut}, tensor.Uint8, x.Device())
	xData := x.AsUint8()
	wData := c.Weight.AsInt8()
	oData := out.AsUint8()

	inZP := c.InputQP.ZeroPoint
	multiplier := float64(c.InputQP.Scale) * float64(c.WeightQP.Scale) / float64(c.OutputQP.Scale)
	outZP := c.OutputQP.ZeroPoint

	outPlane := hOut * wOut
	parallel.ForBatch(batch, c.OutChannels, func(n, co int) {
		wBase := co * c.InChannels * k * k
		outBase := (n*c.OutChannels + co) * outPlane
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				acc := c.Bias[co]
				for ci := 0; ci < c.InChannels; ci++ {
					inBase := (n*c.InChannels + ci) * h * w
					wChan := wBase + ci*k*k
					for kh := 0; kh < k; kh++ {
						ih := oh*c.Stride + kh - c.Padding
						if ih < 0 || ih >= h {
							continue
						}
						for kw := 0; kw < k; kw++ {
							iw := ow*c.Stride + kw - c.Padding
							if iw < 0 || iw >= w {
								continue
							}
							xq := xData[inBase+ih*w+iw]
							wq := wData[wChan+kh*k+kw]
							acc += (int32(xq) - inZP) * int32(wq)
						}
					}
				}
				oData[outBase+oh*wOut+ow] = requantize(acc, multiplier, outZP, c.WithReLU)
			}
		}
	}, parallel.DefaultConfig())
	return out, nil
}

// MaxPool2DUint8 pools a uint8 NCHW tensor. Max pooling commutes with the
// monotonic dequantization map, so it runs directly on the quantized grid
// and preserves the input's quantization parameters.
func MaxPool2DUint8(x *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, error) {
	shape := x.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("maxpool: want 4D input, got shape %v", shape)
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		return nil, fmt.Errorf("maxpool: window %d does not fit input %dx%d", kernelSize, h, w)
	}

	out := tensor.MustRaw(tensor.Shape{n, c, hOut, wOut}, tensor.Uint8, x.Device())
	xData := x.AsUint8()
	oData := out.AsUint8()

	idx := 0
	for nIdx := 0; nIdx < n; nIdx++ {
		for cIdx := 0; cIdx < c; cIdx++ {
			base := (nIdx*c + cIdx) * h * w
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					best := xData[base+(oh*stride)*w+ow*stride]
					for kh := 0; kh < kernelSize; kh++ {
						row := base + (oh*stride+kh)*w
						for kw := 0; kw < kernelSize; kw++ {
							v := xData[row+ow*stride+kw]
							if v > best {
								best = v
							}
						}
					}
					oData[idx] = best
					idx++
				}
			}
		}
	}
	return out, nil
}
