package quant

import (
	"fmt"
	"math"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// QLinear is a fully connected layer computing entirely in integers:
// uint8 activations, int8 weights, int32 accumulation, then requantization
// to uint8 output. When WithReLU is set the rectifier is fused into the
// requantization clamp.
type QLinear struct {
	Weight   *tensor.RawTensor // int8, [outFeatures, inFeatures]
	Bias     []int32           // quantized at InputQP.Scale * WeightQP.Scale
	WeightQP QParams
	InputQP  QParams
	OutputQP QParams
	WithReLU bool

	InFeatures  int
	OutFeatures int
}

// NewQLinear quantizes a float32 weight matrix [outFeatures, inFeatures]
// and bias (one value per output feature) into an integer linear layer.
func NewQLinear(weight, bias *tensor.RawTensor, inputQP, outputQP QParams, weightObs Observer, withReLU bool) (*QLinear, error) {
	shape := weight.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("qlinear: weight must be 2D, got shape %v", shape)
	}
	outF, inF := shape[0], shape[1]

	weightObs.Observe(weight.AsFloat32())
	wqp := weightObs.QParams()
	qWeight := QuantizeInt8(weight, wqp)

	qBias := make([]int32, outF)
	if bias != nil {
		bData := bias.AsFloat32()
		if len(bData) != outF {
			return nil, fmt.Errorf("qlinear: bias has %d values for %d output features", len(bData), outF)
		}
		biasScale := inputQP.Scale * wqp.Scale
		for i, v := range bData {
			qBias[i] = int32(math.Round(float64(v) / float64(biasScale)))
		}
	}

	return &QLinear{
		Weight:      qWeight,
		Bias:        qBias,
		WeightQP:    wqp,
		InputQP:     inputQP,
		OutputQP:    outputQP,
		WithReLU:    withReLU,
		InFeatures:  inF,
		OutFeatures: outF,
	}, nil
}

// Forward computes the layer for a uint8 input [batch, inFeatures] and
// returns a uint8 output [batch, outFeatures].
func (l *QLinear) Forward(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != l.InFeatures {
		return nil, fmt.Errorf("qlinear: want input [N, %d], got shape %v", l.InFeatures, shape)
	}
	batch := shape[0]

	out := tensor.MustRaw(tensor.Shape{batch, l.OutFeatures}, tensor.Uint8, x.Device())
	xData := x.AsUint8()
	wData := l.Weight.AsInt8()
	oData := out.AsUint8()

	inZP := l.InputQP.ZeroPoint
	multiplier := float64(l.InputQP.Scale) * float64(l.WeightQP.Scale) / float64(l.OutputQP.Scale)
	outZP := l.OutputQP.ZeroPoint

	for n := 0; n < batch; n++ {
		xRow := xData[n*l.InFeatures : (n+1)*l.InFeatures]
		oRow := oData[n*l.OutFeatures : (n+1)*l.OutFeatures]
		for o := 0; o < l.OutFeatures; o++ {
			wRow := wData[o*l.InFeatures : (o+1)*l.InFeatures]
			acc := l.Bias[o]
			for i, xq := range xRow {
				acc += (int32(xq) - inZP) * int32(wRow[i])
			}
			oRow[o] = requantize(acc, multiplier, outZP, l.WithReLU)
		}
	}
	return out, nil
}

// requantize rescales an int32 accumulator to the uint8 output grid. With
// fused ReLU the result is clamped at the output zero point, which is the
// quantized representation of 0.
func requantize(acc int32, multiplier float64, outZP int32, withReLU bool) uint8 {
	q := int32(math.Round(float64(acc)*multiplier)) + outZP
	lo := int32(Uint8Min)
	if withReLU && outZP > lo {
		lo = outZP
	}
	if q < lo {
		q = lo
	} else if q > Uint8Max {
		q = Uint8Max
	}
	return uint8(q)
}
