// Package quant implements post-training static quantization and
// quantization-aware training support: observers that collect activation
// statistics, affine and symmetric quantization parameters, fake
// quantization for training, and int8 compute layers with int32
// accumulation.
//
// Activations use unsigned 8-bit affine quantization (range [0, 255]) and
// weights use signed 8-bit symmetric quantization (range [-127, 127], zero
// point 0), matching the usual per-tensor scheme for CPU inference.
package quant

import (
	"math"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Quantized integer ranges.
const (
	Uint8Min = 0
	Uint8Max = 255
	Int8Min  = -127
	Int8Max  = 127
)

// QParams maps float values to an integer grid: q = round(v/Scale) + ZeroPoint.
type QParams struct {
	Scale     float32 `json:"scale"`
	ZeroPoint int32   `json:"zero_point"`
}

// AffineParams derives uint8 quantization parameters covering [min, max].
// The range is widened to include zero so that zero is exactly
// representable, which keeps padding and ReLU cutoffs exact.
func AffineParams(min, max float32) QParams {
	if min > 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	if max == min {
		return QParams{Scale: 1, ZeroPoint: 0}
	}
	scale := (max - min) / float32(Uint8Max-Uint8Min)
	zp := int32(math.Round(float64(-min / scale)))
	if zp < Uint8Min {
		zp = Uint8Min
	} else if zp > Uint8Max {
		zp = Uint8Max
	}
	return QParams{Scale: scale, ZeroPoint: zp}
}

// SymmetricParams derives int8 quantization parameters for a symmetric
// range [-maxAbs, maxAbs] with zero point 0.
func SymmetricParams(maxAbs float32) QParams {
	if maxAbs == 0 {
		return QParams{Scale: 1, ZeroPoint: 0}
	}
	return QParams{Scale: maxAbs / float32(Int8Max), ZeroPoint: 0}
}

// QuantizeUint8 quantizes a float32 tensor to uint8 with affine parameters.
func QuantizeUint8(x *tensor.RawTensor, qp QParams) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), tensor.Uint8, x.Device())
	xData := x.AsFloat32()
	oData := out.AsUint8()
	for i, v := range xData {
		q := int32(math.Round(float64(v)/float64(qp.Scale))) + qp.ZeroPoint
		if q < Uint8Min {
			q = Uint8Min
		} else if q > Uint8Max {
			q = Uint8Max
		}
		oData[i] = uint8(q)
	}
	return out
}

// QuantizeInt8 quantizes a float32 tensor to int8 with symmetric parameters.
func QuantizeInt8(x *tensor.RawTensor, qp QParams) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), tensor.Int8, x.Device())
	xData := x.AsFloat32()
	oData := out.AsInt8()
	for i, v := range xData {
		q := int32(math.Round(float64(v) / float64(qp.Scale)))
		if q < Int8Min {
			q = Int8Min
		} else if q > Int8Max {
			q = Int8Max
		}
		oData[i] = int8(q)
	}
	return out
}

// DequantizeUint8 maps a uint8 tensor back to float32.
func DequantizeUint8(q *tensor.RawTensor, qp QParams) *tensor.RawTensor {
	out := tensor.MustRaw(q.Shape(), tensor.Float32, q.Device())
	qData := q.AsUint8()
	oData := out.AsFloat32()
	for i, v := range qData {
		oData[i] = float32(int32(v)-qp.ZeroPoint) * qp.Scale
	}
	return out
}

// DequantizeInt8 maps an int8 tensor back to float32.
func DequantizeInt8(q *tensor.RawTensor, qp QParams) *tensor.RawTensor {
	out := tensor.MustRaw(q.Shape(), tensor.Float32, q.Device())
	qData := q.AsInt8()
	oData := out.AsFloat32()
	for i, v := range qData {
		oData[i] = float32(int32(v)-qp.ZeroPoint) * qp.Scale
	}
	return out
}

// MaxAbs returns the largest absolute value in a float32 tensor.
func MaxAbs(x *tensor.RawTensor) float32 {
	var m float32
	for _, v := range x.AsFloat32() {
		a := v
		if a < 0 {
			a = -a
		}
		if a > m {
			m = a
		}
	}
	return m
}
