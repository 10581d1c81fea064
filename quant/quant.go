// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package quant is the public API for quantization: observers, fake
// quantization and the integer compute layers.
package quant

import (
	"github.com/munir2200963/edge-labs/internal/quant"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// QParams maps float values to an integer grid.
type QParams = quant.QParams

// Observer accumulates activation statistics during calibration.
type Observer = quant.Observer

// ObserverFactory constructs a fresh observer.
type ObserverFactory = quant.ObserverFactory

// QConfig pairs activation and weight observers.
type QConfig = quant.QConfig

// FakeQuantizer simulates quantization of one tensor during training.
type FakeQuantizer = quant.FakeQuantizer

// Scheme selects the integer grid a FakeQuantizer simulates.
type Scheme = quant.Scheme

// Quantization schemes.
const (
	AffineUint8   Scheme = quant.AffineUint8
	SymmetricInt8 Scheme = quant.SymmetricInt8
)

// QConv2D is an integer 2D convolution.
type QConv2D = quant.QConv2D

// QLinear is an integer fully connected layer.
type QLinear = quant.QLinear

// DefaultQConfig uses min/max observation for activations.
func DefaultQConfig() QConfig { return quant.DefaultQConfig() }

// HistogramQConfig uses histogram-based clip selection for activations.
func HistogramQConfig() QConfig { return quant.HistogramQConfig() }

// QATQConfig uses moving average min/max observation for activations.
func QATQConfig() QConfig { return quant.QATQConfig() }

// NewMinMaxObserver creates a min/max observer.
func NewMinMaxObserver() Observer { return quant.NewMinMaxObserver() }

// NewMovingAverageMinMaxObserver creates a moving average observer.
func NewMovingAverageMinMaxObserver(avgConst float32) Observer {
	return quant.NewMovingAverageMinMaxObserver(avgConst)
}

// NewHistogramObserver creates a histogram observer.
func NewHistogramObserver() Observer { return quant.NewHistogramObserver() }

// NewQLinear quantizes a float32 weight matrix and bias into an integer
// linear layer.
func NewQLinear(weight, bias *tensor.RawTensor, inputQP, outputQP QParams, weightObs Observer, withReLU bool) (*QLinear, error) {
	return quant.NewQLinear(weight, bias, inputQP, outputQP, weightObs, withReLU)
}

// NewQConv2D quantizes a float32 kernel and bias into an integer
// convolution.
func NewQConv2D(weight, bias *tensor.RawTensor, stride, padding int, inputQP, outputQP QParams, weightObs Observer, withReLU bool) (*QConv2D, error) {
	return quant.NewQConv2D(weight, bias, stride, padding, inputQP, outputQP, weightObs, withReLU)
}

// AffineParams derives uint8 parameters covering [min, max].
func AffineParams(min, max float32) QParams { return quant.AffineParams(min, max) }

// SymmetricParams derives int8 parameters for [-maxAbs, maxAbs].
func SymmetricParams(maxAbs float32) QParams { return quant.SymmetricParams(maxAbs) }

// QuantizeUint8 quantizes a float32 tensor to uint8.
func QuantizeUint8(x *tensor.RawTensor, qp QParams) *tensor.RawTensor {
	return quant.QuantizeUint8(x, qp)
}

// QuantizeInt8 quantizes a float32 tensor to int8.
func QuantizeInt8(x *tensor.RawTensor, qp QParams) *tensor.RawTensor {
	return quant.QuantizeInt8(x, qp)
}

// DequantizeUint8 maps a uint8 tensor back to float32.
func DequantizeUint8(q *tensor.RawTensor, qp QParams) *tensor.RawTensor {
	return quant.DequantizeUint8(q, qp)
}

// DequantizeInt8 maps an int8 tensor back to float32.
func DequantizeInt8(q *tensor.RawTensor, qp QParams) *tensor.RawTensor {
	return quant.DequantizeInt8(q, qp)
}
