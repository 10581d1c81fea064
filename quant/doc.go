// Copyright 2026 Edge Labs. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package quant provides int8 quantization: observers, fake quantization
// and integer compute layers.
//
// # Overview
//
// Activations quantize to affine uint8 and weights to symmetric int8. The
// pieces compose into two flows:
//   - Post-training static quantization: attach observers, run calibration
//     data through the float model, derive QParams, build QLinear/QConv2D.
//   - Quantization-aware training: FakeQuantizer simulates the integer grid
//     during training with a straight-through-estimator gradient.
//
// # Observers
//
// An Observer accumulates the numeric range of a tensor stream and derives
// quantization parameters from it:
//
//	obs := quant.NewHistogramObserver()
//	obs.Observe(activations.Data())
//	qp := obs.QParams()
//
// MinMax tracks the exact range, MovingAverageMinMax smooths it across
// batches, Histogram searches for the clip range minimizing quantization
// error. QConfig pairs an activation observer factory with a weight
// observer factory.
//
// # Integer layers
//
// QLinear and QConv2D hold int8 weights and int32 bias, accumulate in
// int32 and requantize to uint8, optionally applying a fused ReLU in the
// quantized domain.
package quant
