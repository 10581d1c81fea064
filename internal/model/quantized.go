package model

import (
	"fmt"

	"github.com/munir2200963/edge-labs/internal/quant"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// QuantizedClassifier is the converted integer model. Activations flow
// through it as uint8 tensors; only the outermost boundaries touch float:
// the input is quantized once and the final scores are dequantized once.
type QuantizedClassifier struct {
	InputQP  quant.QParams
	OutputQP quant.QParams

	Conv1 *quant.QConv2D
	Conv2 *quant.QConv2D
	FC1   *quant.QLinear
	FC2   *quant.QLinear
	FC3   *quant.QLinear
}

// Forward computes float32 class scores for a float32 [batch, 1, 28, 28]
// input. Internally every layer runs in int8/uint8 with int32
// accumulation.
func (q *QuantizedClassifier) Forward(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	cur := quant.QuantizeUint8(x, q.InputQP)

	cur, err := q.Conv1.Forward(cur)
	if err != nil {
		return nil, fmt.Errorf("conv1: %w", err)
	}
	cur, err = quant.MaxPool2DUint8(cur, PoolSize, PoolSize)
	if err != nil {
		return nil, fmt.Errorf("pool1: %w", err)
	}
	cur, err = q.Conv2.Forward(cur)
	if err != nil {
		return nil, fmt.Errorf("conv2: %w", err)
	}
	cur, err = quant.MaxPool2DUint8(cur, PoolSize, PoolSize)
	if err != nil {
		return nil, fmt.Errorf("pool2: %w", err)
	}

	batch := cur.Shape()[0]
	cur = cur.WithShape(tensor.Shape{batch, FlatFeatures})

	cur, err = q.FC1.Forward(cur)
	if err != nil {
		return nil, fmt.Errorf("fc1: %w", err)
	}
	cur, err = q.FC2.Forward(cur)
	if err != nil {
		return nil, fmt.Errorf("fc2: %w", err)
	}
	cur, err = q.FC3.Forward(cur)
	if err != nil {
		return nil, fmt.Errorf("fc3: %w", err)
	}

	return quant.DequantizeUint8(cur, q.OutputQP), nil
}
