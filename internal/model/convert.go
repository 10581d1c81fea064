package model

import (
	"fmt"

	"github.com/munir2200963/edge-labs/internal/quant"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Prepare installs activation observers at every quantization boundary,
// switching the classifier into Calibration mode. Forward passes keep
// computing in floating point; the observers only record value ranges.
func (c *Classifier[B]) Prepare(qconfig quant.QConfig) {
	c.qconfig = qconfig
	c.mode = Calibration
	c.installBoundaries(false)
	c.wConv1, c.wConv2, c.wFC1, c.wFC2, c.wFC3 = nil, nil, nil, nil, nil
}

// PrepareQAT installs fake quantizers on activations and weights,
// switching the classifier into QAT mode. Every forward pass then trains
// against simulated int8 rounding.
func (c *Classifier[B]) PrepareQAT(qconfig quant.QConfig) {
	c.qconfig = qconfig
	c.mode = QAT
	c.installBoundaries(true)
	c.wConv1 = quant.NewFakeQuantizer(qconfig.Weight(), quant.SymmetricInt8, true)
	c.wConv2 = quant.NewFakeQuantizer(qconfig.Weight(), quant.SymmetricInt8, true)
	c.wFC1 = quant.NewFakeQuantizer(qconfig.Weight(), quant.SymmetricInt8, true)
	c.wFC2 = quant.NewFakeQuantizer(qconfig.Weight(), quant.SymmetricInt8, true)
	c.wFC3 = quant.NewFakeQuantizer(qconfig.Weight(), quant.SymmetricInt8, true)
}

func (c *Classifier[B]) installBoundaries(quantize bool) {
	mk := func() *quant.FakeQuantizer {
		return quant.NewFakeQuantizer(c.qconfig.Activation(), quant.AffineUint8, quantize)
	}
	c.stub = mk()
	c.actConv1 = mk()
	c.actConv2 = mk()
	c.actFC1 = mk()
	c.actFC2 = mk()
	c.actFC3 = mk()
}

// FreezeObservers stops all observer updates while keeping fake
// quantization active. Called late in QAT so the final epochs train
// against a fixed integer grid.
func (c *Classifier[B]) FreezeObservers() {
	for _, fq := range c.allBoundaries() {
		if fq != nil {
			fq.Freeze()
		}
	}
}

func (c *Classifier[B]) allBoundaries() []*quant.FakeQuantizer {
	return []*quant.FakeQuantizer{
		c.stub, c.actConv1, c.actConv2, c.actFC1, c.actFC2, c.actFC3,
		c.wConv1, c.wConv2, c.wFC1, c.wFC2, c.wFC3,
	}
}

// Calibrate runs forward passes over representative inputs purely to
// populate observer statistics. Weights are not updated. The classifier
// must be in Calibration or QAT mode.
func (c *Classifier[B]) Calibrate(batches []*tensor.Tensor[float32, B]) error {
	if c.mode == Float {
		return fmt.Errorf("calibrate: model is not prepared for quantization")
	}
	for _, batch := range batches {
		c.Forward(batch)
	}
	return nil
}

// Convert builds the integer model from the trained weights and the
// observer statistics. Adjacent conv+relu and linear+relu pairs are fused
// into single integer layers whose requantization clamp applies the
// rectifier. The float classifier is left unchanged.
func (c *Classifier[B]) Convert() (*QuantizedClassifier, error) {
	if c.mode == Float {
		return nil, fmt.Errorf("convert: model is not prepared for quantization")
	}
	if c.stub == nil {
		return nil, fmt.Errorf("convert: no observer state, call Prepare or PrepareQAT first")
	}

	inputQP := c.stub.QParams()
	qpConv1 := c.actConv1.QParams()
	qpConv2 := c.actConv2.QParams()
	qpFC1 := c.actFC1.QParams()
	qpFC2 := c.actFC2.QParams()
	qpFC3 := c.actFC3.QParams()

	conv1, err := quant.NewQConv2D(c.Conv1.Weight.Raw(), c.Conv1.Bias.Raw(), c.Conv1.Stride, c.Conv1.Padding, inputQP, qpConv1, c.qconfig.Weight(), true)
	if err != nil {
		return nil, fmt.Errorf("convert conv1: %w", err)
	}
	conv2, err := quant.NewQConv2D(c.Conv2.Weight.Raw(), c.Conv2.Bias.Raw(), c.Conv2.Stride, c.Conv2.Padding, qpConv1, qpConv2, c.qconfig.Weight(), true)
	if err != nil {
		return nil, fmt.Errorf("convert conv2: %w", err)
	}
	fc1, err := quant.NewQLinear(c.FC1.Weight.Raw(), c.FC1.Bias.Raw(), qpConv2, qpFC1, c.qconfig.Weight(), true)
	if err != nil {
		return nil, fmt.Errorf("convert fc1: %w", err)
	}
	fc2, err := quant.NewQLinear(c.FC2.Weight.Raw(), c.FC2.Bias.Raw(), qpFC1, qpFC2, c.qconfig.Weight(), true)
	if err != nil {
		return nil, fmt.Errorf("convert fc2: %w", err)
	}
	fc3, err := quant.NewQLinear(c.FC3.Weight.Raw(), c.FC3.Bias.Raw(), qpFC2, qpFC3, c.qconfig.Weight(), false)
	if err != nil {
		return nil, fmt.Errorf("convert fc3: %w", err)
	}

	return &QuantizedClassifier{
		InputQP:  inputQP,
		OutputQP: qpFC3,
		Conv1:    conv1,
		Conv2:    conv2,
		FC1:      fc1,
		FC2:      fc2,
		FC3:      fc3,
	}, nil
}
