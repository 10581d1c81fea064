package model

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/munir2200963/edge-labs/internal/quant"
	"github.com/munir2200963/edge-labs/internal/serialization"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Model type tags stored in blob headers.
const (
	FloatModelType     = "mnist-classifier"
	QuantizedModelType = "mnist-classifier-int8"
)

// quantMetadataKey holds the serialized quantization parameters in a
// quantized blob's metadata map.
const quantMetadataKey = "quantization"

// StateDict returns the float model's parameters as ordered entries.
func (c *Classifier[B]) StateDict() []serialization.Entry {
	params := c.Parameters()
	entries := make([]serialization.Entry, 0, len(params))
	for _, p := range params {
		entries = append(entries, serialization.Entry{Name: p.Name, Raw: p.Raw()})
	}
	return entries
}

// LoadStateDict copies saved parameters into the model. Every entry must
// match an existing parameter in name, dtype and shape.
func (c *Classifier[B]) LoadStateDict(entries []serialization.Entry) error {
	byName := make(map[string]*tensor.RawTensor)
	for _, p := range c.Parameters() {
		byName[p.Name] = p.Raw()
	}
	for _, e := range entries {
		dst, ok := byName[e.Name]
		if !ok {
			return errors.Errorf("unknown parameter %q", e.Name)
		}
		if !dst.Shape().Equal(e.Raw.Shape()) || dst.DType() != e.Raw.DType() {
			return errors.Errorf("parameter %q: have %s%v, blob has %s%v",
				e.Name, dst.DType(), dst.Shape(), e.Raw.DType(), e.Raw.Shape())
		}
		copy(dst.Data(), e.Raw.Data())
	}
	return nil
}

// layerQuantMeta captures the quantization parameters of one integer layer.
type layerQuantMeta struct {
	Weight   quant.QParams `json:"weight"`
	Input    quant.QParams `json:"input"`
	Output   quant.QParams `json:"output"`
	WithReLU bool          `json:"with_relu"`
	Stride   int           `json:"stride,omitempty"`
	Padding  int           `json:"padding,omitempty"`
}

type quantMeta struct {
	Input  quant.QParams             `json:"input"`
	Output quant.QParams             `json:"output"`
	Layers map[string]layerQuantMeta `json:"layers"`
}

// StateDict returns the integer model's weights and biases as ordered
// entries plus a metadata map carrying the quantization parameters needed
// to reconstruct the model.
func (q *QuantizedClassifier) StateDict() ([]serialization.Entry, map[string]string, error) {
	var entries []serialization.Entry
	meta := quantMeta{
		Input:  q.InputQP,
		Output: q.OutputQP,
		Layers: make(map[string]layerQuantMeta),
	}

	for _, l := range []struct {
		name string
		conv *quant.QConv2D
	}{{"conv1", q.Conv1}, {"conv2", q.Conv2}} {
		entries = append(entries,
			serialization.Entry{Name: l.name + ".weight", Raw: l.conv.Weight},
			serialization.Entry{Name: l.name + ".bias", Raw: int32Tensor(l.conv.Bias)},
		)
		meta.Layers[l.name] = layerQuantMeta{
			Weight:   l.conv.WeightQP,
			Input:    l.conv.InputQP,
			Output:   l.conv.OutputQP,
			WithReLU: l.conv.WithReLU,
			Stride:   l.conv.Stride,
			Padding:  l.conv.Padding,
		}
	}
	for _, l := range []struct {
		name string
		fc   *quant.QLinear
	}{{"fc1", q.FC1}, {"fc2", q.FC2}, {"fc3", q.FC3}} {
		entries = append(entries,
			serialization.Entry{Name: l.name + ".weight", Raw: l.fc.Weight},
			serialization.Entry{Name: l.name + ".bias", Raw: int32Tensor(l.fc.Bias)},
		)
		meta.Layers[l.name] = layerQuantMeta{
			Weight:   l.fc.WeightQP,
			Input:    l.fc.InputQP,
			Output:   l.fc.OutputQP,
			WithReLU: l.fc.WithReLU,
		}
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshaling quantization metadata")
	}
	return entries, map[string]string{quantMetadataKey: string(metaJSON)}, nil
}

// LoadQuantized reconstructs an integer model from a blob's header and
// entries.
func LoadQuantized(header *serialization.Header, entries []serialization.Entry) (*QuantizedClassifier, error) {
	metaJSON, ok := header.Metadata[quantMetadataKey]
	if !ok {
		return nil, errors.New("blob has no quantization metadata")
	}
	var meta quantMeta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, errors.Wrap(err, "parsing quantization metadata")
	}

	byName := make(map[string]*tensor.RawTensor, len(entries))
	for _, e := range entries {
		byName[e.Name] = e.Raw
	}

	q := &QuantizedClassifier{InputQP: meta.Input, OutputQP: meta.Output}
	for _, l := range []struct {
		name string
		dst  **quant.QConv2D
	}{{"conv1", &q.Conv1}, {"conv2", &q.Conv2}} {
		lm, conv, err := loadLayer(l.name, meta, byName)
		if err != nil {
			return nil, err
		}
		shape := conv.weight.Shape()
		*l.dst = &quant.QConv2D{
			Weight:      conv.weight,
			Bias:        conv.bias,
			WeightQP:    lm.Weight,
			InputQP:     lm.Input,
			OutputQP:    lm.Output,
			WithReLU:    lm.WithReLU,
			InChannels:  shape[1],
			OutChannels: shape[0],
			KernelSize:  shape[2],
			Stride:      lm.Stride,
			Padding:     lm.Padding,
		}
	}
	for _, l := range []struct {
		name string
		dst  **quant.QLinear
	}{{"fc1", &q.FC1}, {"fc2", &q.FC2}, {"fc3", &q.FC3}} {
		lm, fc, err := loadLayer(l.name, meta, byName)
		if err != nil {
			return nil, err
		}
		shape := fc.weight.Shape()
		*l.dst = &quant.QLinear{
			Weight:      fc.weight,
			Bias:        fc.bias,
			WeightQP:    lm.Weight,
			InputQP:     lm.Input,
			OutputQP:    lm.Output,
			WithReLU:    lm.WithReLU,
			InFeatures:  shape[1],
			OutFeatures: shape[0],
		}
	}
	return q, nil
}

type loadedLayer struct {
	weight *tensor.RawTensor
	bias   []int32
}

func loadLayer(name string, meta quantMeta, byName map[string]*tensor.RawTensor) (layerQuantMeta, loadedLayer, error) {
	lm, ok := meta.Layers[name]
	if !ok {
		return lm, loadedLayer{}, errors.Errorf("no quantization metadata for layer %q", name)
	}
	weight, ok := byName[name+".weight"]
	if !ok {
		return lm, loadedLayer{}, errors.Errorf("blob is missing %s.weight", name)
	}
	if weight.DType() != tensor.Int8 {
		return lm, loadedLayer{}, errors.Errorf("%s.weight: want int8, got %s", name, weight.DType())
	}
	bias, ok := byName[name+".bias"]
	if !ok {
		return lm, loadedLayer{}, errors.Errorf("blob is missing %s.bias", name)
	}
	if bias.DType() != tensor.Int32 {
		return lm, loadedLayer{}, errors.Errorf("%s.bias: want int32, got %s", name, bias.DType())
	}
	biasVals := make([]int32, bias.NumElements())
	copy(biasVals, bias.AsInt32())
	return lm, loadedLayer{weight: weight, bias: biasVals}, nil
}

func int32Tensor(values []int32) *tensor.RawTensor {
	raw := tensor.MustRaw(tensor.Shape{len(values)}, tensor.Int32, tensor.CPU)
	copy(raw.AsInt32(), values)
	return raw
}

// SizeOnDisk serializes the float model to a temporary file and reports
// its byte size.
func (c *Classifier[B]) SizeOnDisk() (int64, error) {
	return serialization.MeasureSize(FloatModelType, c.StateDict(), false)
}

// SizeOnDisk serializes the integer model to a temporary file and reports
// its byte size.
func (q *QuantizedClassifier) SizeOnDisk() (int64, error) {
	entries, _, err := q.StateDict()
	if err != nil {
		return 0, fmt.Errorf("building state dict: %w", err)
	}
	return serialization.MeasureSize(QuantizedModelType, entries, true)
}
