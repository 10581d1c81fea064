package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munir2200963/edge-labs/internal/backend/cpu"
	"github.com/munir2200963/edge-labs/internal/quant"
	"github.com/munir2200963/edge-labs/internal/serialization"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

func randomImages(t *testing.T, n int, rng *rand.Rand, backend *cpu.CPUBackend) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	data := make([]float32, n*InputChannels*InputSize*InputSize)
	for i := range data {
		data[i] = rng.Float32()
	}
	x, err := tensor.FromSlice(data, tensor.Shape{n, InputChannels, InputSize, InputSize}, backend)
	require.NoError(t, err)
	return x
}

func TestClassifier_ForwardShape(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))
	m := NewClassifier(rng, backend)

	out := m.Forward(randomImages(t, 2, rng, backend))
	assert.True(t, out.Shape().Equal(tensor.Shape{2, NumClasses}), "got %v", out.Shape())
	assert.Equal(t, Float, m.Mode())
}

func TestClassifier_ParameterCount(t *testing.T) {
	backend := cpu.New()
	m := NewClassifier(rand.New(rand.NewSource(1)), backend)

	params := m.Parameters()
	require.Len(t, params, 10)

	var total int
	for _, p := range params {
		total += p.Value.NumElements()
	}
	// conv1 6*1*5*5+6, conv2 16*6*5*5+16, fc1 120*256+120,
	// fc2 84*120+84, fc3 10*84+10.
	assert.Equal(t, 44426, total)
}

func TestClassifier_CalibrationPreservesOutputs(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(2))
	m := NewClassifier(rng, backend)
	x := randomImages(t, 2, rng, backend)

	before := append([]float32(nil), m.Forward(x).Data()...)

	m.Prepare(quant.DefaultQConfig())
	assert.Equal(t, Calibration, m.Mode())

	// Observation points only record ranges; the math is unchanged.
	after := m.Forward(x).Data()
	assert.Equal(t, before, after)
}

func TestClassifier_CalibrateRequiresPrepare(t *testing.T) {
	backend := cpu.New()
	m := NewClassifier(rand.New(rand.NewSource(1)), backend)

	err := m.Calibrate(nil)
	assert.Error(t, err)

	_, err = m.Convert()
	assert.Error(t, err)
}

func TestClassifier_PTQPipeline(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(3))
	m := NewClassifier(rng, backend)

	m.Prepare(quant.DefaultQConfig())
	batches := []*tensor.Tensor[float32, *cpu.CPUBackend]{
		randomImages(t, 4, rng, backend),
		randomImages(t, 4, rng, backend),
	}
	require.NoError(t, m.Calibrate(batches))

	q, err := m.Convert()
	require.NoError(t, err)

	x := batches[0]
	qOut, err := q.Forward(x.Raw())
	require.NoError(t, err)
	require.True(t, qOut.Shape().Equal(tensor.Shape{4, NumClasses}), "got %v", qOut.Shape())

	// The integer model tracks the float model within quantization noise.
	fOut := m.Forward(x).Data()
	qData := qOut.AsFloat32()
	var maxAbs, meanErr float64
	for i := range fOut {
		if a := math.Abs(float64(fOut[i])); a > maxAbs {
			maxAbs = a
		}
		meanErr += math.Abs(float64(qData[i] - fOut[i]))
	}
	meanErr /= float64(len(fOut))
	assert.Less(t, meanErr, 0.25*maxAbs+0.05, "mean error %f vs max score %f", meanErr, maxAbs)
}

func TestQuantizedClassifier_Deterministic(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(4))
	m := NewClassifier(rng, backend)
	m.Prepare(quant.DefaultQConfig())
	x := randomImages(t, 3, rng, backend)
	require.NoError(t, m.Calibrate([]*tensor.Tensor[float32, *cpu.CPUBackend]{x}))
	q, err := m.Convert()
	require.NoError(t, err)

	first, err := q.Forward(x.Raw())
	require.NoError(t, err)
	second, err := q.Forward(x.Raw())
	require.NoError(t, err)

	// Integer inference is bit-exact across runs, including the
	// parallelized convolutions.
	assert.Equal(t, first.AsFloat32(), second.AsFloat32())
}

func TestClassifier_QATForward(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(5))
	m := NewClassifier(rng, backend)
	x := randomImages(t, 2, rng, backend)

	floatOut := append([]float32(nil), m.Forward(x).Data()...)

	m.PrepareQAT(quant.QATQConfig())
	assert.Equal(t, QAT, m.Mode())

	qatOut := m.Forward(x).Data()
	require.Len(t, qatOut, len(floatOut))

	// Fake quantization rounds activations, so outputs move slightly but
	// stay close.
	var differs bool
	for i := range floatOut {
		if qatOut[i] != floatOut[i] {
			differs = true
		}
		assert.InDelta(t, float64(floatOut[i]), float64(qatOut[i]), 0.5)
	}
	assert.True(t, differs, "fake quantization had no effect")
}

func TestClassifier_FreezeObservers(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(6))
	m := NewClassifier(rng, backend)
	m.PrepareQAT(quant.QATQConfig())

	m.Forward(randomImages(t, 2, rng, backend))
	m.FreezeObservers()
	before := m.stub.QParams()

	// Feed wildly different data; frozen observers must not move.
	big := tensor.Full[float32](tensor.Shape{1, InputChannels, InputSize, InputSize}, 50, backend)
	m.Forward(big)
	assert.Equal(t, before, m.stub.QParams())
}

func TestClassifier_StateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	src := NewClassifier(rand.New(rand.NewSource(7)), backend)
	dst := NewClassifier(rand.New(rand.NewSource(8)), backend)

	blob, err := serialization.Marshal(FloatModelType, src.StateDict(), nil, false)
	require.NoError(t, err)
	_, entries, err := serialization.Unmarshal(blob)
	require.NoError(t, err)
	require.NoError(t, dst.LoadStateDict(entries))

	rng := rand.New(rand.NewSource(9))
	x := randomImages(t, 2, rng, backend)
	assert.Equal(t, src.Forward(x).Data(), dst.Forward(x).Data())
}

func TestClassifier_LoadStateDictRejectsUnknown(t *testing.T) {
	backend := cpu.New()
	m := NewClassifier(rand.New(rand.NewSource(1)), backend)

	bogus, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	err = m.LoadStateDict([]serialization.Entry{{Name: "nope.weight", Raw: bogus}})
	assert.Error(t, err)
}

func TestClassifier_LoadStateDictRejectsShapeMismatch(t *testing.T) {
	backend := cpu.New()
	m := NewClassifier(rand.New(rand.NewSource(1)), backend)

	wrong, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	err = m.LoadStateDict([]serialization.Entry{{Name: "conv1.weight", Raw: wrong}})
	assert.Error(t, err)
}

func TestQuantized_StateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(10))
	m := NewClassifier(rng, backend)
	m.Prepare(quant.DefaultQConfig())
	x := randomImages(t, 2, rng, backend)
	require.NoError(t, m.Calibrate([]*tensor.Tensor[float32, *cpu.CPUBackend]{x}))
	q, err := m.Convert()
	require.NoError(t, err)

	entries, meta, err := q.StateDict()
	require.NoError(t, err)
	blob, err := serialization.Marshal(QuantizedModelType, entries, meta, true)
	require.NoError(t, err)

	header, gotEntries, err := serialization.Unmarshal(blob)
	require.NoError(t, err)
	assert.Equal(t, QuantizedModelType, header.ModelType)

	loaded, err := LoadQuantized(header, gotEntries)
	require.NoError(t, err)
	assert.Equal(t, q.InputQP, loaded.InputQP)
	assert.Equal(t, q.Conv1.Stride, loaded.Conv1.Stride)
	assert.Equal(t, q.FC3.WithReLU, loaded.FC3.WithReLU)

	want, err := q.Forward(x.Raw())
	require.NoError(t, err)
	got, err := loaded.Forward(x.Raw())
	require.NoError(t, err)
	assert.Equal(t, want.AsFloat32(), got.AsFloat32())
}

func TestLoadQuantized_MissingMetadata(t *testing.T) {
	header := &serialization.Header{Metadata: nil}
	_, err := LoadQuantized(header, nil)
	assert.Error(t, err)
}

func TestSizeOnDisk_QuantizedSmaller(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(12))
	m := NewClassifier(rng, backend)
	m.Prepare(quant.DefaultQConfig())
	require.NoError(t, m.Calibrate([]*tensor.Tensor[float32, *cpu.CPUBackend]{randomImages(t, 2, rng, backend)}))
	q, err := m.Convert()
	require.NoError(t, err)

	floatSize, err := m.SizeOnDisk()
	require.NoError(t, err)
	qSize, err := q.SizeOnDisk()
	require.NoError(t, err)

	// int8 weights cut the payload to roughly a quarter.
	assert.Less(t, qSize, floatSize/3)
}
