package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munir2200963/edge-labs/internal/autodiff"
	"github.com/munir2200963/edge-labs/internal/backend/cpu"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() Backend {
	return autodiff.New(cpu.New())
}

func TestLinear_Forward(t *testing.T) {
	backend := newBackend()
	layer := NewLinear("fc", 3, 2, rand.New(rand.NewSource(1)), backend)

	// Fix the weights so the output is hand-checkable.
	copy(layer.Weight.Raw().AsFloat32(), []float32{
		1, 0, 0,
		0, 1, 1,
	})
	copy(layer.Bias.Raw().AsFloat32(), []float32{10, 20})

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	out := layer.Forward(x)
	require.True(t, out.Shape().Equal(tensor.Shape{1, 2}))
	assert.InDelta(t, 11.0, float64(out.At(0, 0)), 1e-5)
	assert.InDelta(t, 25.0, float64(out.At(0, 1)), 1e-5)
}

func TestLinear_Parameters(t *testing.T) {
	backend := newBackend()
	layer := NewLinear("fc1", 4, 2, rand.New(rand.NewSource(1)), backend)

	params := layer.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "fc1.weight", params[0].Name)
	assert.Equal(t, "fc1.bias", params[1].Name)
	assert.True(t, params[0].Value.Shape().Equal(tensor.Shape{2, 4}))
	assert.True(t, params[1].Value.Shape().Equal(tensor.Shape{1, 2}))
}

func TestConv2D_ForwardShape(t *testing.T) {
	backend := newBackend()
	layer := NewConv2D("conv1", 1, 6, 5, 1, 2, rand.New(rand.NewSource(1)), backend)

	x := tensor.Zeros[float32](tensor.Shape{2, 1, 28, 28}, backend)
	out := layer.Forward(x)
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 6, 28, 28}), "got %v", out.Shape())
}

func TestConv2D_BiasApplied(t *testing.T) {
	backend := newBackend()
	layer := NewConv2D("conv", 1, 1, 1, 1, 0, rand.New(rand.NewSource(1)), backend)

	copy(layer.Weight.Raw().AsFloat32(), []float32{0})
	copy(layer.Bias.Raw().AsFloat32(), []float32{3})

	x := tensor.Zeros[float32](tensor.Shape{1, 1, 2, 2}, backend)
	out := layer.Forward(x)
	for _, v := range out.Data() {
		assert.InDelta(t, 3.0, float64(v), 1e-6)
	}
}

func TestMaxPool2D_Forward(t *testing.T) {
	backend := newBackend()
	layer := NewMaxPool2D[Backend](2, 2)

	x, err := tensor.FromSlice([]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, tensor.Shape{1, 1, 4, 4}, backend)
	require.NoError(t, err)

	out := layer.Forward(x)
	require.True(t, out.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{6, 8, 14, 16}, out.Data())
}

func TestReLU_Forward(t *testing.T) {
	backend := newBackend()
	layer := NewReLU[Backend]()

	x, err := tensor.FromSlice([]float32{-1, 0, 2}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	out := layer.Forward(x)
	assert.Equal(t, []float32{0, 0, 2}, out.Data())
}

func TestKaimingUniform_Bounds(t *testing.T) {
	backend := newBackend()
	fanIn := 25
	w := KaimingUniform(tensor.Shape{6, 1, 5, 5}, fanIn, rand.New(rand.NewSource(7)), backend)

	limit := float32(math.Sqrt(6.0 / float64(fanIn)))
	var nonZero bool
	for _, v := range w.Data() {
		assert.LessOrEqual(t, v, limit)
		assert.GreaterOrEqual(t, v, -limit)
		if v != 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero, "initialization produced all zeros")
}

func TestXavierUniform_Bounds(t *testing.T) {
	backend := newBackend()
	fanIn, fanOut := 120, 84
	w := XavierUniform(tensor.Shape{84, 120}, fanIn, fanOut, rand.New(rand.NewSource(7)), backend)

	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	for _, v := range w.Data() {
		assert.LessOrEqual(t, v, limit)
		assert.GreaterOrEqual(t, v, -limit)
	}
}

func TestInit_Deterministic(t *testing.T) {
	backend := newBackend()
	a := KaimingUniform(tensor.Shape{4, 4}, 4, rand.New(rand.NewSource(3)), backend)
	b := KaimingUniform(tensor.Shape{4, 4}, 4, rand.New(rand.NewSource(3)), backend)
	assert.Equal(t, a.Data(), b.Data())
}

func TestCrossEntropyLoss_GradientFlow(t *testing.T) {
	backend := newBackend()
	loss := NewCrossEntropyLoss[Backend]()

	logits, err := tensor.FromSlice([]float32{1, -1, 0.5, 2}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]int64{0, 1}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	l, err := loss.Forward(logits, targets)
	backend.Tape().StopRecording()
	require.NoError(t, err)
	require.True(t, l.Shape().Equal(tensor.Shape{1}))
	assert.Greater(t, l.Item(), float32(0))

	grads, err := backend.Tape().Backward(l.Raw(), backend.Inner())
	require.NoError(t, err)
	g, ok := grads[logits.Raw()]
	require.True(t, ok, "no gradient reached the logits")

	// Softmax minus one-hot: each row sums to zero.
	data := g.AsFloat32()
	for r := 0; r < 2; r++ {
		assert.InDelta(t, 0.0, float64(data[r*2]+data[r*2+1]), 1e-5)
	}
}

func TestCorrectAndAccuracy(t *testing.T) {
	backend := newBackend()
	logits, err := tensor.FromSlice([]float32{
		5, 0, 0,
		0, 5, 0,
		0, 0, 5,
		5, 0, 0,
	}, tensor.Shape{4, 3}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]int64{0, 1, 2, 1}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	assert.Equal(t, 3, Correct(logits, targets))
	assert.InDelta(t, 0.75, Accuracy(logits, targets), 1e-9)
}
