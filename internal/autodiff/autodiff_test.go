package autodiff_test

import (
	"math"
	"testing"

	"github.com/munir2200963/edge-labs/internal/autodiff"
	"github.com/munir2200963/edge-labs/internal/backend/cpu"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

func floatEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func raw(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(r.AsFloat32(), data)
	return r
}

// scalarize sums every element so the tape can seed the backward pass with
// d(loss)/d(loss) = 1.
func scalarize(backend *autodiff.AutodiffBackend[*cpu.CPUBackend], x *tensor.RawTensor) *tensor.RawTensor {
	return backend.Sum(x)
}

func TestBackward_Add(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a := raw(t, []float32{1, 2}, tensor.Shape{2})
	b := raw(t, []float32{3, 4}, tensor.Shape{2})

	backend.Tape().StartRecording()
	out := backend.Add(a, b)
	loss := scalarize(backend, out)
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	for _, in := range []*tensor.RawTensor{a, b} {
		g, ok := grads[in]
		if !ok {
			t.Fatal("missing gradient for input")
		}
		for i, v := range g.AsFloat32() {
			if !floatEqual(v, 1) {
				t.Errorf("grad[%d] = %f, want 1", i, v)
			}
		}
	}
}

func TestBackward_Mul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a := raw(t, []float32{2, 3}, tensor.Shape{2})
	b := raw(t, []float32{5, 7}, tensor.Shape{2})

	backend.Tape().StartRecording()
	loss := scalarize(backend, backend.Mul(a, b))
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// d(a*b)/da = b, d(a*b)/db = a.
	ga, gb := grads[a].AsFloat32(), grads[b].AsFloat32()
	if !floatEqual(ga[0], 5) || !floatEqual(ga[1], 7) {
		t.Errorf("grad a = %v, want [5 7]", ga)
	}
	if !floatEqual(gb[0], 2) || !floatEqual(gb[1], 3) {
		t.Errorf("grad b = %v, want [2 3]", gb)
	}
}

func TestBackward_Div(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a := raw(t, []float32{6}, tensor.Shape{1})
	b := raw(t, []float32{2}, tensor.Shape{1})

	backend.Tape().StartRecording()
	loss := backend.Div(a, b)
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// d(a/b)/da = 1/b, d(a/b)/db = -a/b^2.
	if !floatEqual(grads[a].AsFloat32()[0], 0.5) {
		t.Errorf("grad a = %f, want 0.5", grads[a].AsFloat32()[0])
	}
	if !floatEqual(grads[b].AsFloat32()[0], -1.5) {
		t.Errorf("grad b = %f, want -1.5", grads[b].AsFloat32()[0])
	}
}

func TestBackward_BroadcastReduces(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := raw(t, []float32{1, 1, 1}, tensor.Shape{1, 3})

	backend.Tape().StartRecording()
	loss := scalarize(backend, backend.Add(a, bias))
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	g := grads[bias]
	if !g.Shape().Equal(tensor.Shape{1, 3}) {
		t.Fatalf("bias grad shape = %v, want [1 3]", g.Shape())
	}
	// The broadcast dimension sums: two rows contribute per column.
	for i, v := range g.AsFloat32() {
		if !floatEqual(v, 2) {
			t.Errorf("bias grad[%d] = %f, want 2", i, v)
		}
	}
}

func TestBackward_MatMul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := raw(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	backend.Tape().StartRecording()
	loss := scalarize(backend, backend.MatMul(a, b))
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// With an all-ones upstream gradient G, dA = G @ B^T and dB = A^T @ G.
	ga := grads[a].AsFloat32()
	wantA := []float32{11, 15, 11, 15}
	for i := range wantA {
		if !floatEqual(ga[i], wantA[i]) {
			t.Errorf("grad a[%d] = %f, want %f", i, ga[i], wantA[i])
		}
	}
	gb := grads[b].AsFloat32()
	wantB := []float32{4, 4, 6, 6}
	for i := range wantB {
		if !floatEqual(gb[i], wantB[i]) {
			t.Errorf("grad b[%d] = %f, want %f", i, gb[i], wantB[i])
		}
	}
}

func TestBackward_ReLU(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := raw(t, []float32{-1, 0, 2}, tensor.Shape{3})

	backend.Tape().StartRecording()
	loss := scalarize(backend, backend.ReLU(x))
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	g := grads[x].AsFloat32()
	want := []float32{0, 0, 1}
	for i := range want {
		if !floatEqual(g[i], want[i]) {
			t.Errorf("grad[%d] = %f, want %f", i, g[i], want[i])
		}
	}
}

func TestBackward_Reshape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	backend.Tape().StartRecording()
	loss := scalarize(backend, backend.Reshape(x, tensor.Shape{4}))
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	if !grads[x].Shape().Equal(tensor.Shape{2, 2}) {
		t.Errorf("grad shape = %v, want [2 2]", grads[x].Shape())
	}
}

func TestBackward_CrossEntropy(t *testing.T) {
	backend := autodiff.New(cpu.New())
	logits := raw(t, []float32{2, 0, 0, 0, 3, 0}, tensor.Shape{2, 3})
	targets, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Int64, tensor.CPU)
	targets.AsInt64()[0] = 0
	targets.AsInt64()[1] = 1

	backend.Tape().StartRecording()
	loss, err := backend.CrossEntropy(logits.Clone(), targets)
	if err != nil {
		t.Fatalf("CrossEntropy: %v", err)
	}
	backend.Tape().StopRecording()

	if !loss.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("loss shape = %v, want [1]", loss.Shape())
	}
	if loss.AsFloat32()[0] <= 0 {
		t.Errorf("loss = %f, want positive", loss.AsFloat32()[0])
	}
}

func TestBackward_CrossEntropyGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	logits := raw(t, []float32{0, 0}, tensor.Shape{1, 2})
	targets, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, tensor.CPU)
	targets.AsInt64()[0] = 0

	backend.Tape().StartRecording()
	loss, err := backend.CrossEntropy(logits, targets)
	if err != nil {
		t.Fatalf("CrossEntropy: %v", err)
	}
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// Uniform logits, target class 0: grad = softmax - onehot = [-0.5, 0.5].
	g := grads[logits].AsFloat32()
	if !floatEqual(g[0], -0.5) || !floatEqual(g[1], 0.5) {
		t.Errorf("grad = %v, want [-0.5 0.5]", g)
	}
}

func TestBackward_FakeQuantSTE(t *testing.T) {
	backend := autodiff.New(cpu.New())
	// scale 0.1, zp 0, range [-127, 127]: +/-12.7 saturates, 0.5 passes.
	x := raw(t, []float32{0.5, 20, -20}, tensor.Shape{3})

	backend.Tape().StartRecording()
	out := backend.FakeQuant(x, 0.1, 0, -127, 127)
	loss := scalarize(backend, out)
	backend.Tape().StopRecording()

	if !floatEqual(out.AsFloat32()[0], 0.5) {
		t.Errorf("in-range value = %f, want 0.5", out.AsFloat32()[0])
	}
	if !floatEqual(out.AsFloat32()[1], 12.7) {
		t.Errorf("saturated value = %f, want 12.7", out.AsFloat32()[1])
	}

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// Straight-through estimator: gradient passes in range, zero when clipped.
	g := grads[x].AsFloat32()
	want := []float32{1, 0, 0}
	for i := range want {
		if !floatEqual(g[i], want[i]) {
			t.Errorf("grad[%d] = %f, want %f", i, g[i], want[i])
		}
	}
}

func TestBackward_Conv2DNumeric(t *testing.T) {
	backend := autodiff.New(cpu.New())
	input := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := raw(t, []float32{0.5}, tensor.Shape{1, 1, 1, 1})

	backend.Tape().StartRecording()
	loss := scalarize(backend, backend.Conv2D(input, kernel, 1, 0))
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// A 1x1 kernel of 0.5 scales everything: input grad is 0.5 everywhere,
	// kernel grad is the sum of the input.
	for i, v := range grads[input].AsFloat32() {
		if !floatEqual(v, 0.5) {
			t.Errorf("input grad[%d] = %f, want 0.5", i, v)
		}
	}
	if !floatEqual(grads[kernel].AsFloat32()[0], 10) {
		t.Errorf("kernel grad = %f, want 10", grads[kernel].AsFloat32()[0])
	}
}

func TestBackward_MaxPool2D(t *testing.T) {
	backend := autodiff.New(cpu.New())
	input := raw(t, []float32{1, 3, 5, 7}, tensor.Shape{1, 1, 2, 2})

	backend.Tape().StartRecording()
	loss := scalarize(backend, backend.MaxPool2D(input, 2, 2))
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	g := grads[input].AsFloat32()
	want := []float32{0, 0, 0, 1}
	for i := range want {
		if !floatEqual(g[i], want[i]) {
			t.Errorf("grad[%d] = %f, want %f", i, g[i], want[i])
		}
	}
}

func TestBackward_SumDim(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	backend.Tape().StartRecording()
	perRow := backend.SumDim(x, 1, false)
	loss := backend.Sum(perRow)
	backend.Tape().StopRecording()

	grads, err := backend.Tape().Backward(loss, backend.Inner())
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	g := grads[x]
	if !g.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("grad shape = %v, want [2 3]", g.Shape())
	}
	for i, v := range g.AsFloat32() {
		if !floatEqual(v, 1) {
			t.Errorf("grad[%d] = %f, want 1", i, v)
		}
	}
}

func TestBackward_RequiresScalarLoss(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a := raw(t, []float32{1, 2}, tensor.Shape{2})
	b := raw(t, []float32{3, 4}, tensor.Shape{2})

	backend.Tape().StartRecording()
	out := backend.Add(a, b)
	backend.Tape().StopRecording()

	if _, err := backend.Tape().Backward(out, backend.Inner()); err == nil {
		t.Fatal("expected error for non-scalar loss")
	}
}

func TestTape_NotRecordingSkipsOps(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a := raw(t, []float32{1}, tensor.Shape{1})
	b := raw(t, []float32{2}, tensor.Shape{1})

	backend.Add(a, b)
	if n := backend.Tape().NumOps(); n != 0 {
		t.Errorf("NumOps = %d, want 0 while not recording", n)
	}

	backend.Tape().StartRecording()
	backend.Add(a, b)
	backend.Tape().StopRecording()
	if n := backend.Tape().NumOps(); n != 1 {
		t.Errorf("NumOps = %d, want 1", n)
	}

	backend.Tape().Clear()
	if n := backend.Tape().NumOps(); n != 0 {
		t.Errorf("NumOps after Clear = %d, want 0", n)
	}
}
