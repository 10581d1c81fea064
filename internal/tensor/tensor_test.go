package tensor_test

import (
	"testing"

	"github.com/munir2200963/edge-labs/internal/backend/cpu"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape tensor.Shape
		want  int
	}{
		{tensor.Shape{2, 3}, 6},
		{tensor.Shape{1}, 1},
		{tensor.Shape{4, 1, 5}, 20},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("NumElements(%v) = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b, want tensor.Shape
		wantErr    bool
	}{
		{tensor.Shape{2, 3}, tensor.Shape{2, 3}, tensor.Shape{2, 3}, false},
		{tensor.Shape{2, 3}, tensor.Shape{1, 3}, tensor.Shape{2, 3}, false},
		{tensor.Shape{4, 1}, tensor.Shape{3}, tensor.Shape{4, 3}, false},
		{tensor.Shape{2, 3}, tensor.Shape{4, 3}, nil, true},
	}
	for _, tt := range tests {
		got, _, err := tensor.BroadcastShapes(tt.a, tt.b)
		if tt.wantErr {
			if err == nil {
				t.Errorf("BroadcastShapes(%v, %v): expected error", tt.a, tt.b)
			}
			continue
		}
		if err != nil {
			t.Fatalf("BroadcastShapes(%v, %v): %v", tt.a, tt.b, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("BroadcastShapes(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFromSlice_RoundTrip(t *testing.T) {
	backend := cpu.New()
	data := []float32{1, 2, 3, 4, 5, 6}

	x, err := tensor.FromSlice(data, tensor.Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if x.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %f, want 6", x.At(1, 2))
	}
	x.Set(42, 0, 1)
	if x.Data()[1] != 42 {
		t.Errorf("Set did not write through: %f", x.Data()[1])
	}
}

func TestFromSlice_ShapeMismatch(t *testing.T) {
	backend := cpu.New()
	if _, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, backend); err == nil {
		t.Fatal("expected error for mismatched shape")
	}
}

func TestRawTensor_WithShape(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 6}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	raw.AsFloat32()[7] = 3.5

	view := raw.WithShape(tensor.Shape{4, 3})
	if !view.Shape().Equal(tensor.Shape{4, 3}) {
		t.Errorf("view shape = %v", view.Shape())
	}
	// A view shares the buffer.
	if view.AsFloat32()[7] != 3.5 {
		t.Error("view does not share data")
	}
	view.AsFloat32()[0] = 1
	if raw.AsFloat32()[0] != 1 {
		t.Error("write to view not visible in original")
	}
}

func TestRawTensor_CloneIndependent(t *testing.T) {
	raw, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	raw.AsFloat32()[0] = 1

	clone := raw.Clone()
	clone.AsFloat32()[0] = 2
	if raw.AsFloat32()[0] != 1 {
		t.Error("clone shares memory with original")
	}
}

func TestTensor_Item(t *testing.T) {
	backend := cpu.New()
	x, _ := tensor.FromSlice([]float32{5}, tensor.Shape{1}, backend)
	if x.Item() != 5 {
		t.Errorf("Item() = %f, want 5", x.Item())
	}
}

func TestDataType_Size(t *testing.T) {
	tests := []struct {
		dt   tensor.DataType
		size int
	}{
		{tensor.Float32, 4},
		{tensor.Float16, 2},
		{tensor.Int64, 8},
		{tensor.Int8, 1},
		{tensor.Uint8, 1},
	}
	for _, tt := range tests {
		if got := tt.dt.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dt, got, tt.size)
		}
	}
}
