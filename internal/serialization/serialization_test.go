package serialization_test

import (
	"path/filepath"
	"testing"

	"github.com/munir2200963/edge-labs/internal/serialization"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

func testEntries(t *testing.T) []serialization.Entry {
	t.Helper()
	w, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(w.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})

	b, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(b.AsInt32(), []int32{-1, 0, 1})

	return []serialization.Entry{
		{Name: "fc.weight", Raw: w},
		{Name: "fc.bias", Raw: b},
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	entries := testEntries(t)
	meta := map[string]string{"quantization": `{"scheme":"int8"}`}

	blob, err := serialization.Marshal("test-model", entries, meta, true)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	header, got, err := serialization.Unmarshal(blob)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if header.ModelType != "test-model" {
		t.Errorf("model type = %q", header.ModelType)
	}
	if header.FormatVersion != serialization.FormatVersion {
		t.Errorf("format version = %d", header.FormatVersion)
	}
	if header.ModelID == "" {
		t.Error("model ID is empty")
	}
	if header.Metadata["quantization"] != meta["quantization"] {
		t.Errorf("metadata = %v", header.Metadata)
	}

	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i, e := range entries {
		if got[i].Name != e.Name {
			t.Errorf("entry %d name = %q, want %q", i, got[i].Name, e.Name)
		}
		if got[i].Raw.DType() != e.Raw.DType() {
			t.Errorf("entry %d dtype = %v, want %v", i, got[i].Raw.DType(), e.Raw.DType())
		}
		if !got[i].Raw.Shape().Equal(e.Raw.Shape()) {
			t.Errorf("entry %d shape = %v, want %v", i, got[i].Raw.Shape(), e.Raw.Shape())
		}
	}
	w := got[0].Raw.AsFloat32()
	if w[0] != 1 || w[5] != 6 {
		t.Errorf("weight data = %v", w)
	}
	b := got[1].Raw.AsInt32()
	if b[0] != -1 || b[2] != 1 {
		t.Errorf("bias data = %v", b)
	}
}

func TestUnmarshal_DetectsCorruption(t *testing.T) {
	blob, err := serialization.Marshal("m", testEntries(t), nil, false)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Flip one bit in the tensor data region.
	blob[len(blob)-10] ^= 0x01
	if _, _, err := serialization.Unmarshal(blob); err == nil {
		t.Fatal("expected checksum error for corrupted blob")
	}
}

func TestUnmarshal_RejectsBadMagic(t *testing.T) {
	blob, err := serialization.Marshal("m", testEntries(t), nil, false)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	copy(blob[:4], "NOPE")
	if _, _, err := serialization.Unmarshal(blob); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestUnmarshal_RejectsShortBlob(t *testing.T) {
	if _, _, err := serialization.Unmarshal([]byte("ELAB")); err == nil {
		t.Fatal("expected error for truncated blob")
	}
}

func TestWriteRead_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.elb")
	if err := serialization.Write(path, "m", testEntries(t), nil, false); err != nil {
		t.Fatalf("Write: %v", err)
	}

	header, entries, err := serialization.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if header.ModelType != "m" || len(entries) != 2 {
		t.Errorf("header = %+v, %d entries", header, len(entries))
	}
}

func TestMeasureSize(t *testing.T) {
	entries := testEntries(t)
	size, err := serialization.MeasureSize("m", entries, false)
	if err != nil {
		t.Fatalf("MeasureSize: %v", err)
	}

	var dataBytes int64
	for _, e := range entries {
		dataBytes += int64(e.Raw.ByteSize())
	}
	if size <= dataBytes {
		t.Errorf("size = %d, want more than the %d raw data bytes", size, dataBytes)
	}
}
