// Package serialization reads and writes model parameter blobs in the
// .elb format: a fixed preamble, a JSON header describing the tensors, the
// raw tensor data aligned to 64 bytes, and a trailing CRC32 over
// everything before it.
package serialization

import (
	"time"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "ELAB"
	FormatVersion   = 1
	HeaderAlignment = 64 // tensor data starts on a 64-byte boundary
	preambleSize    = 4 + 4 + 4 + 8
)

// Data type names used in headers.
const (
	DTypeFloat32 = "float32"
	DTypeFloat16 = "float16"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeInt8    = "int8"
	DTypeUint8   = "uint8"
)

// Header flags.
const (
	FlagQuantized uint32 = 1 << 0 // blob holds an integer model
)

// Header is the JSON header of an .elb file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ToolVersion   string            `json:"tool_version"`
	ModelType     string            `json:"model_type"`
	ModelID       string            `json:"model_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from start of the data section
	Size   int64  `json:"size"`
}

// Entry pairs a parameter name with its tensor. Entries are written in
// order, so the same state dict always produces an identical blob apart
// from the header timestamp and ID.
type Entry struct {
	Name string
	Raw  *tensor.RawTensor
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float16:
		return DTypeFloat16
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	case tensor.Int8:
		return DTypeInt8
	case tensor.Uint8:
		return DTypeUint8
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat16:
		return tensor.Float16, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeInt8:
		return tensor.Int8, true
	case DTypeUint8:
		return tensor.Uint8, true
	default:
		return 0, false
	}
}
