package serialization

import (
	"encoding/binary"
	"hash/crc32"
	"os"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Read loads an .elb file, verifies its checksum, and returns the header
// plus the tensors in their header order.
func Read(path string) (*Header, []Entry, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading %s", path)
	}
	return Unmarshal(blob)
}

// Unmarshal parses an .elb blob.
func Unmarshal(blob []byte) (*Header, []Entry, error) {
	if len(blob) < preambleSize+4 {
		return nil, nil, errors.Errorf("blob too short: %d bytes", len(blob))
	}

	body, tail := blob[:len(blob)-4], blob[len(blob)-4:]
	want := binary.LittleEndian.Uint32(tail)
	if got := crc32.ChecksumIEEE(body); got != want {
		return nil, nil, errors.Errorf("checksum mismatch: %08x != %08x", got, want)
	}

	if string(body[:4]) != MagicBytes {
		return nil, nil, errors.Errorf("bad magic %q", body[:4])
	}
	version := binary.LittleEndian.Uint32(body[4:8])
	if version != FormatVersion {
		return nil, nil, errors.Errorf("unsupported format version %d", version)
	}
	headerSize := binary.LittleEndian.Uint64(body[12:preambleSize])
	if uint64(len(body)) < uint64(preambleSize)+headerSize {
		return nil, nil, errors.New("truncated header")
	}

	var header Header
	if err := json.Unmarshal(body[preambleSize:uint64(preambleSize)+headerSize], &header); err != nil {
		return nil, nil, errors.Wrap(err, "parsing header")
	}

	dataStart := int64(preambleSize) + int64(headerSize)
	dataStart += (HeaderAlignment - dataStart%HeaderAlignment) % HeaderAlignment

	entries := make([]Entry, 0, len(header.Tensors))
	for _, meta := range header.Tensors {
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, nil, errors.Errorf("tensor %s: unknown dtype %q", meta.Name, meta.DType)
		}
		start := dataStart + meta.Offset
		end := start + meta.Size
		if end > int64(len(body)) {
			return nil, nil, errors.Errorf("tensor %s: data out of bounds", meta.Name)
		}
		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "tensor %s", meta.Name)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, nil, errors.Errorf("tensor %s: shape %v does not match %d bytes", meta.Name, meta.Shape, meta.Size)
		}
		copy(raw.Data(), body[start:end])
		entries = append(entries, Entry{Name: meta.Name, Raw: raw})
	}
	return &header, entries, nil
}
