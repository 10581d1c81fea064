package serialization

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const toolVersion = "0.3.0"

// Write serializes a state dict to path. The blob is built in memory,
// checksummed, and written in one call.
func Write(path, modelType string, entries []Entry, metadata map[string]string, quantized bool) error {
	blob, err := Marshal(modelType, entries, metadata, quantized)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, blob, 0o644), "writing %s", path)
}

// Marshal builds the .elb blob for a state dict.
func Marshal(modelType string, entries []Entry, metadata map[string]string, quantized bool) ([]byte, error) {
	header := Header{
		FormatVersion: FormatVersion,
		ToolVersion:   toolVersion,
		ModelType:     modelType,
		ModelID:       uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}

	var dataOffset int64
	for _, e := range entries {
		size := int64(e.Raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   e.Name,
			DType:  dtypeToString(e.Raw.DType()),
			Shape:  []int(e.Raw.Shape()),
			Offset: dataOffset,
			Size:   size,
		})
		dataOffset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling header")
	}

	var buf bytes.Buffer
	buf.WriteString(MagicBytes)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return nil, err
	}
	var flags uint32
	if quantized {
		flags |= FlagQuantized
	}
	if err := binary.Write(&buf, binary.LittleEndian, flags); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return nil, err
	}
	buf.Write(headerJSON)

	if pad := (HeaderAlignment - buf.Len()%HeaderAlignment) % HeaderAlignment; pad > 0 {
		buf.Write(make([]byte, pad))
	}

	for _, e := range entries {
		buf.Write(e.Raw.Data())
	}

	sum := crc32.ChecksumIEEE(buf.Bytes())
	if err := binary.Write(&buf, binary.LittleEndian, sum); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
