package serialization

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// MeasureSize serializes a state dict to a temporary file, records its
// byte size, and deletes the file. This reports what the model would
// occupy on disk rather than in memory.
func MeasureSize(modelType string, entries []Entry, quantized bool) (int64, error) {
	dir, err := os.MkdirTemp("", "elb-size-*")
	if err != nil {
		return 0, errors.Wrap(err, "creating temp dir")
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "model.elb")
	if err := Write(path, modelType, entries, nil, quantized); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrap(err, "measuring blob")
	}
	return info.Size(), nil
}
