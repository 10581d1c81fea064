package train

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Report summarizes a full run: training curve, float and quantized
// accuracy, and on-disk model sizes.
type Report struct {
	RunID     string       `json:"run_id"`
	CreatedAt time.Time    `json:"created_at"`
	Mode      string       `json:"mode"` // "ptq" or "qat"
	Observer  string       `json:"observer,omitempty"`
	Epochs    []EpochStats `json:"epochs,omitempty"`

	FloatAccuracy     float64 `json:"float_accuracy"`
	QuantizedAccuracy float64 `json:"quantized_accuracy"`
	FloatSizeBytes    int64   `json:"float_size_bytes"`
	QuantizedSize     int64   `json:"quantized_size_bytes"`
}

// NewReport creates a report with a fresh run ID.
func NewReport(mode string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Mode:      mode,
	}
}

// SizeReduction returns the float-to-quantized size ratio; 0 when either
// size is missing.
func (r *Report) SizeReduction() float64 {
	if r.FloatSizeBytes == 0 || r.QuantizedSize == 0 {
		return 0
	}
	return float64(r.FloatSizeBytes) / float64(r.QuantizedSize)
}

// String renders a human-readable summary.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s)\n", r.RunID, r.Mode)
	fmt.Fprintf(&b, "  float model:     %.2f%% accuracy, %s on disk\n",
		r.FloatAccuracy*100, humanize.Bytes(uint64(r.FloatSizeBytes)))
	fmt.Fprintf(&b, "  quantized model: %.2f%% accuracy, %s on disk\n",
		r.QuantizedAccuracy*100, humanize.Bytes(uint64(r.QuantizedSize)))
	fmt.Fprintf(&b, "  size reduction:  %.2fx\n", r.SizeReduction())
	fmt.Fprintf(&b, "  accuracy delta:  %+.2f points\n",
		(r.QuantizedAccuracy-r.FloatAccuracy)*100)
	return b.String()
}

// WriteJSON writes the report to path as indented JSON.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling report")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}
