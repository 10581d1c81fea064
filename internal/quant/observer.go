package quant

import (
	"math"
	"sync"
)

// Observer accumulates statistics over activations during calibration or
// QAT and derives quantization parameters from them.
type Observer interface {
	// Observe records one batch of float32 activations.
	Observe(data []float32)
	// QParams derives quantization parameters from the statistics seen so
	// far.
	QParams() QParams
	// Reset discards all accumulated statistics.
	Reset()
}

// ObserverFactory constructs a fresh observer. A QConfig holds one factory
// per tensor role so every layer gets its own accumulator.
type ObserverFactory func() Observer

// MinMaxObserver tracks the global minimum and maximum and derives affine
// uint8 parameters from them. It is the default activation observer for
// post-training quantization.
type MinMaxObserver struct {
	mu       sync.Mutex
	min, max float32
	seen     bool
}

// NewMinMaxObserver creates an empty MinMaxObserver.
func NewMinMaxObserver() *MinMaxObserver { return &MinMaxObserver{} }

func (o *MinMaxObserver) Observe(data []float32) {
	if len(data) == 0 {
		return
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.seen {
		o.min, o.max = lo, hi
		o.seen = true
		return
	}
	if lo < o.min {
		o.min = lo
	}
	if hi > o.max {
		o.max = hi
	}
}

func (o *MinMaxObserver) QParams() QParams {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.seen {
		return QParams{Scale: 1, ZeroPoint: 0}
	}
	return AffineParams(o.min, o.max)
}

func (o *MinMaxObserver) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = false
	o.min, o.max = 0, 0
}

// MovingAverageMinMaxObserver smooths the observed range with an
// exponential moving average, which keeps QAT ranges stable across noisy
// mini-batches.
type MovingAverageMinMaxObserver struct {
	mu       sync.Mutex
	avgConst float32
	min, max float32
	seen     bool
}

// NewMovingAverageMinMaxObserver creates an observer with the given
// averaging constant; 0.01 is the conventional choice.
func NewMovingAverageMinMaxObserver(avgConst float32) *MovingAverageMinMaxObserver {
	return &MovingAverageMinMaxObserver{avgConst: avgConst}
}

func (o *MovingAverageMinMaxObserver) Observe(data []float32) {
	if len(data) == 0 {
		return
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.seen {
		o.min, o.max = lo, hi
		o.seen = true
		return
	}
	o.min += o.avgConst * (lo - o.min)
	o.max += o.avgConst * (hi - o.max)
}

func (o *MovingAverageMinMaxObserver) QParams() QParams {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.seen {
		return QParams{Scale: 1, ZeroPoint: 0}
	}
	return AffineParams(o.min, o.max)
}

func (o *MovingAverageMinMaxObserver) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = false
	o.min, o.max = 0, 0
}

// histogramBins is sized so the clip search has enough resolution without
// making Observe noticeably slow on full calibration batches.
const histogramBins = 2048

// HistogramObserver accumulates a histogram of observed values and picks
// the clip range that minimizes the quantization mean squared error, which
// tolerates outliers far better than a raw min/max range.
type HistogramObserver struct {
	mu       sync.Mutex
	counts   [histogramBins]float64
	min, max float32
	seen     bool
}

// NewHistogramObserver creates an empty HistogramObserver.
func NewHistogramObserver() *HistogramObserver { return &HistogramObserver{} }

func (o *HistogramObserver) Observe(data []float32) {
	if len(data) == 0 {
		return
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.seen {
		o.min, o.max = lo, hi
		o.seen = true
	} else {
		newMin, newMax := o.min, o.max
		if lo < newMin {
			newMin = lo
		}
		if hi > newMax {
			newMax = hi
		}
		if newMin != o.min || newMax != o.max {
			o.rescale(newMin, newMax)
		}
	}

	width := o.max - o.min
	if width == 0 {
		o.counts[0] += float64(len(data))
		return
	}
	scale := float32(histogramBins) / width
	for _, v := range data {
		bin := int((v - o.min) * scale)
		if bin < 0 {
			bin = 0
		} else if bin >= histogramBins {
			bin = histogramBins - 1
		}
		o.counts[bin]++
	}
}

// rescale redistributes existing counts into bins spanning the widened
// range. Counts are spread by bin midpoint, which is accurate enough for
// clip range selection.
func (o *HistogramObserver) rescale(newMin, newMax float32) {
	oldWidth := o.max - o.min
	newWidth := newMax - newMin
	if oldWidth == 0 || newWidth == 0 {
		o.min, o.max = newMin, newMax
		return
	}
	var rebinned [histogramBins]float64
	oldBin := oldWidth / float32(histogramBins)
	for i, c := range o.counts {
		if c == 0 {
			continue
		}
		mid := o.min + (float32(i)+0.5)*oldBin
		j := int((mid - newMin) / newWidth * float32(histogramBins))
		if j < 0 {
			j = 0
		} else if j >= histogramBins {
			j = histogramBins - 1
		}
		rebinned[j] += c
	}
	o.counts = rebinned
	o.min, o.max = newMin, newMax
}

// QParams searches candidate clip ranges and returns affine parameters for
// the one with the lowest estimated quantization error.
func (o *HistogramObserver) QParams() QParams {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.seen {
		return QParams{Scale: 1, ZeroPoint: 0}
	}
	width := o.max - o.min
	if width == 0 {
		return AffineParams(o.min, o.max)
	}

	binWidth := width / float32(histogramBins)
	bestErr := math.Inf(1)
	bestLo, bestHi := o.min, o.max

	// Shrink each end of the clip range independently, scoring every
	// candidate by the histogram-weighted squared error of clamping plus
	// rounding. Independent ends matter for one-sided outliers.
	const searchSteps = 64
	for loStep := 0; loStep < searchSteps; loStep++ {
		lo := o.min + width*float32(loStep)/float32(searchSteps)
		for hiStep := 0; hiStep < searchSteps; hiStep++ {
			hi := o.max - width*float32(hiStep)/float32(searchSteps)
			if hi <= lo {
				break
			}
			err := o.clipError(lo, hi, binWidth)
			if err < bestErr {
				bestErr = err
				bestLo, bestHi = lo, hi
			}
		}
	}
	return AffineParams(bestLo, bestHi)
}

// clipError estimates the squared quantization error for a candidate clip
// range. Values outside [lo, hi] contribute their clamping distance; values
// inside contribute the expected rounding error for the implied scale.
func (o *HistogramObserver) clipError(lo, hi, binWidth float32) float64 {
	scale := (hi - lo) / float32(Uint8Max-Uint8Min)
	// Expected squared rounding error for a uniform value within one step.
	roundErr := float64(scale) * float64(scale) / 12.0

	var total float64
	for i, c := range o.counts {
		if c == 0 {
			continue
		}
		mid := o.min + (float32(i)+0.5)*binWidth
		switch {
		case mid < lo:
			d := float64(lo - mid)
			total += c * d * d
		case mid > hi:
			d := float64(mid - hi)
			total += c * d * d
		default:
			total += c * roundErr
		}
	}
	return total
}

func (o *HistogramObserver) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = false
	o.min, o.max = 0, 0
	o.counts = [histogramBins]float64{}
}

// SymmetricMinMaxObserver tracks the largest absolute value and derives
// symmetric int8 parameters. It is the default weight observer.
type SymmetricMinMaxObserver struct {
	mu     sync.Mutex
	maxAbs float32
}

// NewSymmetricMinMaxObserver creates an empty SymmetricMinMaxObserver.
func NewSymmetricMinMaxObserver() *SymmetricMinMaxObserver {
	return &SymmetricMinMaxObserver{}
}

func (o *SymmetricMinMaxObserver) Observe(data []float32) {
	var m float32
	for _, v := range data {
		a := v
		if a < 0 {
			a = -a
		}
		if a > m {
			m = a
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if m > o.maxAbs {
		o.maxAbs = m
	}
}

func (o *SymmetricMinMaxObserver) QParams() QParams {
	o.mu.Lock()
	defer o.mu.Unlock()
	return SymmetricParams(o.maxAbs)
}

func (o *SymmetricMinMaxObserver) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.maxAbs = 0
}
