package quant

// QConfig pairs the observer used for activations with the one used for
// weights. It is fixed once a model has been prepared for quantization.
type QConfig struct {
	Activation ObserverFactory
	Weight     ObserverFactory
}

// DefaultQConfig uses plain min/max observation for activations. Suitable
// for post-training quantization of well-behaved models.
func DefaultQConfig() QConfig {
	return QConfig{
		Activation: func() Observer { return NewMinMaxObserver() },
		Weight:     func() Observer { return NewSymmetricMinMaxObserver() },
	}
}

// HistogramQConfig uses histogram-based clip range selection for
// activations, which is more robust to activation outliers than min/max.
func HistogramQConfig() QConfig {
	return QConfig{
		Activation: func() Observer { return NewHistogramObserver() },
		Weight:     func() Observer { return NewSymmetricMinMaxObserver() },
	}
}

// QATQConfig uses moving average min/max observation for activations,
// smoothing range estimates over the noisy mini-batches seen during
// quantization-aware training.
func QATQConfig() QConfig {
	return QConfig{
		Activation: func() Observer { return NewMovingAverageMinMaxObserver(0.01) },
		Weight:     func() Observer { return NewSymmetricMinMaxObserver() },
	}
}
