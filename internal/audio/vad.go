package audio

import (
	"math"
)

// DefaultSilenceThreshold is the RMS level at or below which a batch counts as silence.
// Typical values: 0.001 to 0.05 (lower = more sensitive)
const DefaultSilenceThreshold = 0.003

// RMS returns the root-mean-square amplitude of samples, 0 for an empty slice
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// IsVoiced reports whether a batch carries speech energy above threshold
func IsVoiced(samples []float32, threshold float64) bool {
	return RMS(samples) > threshold
}
