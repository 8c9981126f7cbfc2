package audio

import "math"

// dbFloor is reported for silent frames instead of -Inf.
const dbFloor = -100.0

// DBLevel returns the RMS loudness of a frame in dBFS. Deterministic and
// allocation-free; safe on the per-frame path.
func DBLevel(f Frame) float64 {
	if len(f.Samples) == 0 {
		return dbFloor
	}
	var sumSquares float64
	for _, s := range f.Samples {
		sumSquares += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSquares / float64(len(f.Samples)))
	if rms <= 0 {
		return dbFloor
	}
	db := 20 * math.Log10(rms)
	if db < dbFloor {
		return dbFloor
	}
	return db
}

// EnergyVAD classifies a frame as speech when its short-term RMS energy
// exceeds threshold (linear amplitude, 0..1). Deterministic for a given
// frame and threshold.
func EnergyVAD(f Frame, threshold float64) bool {
	if len(f.Samples) == 0 {
		return false
	}
	var sumSquares float64
	for _, s := range f.Samples {
		sumSquares += float64(s) * float64(s)
	}
	return math.Sqrt(sumSquares/float64(len(f.Samples))) >= threshold
}
