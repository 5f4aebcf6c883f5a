// Package calibconfig exposes the Monte-Carlo score-threshold
// calibration knobs as an explicit configuration struct rather than
// compiled-in constants.
package calibconfig

// Lengths are the sequence lengths (in amino acids) at which the
// builder draws Monte-Carlo samples and fits threshold anchors.
var Lengths = []int{32, 64, 128, 256, 512, 1024, 2048}

// Quantiles are the score quantiles, taken from the descending-sorted
// sample, that anchor the threshold spline. Index 0 feeds the "e2"
// threshold, index 1 feeds "e3".
var Quantiles = []float64{0.01, 0.001}

// Params holds the tunable knobs of the calibration procedure.
type Params struct {
	// SeqCountMultiplier scales how many random sequences are drawn per
	// length entry: SampleCount(length) = SeqCountMultiplier / length.
	SeqCountMultiplier int

	// PowMin and PowMax bound the interpolated threshold matrix's
	// sequence-length domain.
	PowMin, PowMax int

	// MatrixCols is the number of columns in the persisted threshold
	// matrix.
	MatrixCols int
}

// Default returns the standard calibration parameters.
func Default() Params {
	return Params{
		SeqCountMultiplier: 200000,
		PowMin:             20,
		PowMax:             5000,
		MatrixCols:         5000,
	}
}

// SampleCount returns how many random sequences to draw for the given
// calibration length under p.
func (p Params) SampleCount(length int) int {
	n := p.SeqCountMultiplier / length
	if n < 1 {
		n = 1
	}
	return n
}
