package builder

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gobics/uproc-go/classifier"
	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/calibconfig"
	"github.com/gobics/uproc-go/internal/uerr"
	"github.com/gobics/uproc-go/orf"
)

// AminoSampler draws random amino-acid sequences from an empirical
// per-amino probability distribution, the background generator the
// Monte-Carlo calibration classifies to estimate the score
// distribution of noise.
type AminoSampler struct {
	alpha *alphabet.Alphabet
	cat   distuv.Categorical
}

// NewAminoSampler builds a sampler over probs (indexed by amino acid
// code, length alphabet.Size) using rng as its source of randomness.
func NewAminoSampler(alpha *alphabet.Alphabet, probs []float64, rng *rand.Rand) *AminoSampler {
	return &AminoSampler{
		alpha: alpha,
		cat:   distuv.NewCategorical(probs, rng),
	}
}

// Sequence draws a random amino-acid sequence of length n.
func (s *AminoSampler) Sequence(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = s.alpha.AminoToChar(int(s.cat.Rand()))
	}
	return string(buf)
}

// Calibrate runs the Monte-Carlo score-threshold calibration: for each
// length in calibconfig.Lengths it draws params.SampleCount(length)
// random sequences from sampler, classifies each with clf (which the
// caller must have configured in classifier.Max mode, so that each
// draw contributes a single best-across-classes score, the worst-case
// noise a sequence of that length could produce), and takes that
// length's sample of best scores as one slice of the background
// distribution. The 1%- and
// 0.1%-quantiles of each length's sample anchor two curves (e2 at the
// looser 1% level, e3 at the stricter 0.1% level), which are then fit
// with a cubic spline across the full [PowMin, PowMax] length domain
// and sampled at every integer length into a params.MatrixCols-wide
// single-row matrix.
func Calibrate(clf *classifier.Classifier, sampler *AminoSampler, params calibconfig.Params) (e2, e3 *orf.ThresholdMatrix, err error) {
	lengths := make([]float64, len(calibconfig.Lengths))
	anchorsE2 := make([]float64, len(calibconfig.Lengths))
	anchorsE3 := make([]float64, len(calibconfig.Lengths))

	for i, length := range calibconfig.Lengths {
		n := params.SampleCount(length)
		scores := make([]float64, n)
		for s := 0; s < n; s++ {
			seq := sampler.Sequence(length)
			results := clf.Classify(seq)
			best := math.Inf(-1)
			if len(results) > 0 {
				best = results[0].Score
			}
			scores[s] = best
		}
		sort.Float64s(scores)
		lengths[i] = float64(length)
		anchorsE2[i] = stat.Quantile(1-calibconfig.Quantiles[0], stat.Empirical, scores, nil)
		anchorsE3[i] = stat.Quantile(1-calibconfig.Quantiles[1], stat.Empirical, scores, nil)
	}

	e2Row, err := fitCurve(lengths, anchorsE2, params)
	if err != nil {
		return nil, nil, err
	}
	e3Row, err := fitCurve(lengths, anchorsE3, params)
	if err != nil {
		return nil, nil, err
	}
	return &orf.ThresholdMatrix{Rows: [][]float64{e2Row}}, &orf.ThresholdMatrix{Rows: [][]float64{e3Row}}, nil
}

// fitCurve fits an Akima cubic spline through the calibration anchors
// (xs ascending, one per calibconfig.Lengths entry) and samples it at
// every integer sequence length in [params.PowMin, params.PowMax],
// clamping queries outside the anchors' own range to the nearest
// anchor; the spline has no basis to extrapolate past the sampled
// lengths, so the nearest measured anchor is the best available
// estimate.
func fitCurve(xs, ys []float64, params calibconfig.Params) ([]float64, error) {
	var spline interp.AkimaSpline
	if err := spline.Fit(xs, ys); err != nil {
		return nil, uerr.Wrap(uerr.InvalidArgument, err, "fitting calibration spline")
	}

	lo, hi := xs[0], xs[len(xs)-1]
	row := make([]float64, params.MatrixCols)
	for length := params.PowMin; length <= params.PowMax && length <= params.MatrixCols; length++ {
		x := float64(length)
		switch {
		case x < lo:
			x = lo
		case x > hi:
			x = hi
		}
		row[length-1] = spline.Predict(x)
	}
	return row, nil
}
