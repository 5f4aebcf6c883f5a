package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/ecurve"
	"github.com/gobics/uproc-go/internal/substmat"
	"github.com/gobics/uproc-go/internal/word"
)

func mustAlpha(t *testing.T) *alphabet.Alphabet {
	t.Helper()
	a, err := alphabet.New("AGSTPKRQEDNHYWFMLIVC")
	require.NoError(t, err)
	return a
}

func identitySubstMat() *substmat.Matrix {
	m := substmat.New()
	for pos := 0; pos < word.SuffixLen; pos++ {
		for a := 0; a < alphabet.Size; a++ {
			for b := 0; b < alphabet.Size; b++ {
				if a == b {
					m.Set(pos, a, b, 1.0)
				} else {
					m.Set(pos, a, b, -1.0)
				}
			}
		}
	}
	return m
}

// TestClassifySingleExactHit: an ecurve
// containing exactly one word mapped to class 7, classified against a
// sequence that contains that word once, yields one Result for class 7
// with a positive score.
func TestClassifySingleExactHit(t *testing.T) {
	alpha := mustAlpha(t)
	w, err := word.FromString("NERDGEEKPETERPETER"[:word.Len], alpha)
	require.NoError(t, err)

	b, err := ecurve.NewBuilder(alpha, 1)
	require.NoError(t, err)
	require.NoError(t, b.AddPrefix(w.Prefix, []ecurve.SuffixEntry{{Suffix: w.Suffix, Classes: []int32{7}}}))
	fwd, err := b.Finalize()
	require.NoError(t, err)

	seq := strings.Repeat("A", 11) + "NERDGEEKPETERPETER" + strings.Repeat("A", 11)

	c := &Classifier{
		Alphabet:   alpha,
		Fwd:        fwd,
		SubstMat:   identitySubstMat(),
		RanksCount: 1,
		Mode:       All,
	}
	results := c.Classify(seq)
	require.NotEmpty(t, results)

	var found bool
	for _, r := range results {
		if r.Class == 7 {
			found = true
			require.Greater(t, r.Score, 0.0)
		}
	}
	require.True(t, found)
}

func TestClassifyShortSequenceEmpty(t *testing.T) {
	alpha := mustAlpha(t)
	c := &Classifier{Alphabet: alpha, SubstMat: substmat.New(), RanksCount: 1}
	require.Empty(t, c.Classify("SHORT"))
}

func TestClassifyMaxModeKeepsSingleBest(t *testing.T) {
	alpha := mustAlpha(t)
	w, err := word.FromString("NERDGEEKPETERPETER", alpha)
	require.NoError(t, err)

	b, err := ecurve.NewBuilder(alpha, 1)
	require.NoError(t, err)
	require.NoError(t, b.AddPrefix(w.Prefix, []ecurve.SuffixEntry{{Suffix: w.Suffix, Classes: []int32{7}}}))
	fwd, err := b.Finalize()
	require.NoError(t, err)

	seq := strings.Repeat("A", 11) + "NERDGEEKPETERPETER" + strings.Repeat("A", 11)
	c := &Classifier{
		Alphabet:   alpha,
		Fwd:        fwd,
		SubstMat:   identitySubstMat(),
		RanksCount: 1,
		Mode:       Max,
	}
	results := c.Classify(seq)
	require.Len(t, results, 1)
}
