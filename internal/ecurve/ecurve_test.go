package ecurve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/word"
)

func TestSuffixLookupExactInexactOOB(t *testing.T) {
	search := []uint32{1, 3, 5, 10, 44, 131, 133, 1202, 298254336}

	lo, hi, kind := suffixLookup(search, 0)
	require.Equal(t, OOB, kind)
	require.Equal(t, uint32(1), search[lo])
	require.Equal(t, uint32(1), search[hi])

	lo, hi, kind = suffixLookup(search, 1)
	require.Equal(t, Exact, kind)
	require.Equal(t, uint32(1), search[lo])
	require.Equal(t, uint32(1), search[hi])

	lo, hi, kind = suffixLookup(search, 4)
	require.Equal(t, Inexact, kind)
	require.Equal(t, uint32(3), search[lo])
	require.Equal(t, uint32(5), search[hi])

	lo, hi, kind = suffixLookup(search, 134)
	require.Equal(t, Inexact, kind)
	require.Equal(t, uint32(133), search[lo])
	require.Equal(t, uint32(1202), search[hi])
}

func mustAlpha(t *testing.T) *alphabet.Alphabet {
	t.Helper()
	a, err := alphabet.New("AGSTPKRQEDNHYWFMLIVC")
	require.NoError(t, err)
	return a
}

func buildSmall(t *testing.T) *Ecurve {
	t.Helper()
	b, err := NewBuilder(mustAlpha(t), 1)
	require.NoError(t, err)

	require.NoError(t, b.AddPrefix(10, []SuffixEntry{
		{Suffix: 5, Classes: []int32{1}},
		{Suffix: 9, Classes: []int32{2}},
	}))
	require.NoError(t, b.AddPrefix(20, []SuffixEntry{
		{Suffix: 3, Classes: []int32{3}},
	}))

	ec, err := b.Finalize()
	require.NoError(t, err)
	return ec
}

func TestEcurveLookupExactMatch(t *testing.T) {
	ec := buildSmall(t)
	_, _, lowerClasses, upperClasses, kind := ec.Lookup(word.Word{Prefix: 10, Suffix: 5})
	require.Equal(t, Exact, kind)
	require.Equal(t, int32(1), lowerClasses[0])
	require.Equal(t, int32(1), upperClasses[0])
}

func TestEcurveLookupInexactWithinBucket(t *testing.T) {
	ec := buildSmall(t)
	_, _, lowerClasses, upperClasses, kind := ec.Lookup(word.Word{Prefix: 10, Suffix: 7})
	require.Equal(t, Inexact, kind)
	require.Equal(t, int32(1), lowerClasses[0])
	require.Equal(t, int32(2), upperClasses[0])
}

func TestEcurveLookupInexactAcrossEmptyPrefixes(t *testing.T) {
	ec := buildSmall(t)
	lower, upper, lowerClasses, upperClasses, kind := ec.Lookup(word.Word{Prefix: 15, Suffix: 0})
	require.Equal(t, Inexact, kind)
	require.Equal(t, uint64(10), lower.Prefix)
	require.Equal(t, uint64(20), upper.Prefix)
	require.Equal(t, int32(2), lowerClasses[0])
	require.Equal(t, int32(3), upperClasses[0])
}

func TestEcurveLookupOOBBeforeFirstPrefix(t *testing.T) {
	ec := buildSmall(t)
	lower, upper, _, _, kind := ec.Lookup(word.Word{Prefix: 2, Suffix: 0})
	require.Equal(t, OOB, kind)
	require.Equal(t, uint64(10), lower.Prefix)
	require.Equal(t, uint64(10), upper.Prefix)
}

func TestEcurveLookupOOBAfterLastPrefix(t *testing.T) {
	ec := buildSmall(t)
	lower, upper, _, _, kind := ec.Lookup(word.Word{Prefix: 1000, Suffix: 0})
	require.Equal(t, OOB, kind)
	require.Equal(t, uint64(20), lower.Prefix)
	require.Equal(t, uint64(20), upper.Prefix)
}

func TestEcurveLookupBelowBucketBracketsPreviousPrefix(t *testing.T) {
	ec := buildSmall(t)
	// Prefix 20 exists but suffix 1 is below its only stored suffix (3):
	// the lower neighbour comes from prefix 10's last entry.
	lower, upper, lowerClasses, upperClasses, kind := ec.Lookup(word.Word{Prefix: 20, Suffix: 1})
	require.Equal(t, Inexact, kind)
	require.Equal(t, uint64(10), lower.Prefix)
	require.Equal(t, uint32(9), lower.Suffix)
	require.Equal(t, uint64(20), upper.Prefix)
	require.Equal(t, uint32(3), upper.Suffix)
	require.Equal(t, int32(2), lowerClasses[0])
	require.Equal(t, int32(3), upperClasses[0])
}

func TestEcurveLookupAboveBucketBracketsNextPrefix(t *testing.T) {
	ec := buildSmall(t)
	// Prefix 10 exists but suffix 15 is above its last stored suffix (9):
	// the upper neighbour comes from prefix 20's first entry.
	lower, upper, lowerClasses, upperClasses, kind := ec.Lookup(word.Word{Prefix: 10, Suffix: 15})
	require.Equal(t, Inexact, kind)
	require.Equal(t, uint64(10), lower.Prefix)
	require.Equal(t, uint32(9), lower.Suffix)
	require.Equal(t, uint64(20), upper.Prefix)
	require.Equal(t, uint32(3), upper.Suffix)
	require.Equal(t, int32(2), lowerClasses[0])
	require.Equal(t, int32(3), upperClasses[0])
}

func TestEcurveLookupBelowAllWordsCollapses(t *testing.T) {
	ec := buildSmall(t)
	lower, upper, _, _, kind := ec.Lookup(word.Word{Prefix: 10, Suffix: 1})
	require.Equal(t, OOB, kind)
	require.Equal(t, lower, upper)
	require.Equal(t, uint64(10), lower.Prefix)
	require.Equal(t, uint32(5), lower.Suffix)
}

func TestEcurveLookupAboveAllWordsCollapses(t *testing.T) {
	ec := buildSmall(t)
	lower, upper, _, _, kind := ec.Lookup(word.Word{Prefix: 20, Suffix: 100})
	require.Equal(t, OOB, kind)
	require.Equal(t, lower, upper)
	require.Equal(t, uint64(20), lower.Prefix)
	require.Equal(t, uint32(3), lower.Suffix)
}

func TestBuilderRejectsNonAscendingPrefixes(t *testing.T) {
	b, err := NewBuilder(mustAlpha(t), 1)
	require.NoError(t, err)
	require.NoError(t, b.AddPrefix(10, []SuffixEntry{{Suffix: 1, Classes: []int32{1}}}))
	err = b.AddPrefix(5, []SuffixEntry{{Suffix: 1, Classes: []int32{1}}})
	require.Error(t, err)
}

func TestBuilderRejectsWrongRanksCount(t *testing.T) {
	b, err := NewBuilder(mustAlpha(t), 2)
	require.NoError(t, err)
	err = b.AddPrefix(1, []SuffixEntry{{Suffix: 1, Classes: []int32{1}}})
	require.Error(t, err)
}

func TestBuilderRejectsPrefixBeyondMax(t *testing.T) {
	b, err := NewBuilder(mustAlpha(t), 1)
	require.NoError(t, err)
	err = b.AddPrefix(word.PrefixMax+1, []SuffixEntry{{Suffix: 1, Classes: []int32{1}}})
	require.Error(t, err)
}
