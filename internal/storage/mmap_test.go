package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobics/uproc-go/internal/ecurve"
	"github.com/gobics/uproc-go/internal/word"
)

// mapSmall writes a two-bucket ecurve into a binary file with an
// 8-row prefix table (the same small-prefixCount trick as
// TestStreamPrefixRows, since the production row count cannot be
// materialized in a test) and maps it back. Layout:
//
//	prefix 2: suffixes 5 (class 1), 9 (class 2)
//	prefix 5: suffix 3 (class 3)
//
// so rows 0-1 are EDGE, rows 3-4 are empty gap rows, and rows 6-7 are
// EDGE again.
func mapSmall(t *testing.T) *Mapped {
	t.Helper()

	b, err := ecurve.NewBuilder(mustAlpha(t), 1)
	require.NoError(t, err)
	require.NoError(t, b.AddPrefix(2, []ecurve.SuffixEntry{
		{Suffix: 5, Classes: []int32{1}},
		{Suffix: 9, Classes: []int32{2}},
	}))
	require.NoError(t, b.AddPrefix(5, []ecurve.SuffixEntry{
		{Suffix: 3, Classes: []int32{3}},
	}))
	ec, err := b.Finalize()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "small.ecurve")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, writeBinaryPrefixRows(f, ec, 8))
	require.NoError(t, f.Close())

	m, err := openMapped(path, 8)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMappedHeader(t *testing.T) {
	m := mapSmall(t)
	require.Equal(t, mustAlpha(t).String(), m.Alphabet().String())
	require.Equal(t, 1, m.RanksCount())
}

func TestMappedLookupExact(t *testing.T) {
	m := mapSmall(t)
	lower, upper, lowerClasses, upperClasses, kind := m.Lookup(word.Word{Prefix: 2, Suffix: 5})
	require.Equal(t, ecurve.Exact, kind)
	require.Equal(t, lower, upper)
	require.Equal(t, word.Word{Prefix: 2, Suffix: 5}, lower)
	require.Equal(t, int32(1), lowerClasses[0])
	require.Equal(t, int32(1), upperClasses[0])
}

func TestMappedLookupInexactWithinBucket(t *testing.T) {
	m := mapSmall(t)
	lower, upper, lowerClasses, upperClasses, kind := m.Lookup(word.Word{Prefix: 2, Suffix: 7})
	require.Equal(t, ecurve.Inexact, kind)
	require.Equal(t, word.Word{Prefix: 2, Suffix: 5}, lower)
	require.Equal(t, word.Word{Prefix: 2, Suffix: 9}, upper)
	require.Equal(t, int32(1), lowerClasses[0])
	require.Equal(t, int32(2), upperClasses[0])
}

func TestMappedLookupAcrossEmptyGapRows(t *testing.T) {
	m := mapSmall(t)
	for _, p := range []uint64{3, 4} {
		lower, upper, lowerClasses, upperClasses, kind := m.Lookup(word.Word{Prefix: p, Suffix: 0})
		require.Equal(t, ecurve.Inexact, kind)
		require.Equal(t, word.Word{Prefix: 2, Suffix: 9}, lower)
		require.Equal(t, word.Word{Prefix: 5, Suffix: 3}, upper)
		require.Equal(t, int32(2), lowerClasses[0])
		require.Equal(t, int32(3), upperClasses[0])
	}
}

func TestMappedLookupEdgeBelowFirstPrefix(t *testing.T) {
	m := mapSmall(t)
	for _, p := range []uint64{0, 1} {
		lower, upper, _, _, kind := m.Lookup(word.Word{Prefix: p, Suffix: 0})
		require.Equal(t, ecurve.OOB, kind)
		require.Equal(t, lower, upper)
		require.Equal(t, word.Word{Prefix: 2, Suffix: 5}, lower)
	}
}

func TestMappedLookupEdgeAboveLastPrefix(t *testing.T) {
	m := mapSmall(t)
	for _, p := range []uint64{6, 7} {
		lower, upper, _, _, kind := m.Lookup(word.Word{Prefix: p, Suffix: 0})
		require.Equal(t, ecurve.OOB, kind)
		require.Equal(t, lower, upper)
		require.Equal(t, word.Word{Prefix: 5, Suffix: 3}, lower)
	}
}

func TestMappedLookupBelowBucketWalksToPreviousPrefix(t *testing.T) {
	m := mapSmall(t)
	// Prefix 5 is populated but suffix 1 is below its only entry (3):
	// the lower neighbour walk has to cross the empty rows 4 and 3 to
	// land on prefix 2's last entry.
	lower, upper, lowerClasses, upperClasses, kind := m.Lookup(word.Word{Prefix: 5, Suffix: 1})
	require.Equal(t, ecurve.Inexact, kind)
	require.Equal(t, word.Word{Prefix: 2, Suffix: 9}, lower)
	require.Equal(t, word.Word{Prefix: 5, Suffix: 3}, upper)
	require.Equal(t, int32(2), lowerClasses[0])
	require.Equal(t, int32(3), upperClasses[0])
}

func TestMappedLookupAboveBucketWalksToNextPrefix(t *testing.T) {
	m := mapSmall(t)
	// Prefix 2 is populated but suffix 15 is above its last entry (9):
	// the upper neighbour walk crosses the empty rows to prefix 5.
	lower, upper, lowerClasses, upperClasses, kind := m.Lookup(word.Word{Prefix: 2, Suffix: 15})
	require.Equal(t, ecurve.Inexact, kind)
	require.Equal(t, word.Word{Prefix: 2, Suffix: 9}, lower)
	require.Equal(t, word.Word{Prefix: 5, Suffix: 3}, upper)
	require.Equal(t, int32(2), lowerClasses[0])
	require.Equal(t, int32(3), upperClasses[0])
}

func TestMappedLookupCollapsesAtIndexExtremes(t *testing.T) {
	m := mapSmall(t)

	lower, upper, _, _, kind := m.Lookup(word.Word{Prefix: 2, Suffix: 1})
	require.Equal(t, ecurve.OOB, kind)
	require.Equal(t, lower, upper)
	require.Equal(t, word.Word{Prefix: 2, Suffix: 5}, lower)

	lower, upper, _, _, kind = m.Lookup(word.Word{Prefix: 5, Suffix: 100})
	require.Equal(t, ecurve.OOB, kind)
	require.Equal(t, lower, upper)
	require.Equal(t, word.Word{Prefix: 5, Suffix: 3}, lower)
}

func TestOpenMappedRejectsBadMagic(t *testing.T) {
	b, err := ecurve.NewBuilder(mustAlpha(t), 1)
	require.NoError(t, err)
	require.NoError(t, b.AddPrefix(2, []ecurve.SuffixEntry{{Suffix: 5, Classes: []int32{1}}}))
	ec, err := b.Finalize()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bad.ecurve")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, writeBinaryPrefixRows(f, ec, 8))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff // corrupt the trailing magic number
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = openMapped(path, 8)
	require.Error(t, err)
}

func TestOpenMappedRejectsTruncatedFile(t *testing.T) {
	b, err := ecurve.NewBuilder(mustAlpha(t), 1)
	require.NoError(t, err)
	require.NoError(t, b.AddPrefix(2, []ecurve.SuffixEntry{{Suffix: 5, Classes: []int32{1}}}))
	ec, err := b.Finalize()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "short.ecurve")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, writeBinaryPrefixRows(f, ec, 8))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o644))

	_, err = openMapped(path, 8)
	require.Error(t, err)
}
