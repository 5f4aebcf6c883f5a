package word_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/word"
)

func mustAlphabet(t *testing.T) *alphabet.Alphabet {
	t.Helper()
	a, err := alphabet.New("AGSTPKRQEDNHYWFMLIVC")
	require.NoError(t, err)
	return a
}

func TestWordStringRoundTrip(t *testing.T) {
	a := mustAlphabet(t)
	input := "NERDGEEKPETERPETER" // 18 chars
	require.Len(t, input, word.Len)

	w, err := word.FromString(input, a)
	require.NoError(t, err)
	require.Equal(t, input, w.String(a))
}

func TestWordFromStringTooShort(t *testing.T) {
	a := mustAlphabet(t)
	_, err := word.FromString("SHORT", a)
	require.Error(t, err)
}

func TestWordAppendSetsRightmostAmino(t *testing.T) {
	a := mustAlphabet(t)
	w, err := word.FromString("NERDGEEKPETERPETER", a)
	require.NoError(t, err)

	amino := a.CharToAmino('C')
	w2 := w.Append(amino)
	require.Equal(t, amino, w2.AminoAt(word.SuffixLen-1))
}

func TestWordOrdering(t *testing.T) {
	a := mustAlphabet(t)
	w1, err := word.FromString("AAAAAAAAAAAAAAAAAA", a)
	require.NoError(t, err)
	w2, err := word.FromString("AAAAAAAAAAAAAAAAAG", a)
	require.NoError(t, err)
	require.Equal(t, -1, w1.Compare(w2))
	require.Equal(t, 1, w2.Compare(w1))
	require.Equal(t, 0, w1.Compare(w1))
}

func TestIterYieldsAscendingPositions(t *testing.T) {
	a := mustAlphabet(t)
	seq := "NERDGEEKPETERPETERX" // trailing extra valid char shifts window
	it := word.NewIter(seq, a)

	idx1, fwd1, rev1, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, 0, idx1)
	require.Equal(t, "NERDGEEKPETERPETER", fwd1.String(a))

	idx2, fwd2, _, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, 1, idx2)
	require.Equal(t, "ERDGEEKPETERPETERX", fwd2.String(a))
	require.NotEqual(t, fwd1, fwd2)
	_ = rev1

	_, _, _, ok = it.Next()
	require.False(t, ok)
}

func TestIterResetsOnInvalidCharacter(t *testing.T) {
	a := mustAlphabet(t)
	// 18 valid, then invalid '1', then 18 valid again: should only yield twice.
	seq := "NERDGEEKPETERPETER1NERDGEEKPETERPETER"
	it := word.NewIter(seq, a)

	count := 0
	var lastIdx int
	for {
		idx, _, _, ok := it.Next()
		if !ok {
			break
		}
		lastIdx = idx
		count++
	}
	require.Equal(t, 2, count)
	require.Equal(t, len("NERDGEEKPETERPETER1"), lastIdx)
}

func TestIterReverseIsMirrorOfForward(t *testing.T) {
	a := mustAlphabet(t)
	seq := "NERDGEEKPETERPETER"
	it := word.NewIter(seq, a)
	_, fwd, rev, ok := it.Next()
	require.True(t, ok)

	fwdStr := fwd.String(a)
	revStr := rev.String(a)
	for i := 0; i < word.Len; i++ {
		require.Equal(t, fwdStr[i], revStr[word.Len-1-i])
	}
}
