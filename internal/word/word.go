// Package word implements the fixed-length (18 amino acid) word codec:
// splitting a word into a 12-letter prefix (packed as an integer) and a
// 6-letter suffix (packed into 30 bits), plus the append/prepend shift
// operations and the sequence word iterator.
package word

import (
	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/uerr"
)

const (
	// AminoBits is the number of bits used to encode one amino acid.
	AminoBits = 5
	// PrefixLen is the number of amino acids packed into Word.Prefix.
	PrefixLen = 12
	// SuffixLen is the number of amino acids packed into Word.Suffix.
	SuffixLen = 6
	// Len is the total word length in amino acids.
	Len = PrefixLen + SuffixLen

	suffixBits = SuffixLen * AminoBits
	suffixMask = (uint32(1) << suffixBits) - 1
)

// PrefixMax is the largest value a Word's Prefix field can take: every
// prefix lies in [0, PrefixMax].
var PrefixMax = func() uint64 {
	v := uint64(1)
	for i := 0; i < PrefixLen; i++ {
		v *= alphabet.Size
	}
	return v - 1
}()

// Word is a fixed-length (Len) sequence of amino acids represented as a
// prefix integer and a packed suffix bitfield, ordered lexicographically
// on (Prefix, Suffix).
type Word struct {
	Prefix uint64
	Suffix uint32
}

// AminoAt returns the amino acid at suffix position n (0 = leftmost
// amino of the suffix).
func (w Word) AminoAt(n int) alphabet.Amino {
	shift := uint(AminoBits * (SuffixLen - 1 - n))
	return int((w.Suffix >> shift) & ((1 << AminoBits) - 1))
}

// Append shifts w left by one amino acid and appends a: the leftmost
// amino of the suffix moves into the prefix, and a becomes the new
// rightmost amino of the suffix.
func (w Word) Append(a alphabet.Amino) Word {
	leaving := w.AminoAt(0)
	w.Prefix = (w.Prefix*alphabet.Size + uint64(leaving)) % (PrefixMax + 1)
	w.Suffix = (w.Suffix << AminoBits) & suffixMask
	w.Suffix |= uint32(a)
	return w
}

// Prepend shifts w right by one amino acid and prepends a, the inverse
// of Append.
func (w Word) Prepend(a alphabet.Amino) Word {
	leaving := alphabet.Amino(w.Prefix % alphabet.Size)
	w.Prefix /= alphabet.Size
	w.Suffix >>= AminoBits
	w.Prefix += uint64(a) * ((PrefixMax + 1) / alphabet.Size)
	w.Suffix |= uint32(leaving) << (AminoBits * (SuffixLen - 1))
	return w
}

// StartsWith reports whether w's leftmost amino acid is a.
func (w Word) StartsWith(a alphabet.Amino) bool {
	first := w.Prefix / ((PrefixMax + 1) / alphabet.Size)
	return alphabet.Amino(first) == a
}

// Compare returns -1, 0 or 1 comparing w to other lexicographically on
// (Prefix, Suffix).
func (w Word) Compare(other Word) int {
	switch {
	case w.Prefix < other.Prefix:
		return -1
	case w.Prefix > other.Prefix:
		return 1
	case w.Suffix < other.Suffix:
		return -1
	case w.Suffix > other.Suffix:
		return 1
	default:
		return 0
	}
}

// Equal reports whether w and other denote the same word.
func (w Word) Equal(other Word) bool {
	return w.Prefix == other.Prefix && w.Suffix == other.Suffix
}

// FromString builds a Word from the first Len characters of s under
// alpha. It fails with uerr.InvalidArgument if s is shorter than Len or
// contains a character outside alpha.
func FromString(s string, alpha *alphabet.Alphabet) (Word, error) {
	if len(s) < Len {
		return Word{}, uerr.New(uerr.InvalidArgument,
			"input string too short: %d chars instead of %d", len(s), Len)
	}
	var w Word
	for i := 0; i < Len; i++ {
		a := alpha.CharToAmino(s[i])
		if a == alphabet.Invalid {
			return Word{}, uerr.New(uerr.InvalidArgument,
				"invalid amino acid %q", s[i])
		}
		w = w.Append(a)
	}
	return w, nil
}

// String renders w back to its Len-character representation under alpha.
func (w Word) String(alpha *alphabet.Alphabet) string {
	buf := make([]byte, Len)
	p := w.Prefix
	for i := PrefixLen - 1; i >= 0; i-- {
		buf[i] = alpha.AminoToChar(alphabet.Amino(p % alphabet.Size))
		p /= alphabet.Size
	}
	s := w.Suffix
	for i := SuffixLen - 1; i >= 0; i-- {
		buf[i+PrefixLen] = alpha.AminoToChar(alphabet.Amino(s & ((1 << AminoBits) - 1)))
		s >>= AminoBits
	}
	return string(buf)
}

// Iter yields every position in a sequence where Len consecutive
// characters are valid amino acids under alpha, producing both the
// forward word and the word read right-to-left. Invalid
// characters reset the accumulator; Len more valid characters must
// accumulate before the iterator yields again. Once a word has been
// yielded, the window slides by one valid character per subsequent
// yield (the accumulated word is carried between calls).
type Iter struct {
	seq     string
	alpha   *alphabet.Alphabet
	pos     int
	fwd     Word
	rev     Word
	started bool
}

// NewIter creates a word iterator over seq.
func NewIter(seq string, alpha *alphabet.Alphabet) *Iter {
	return &Iter{seq: seq, alpha: alpha}
}

// Next advances the iterator. It returns ok=false once the sequence is
// exhausted.
func (it *Iter) Next() (index int, fwd, rev Word, ok bool) {
	need := Len
	if it.started {
		need = 1
	}
	got := 0
	for it.pos < len(it.seq) {
		c := it.seq[it.pos]
		it.pos++
		a := it.alpha.CharToAmino(c)
		if a == alphabet.Invalid {
			it.started = false
			need = Len
			got = 0
			continue
		}
		it.fwd = it.fwd.Append(a)
		it.rev = it.rev.Prepend(a)
		got++
		if got == need {
			it.started = true
			return it.pos - Len, it.fwd, it.rev, true
		}
	}
	return 0, Word{}, Word{}, false
}
