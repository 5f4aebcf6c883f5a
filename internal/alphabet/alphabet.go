// Package alphabet provides the bijective mapping between the 20 amino
// acid letters and their 5-bit codes.
package alphabet

import (
	"github.com/gobics/uproc-go/internal/uerr"
)

// Size is the number of distinct amino acids.
const Size = 20

// Invalid is the sentinel amino-acid code returned for a character that
// isn't part of the alphabet.
const Invalid = -1

// Amino is an integer in [0, Size) identifying a residue.
type Amino = int

// Alphabet is a bijective map between characters and amino-acid codes,
// fixed at construction from a 20-character string (the order gives each
// letter its code).
type Alphabet struct {
	charToAmino [256]int8
	aminoToChar [Size]byte
}

// New builds an Alphabet from a string of exactly Size distinct uppercase
// letters. It fails with uerr.InvalidArgument if the string has the
// wrong length, contains a character outside 'A'..'Z', or contains a
// duplicate.
func New(letters string) (*Alphabet, error) {
	if len(letters) != Size {
		return nil, uerr.New(uerr.InvalidArgument,
			"alphabet must have exactly %d characters, got %d", Size, len(letters))
	}

	a := &Alphabet{}
	for i := range a.charToAmino {
		a.charToAmino[i] = Invalid
	}

	for i := 0; i < Size; i++ {
		c := letters[i]
		if c < 'A' || c > 'Z' {
			return nil, uerr.New(uerr.InvalidArgument,
				"alphabet character %q is not an uppercase letter", c)
		}
		if a.charToAmino[c] != Invalid {
			return nil, uerr.New(uerr.InvalidArgument,
				"alphabet character %q appears more than once", c)
		}
		a.charToAmino[c] = int8(i)
		a.aminoToChar[i] = c
	}
	return a, nil
}

// CharToAmino returns the amino-acid code for c, or Invalid if c isn't in
// the alphabet.
func (a *Alphabet) CharToAmino(c byte) Amino {
	return int(a.charToAmino[c])
}

// AminoToChar returns the character for amino, or 0 if amino is out of
// range.
func (a *Alphabet) AminoToChar(amino Amino) byte {
	if amino < 0 || amino >= Size {
		return 0
	}
	return a.aminoToChar[amino]
}

// String reconstructs the alphabet's original 20-character definition
// string.
func (a *Alphabet) String() string {
	return string(a.aminoToChar[:])
}
