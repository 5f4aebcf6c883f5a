// Package substmat implements the six positional 20x20 amino-acid
// substitution matrices and the suffix-pair alignment that turns two
// word suffixes into a 6-element positional similarity vector.
package substmat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/uerr"
	"github.com/gobics/uproc-go/internal/word"
)

// Matrix holds six 20x20 positional similarity matrices, one per suffix
// position.
type Matrix struct {
	values [word.SuffixLen][alphabet.Size][alphabet.Size]float64
}

// New returns a zero-valued substitution matrix.
func New() *Matrix {
	return &Matrix{}
}

// Set stores the similarity score for (position, aminoA, aminoB).
func (m *Matrix) Set(position int, a, b alphabet.Amino, score float64) error {
	if position < 0 || position >= word.SuffixLen {
		return uerr.New(uerr.InvalidArgument, "substitution matrix position %d out of range", position)
	}
	if a < 0 || a >= alphabet.Size || b < 0 || b >= alphabet.Size {
		return uerr.New(uerr.InvalidArgument, "amino acid index out of range")
	}
	m.values[position][a][b] = score
	return nil
}

// Get returns the similarity score for (position, aminoA, aminoB).
func (m *Matrix) Get(position int, a, b alphabet.Amino) float64 {
	return m.values[position][a][b]
}

// AlignSuffixes computes the 6-element positional score vector between
// two word suffixes: d[i] = substmat[i][amino_of_a][amino_of_b].
func (m *Matrix) AlignSuffixes(a, b word.Word) [word.SuffixLen]float64 {
	var d [word.SuffixLen]float64
	for i := 0; i < word.SuffixLen; i++ {
		d[i] = m.values[i][a.AminoAt(i)][b.AminoAt(i)]
	}
	return d
}

// Load parses six successive 20x20 decimal matrices, whitespace
// separated.
func Load(r io.Reader) (*Matrix, error) {
	m := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var fields []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields = append(fields, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, uerr.Wrap(uerr.IO, err, "reading substitution matrix")
	}

	want := word.SuffixLen * alphabet.Size * alphabet.Size
	if len(fields) != want {
		return nil, uerr.New(uerr.Format,
			"substitution matrix expects %d values, found %d", want, len(fields))
	}

	idx := 0
	for pos := 0; pos < word.SuffixLen; pos++ {
		for a := 0; a < alphabet.Size; a++ {
			for b := 0; b < alphabet.Size; b++ {
				v, err := strconv.ParseFloat(fields[idx], 64)
				if err != nil {
					return nil, uerr.Wrap(uerr.Format, err, "parsing substitution matrix value %d", idx)
				}
				m.values[pos][a][b] = v
				idx++
			}
		}
	}
	return m, nil
}

// Store writes m in the same six-successive-20x20-matrix text format
// that Load reads.
func Store(w io.Writer, m *Matrix) error {
	bw := bufio.NewWriter(w)
	for pos := 0; pos < word.SuffixLen; pos++ {
		for a := 0; a < alphabet.Size; a++ {
			for b := 0; b < alphabet.Size; b++ {
				if b > 0 {
					if _, err := bw.WriteString(" "); err != nil {
						return uerr.Wrap(uerr.IO, err, "writing substitution matrix")
					}
				}
				if _, err := fmt.Fprintf(bw, "%g", m.values[pos][a][b]); err != nil {
					return uerr.Wrap(uerr.IO, err, "writing substitution matrix")
				}
			}
			if err := bw.WriteByte('\n'); err != nil {
				return uerr.Wrap(uerr.IO, err, "writing substitution matrix")
			}
		}
	}
	return bw.Flush()
}
