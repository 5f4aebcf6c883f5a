// Package orf implements the open reading frame iterator: six-frame
// translation of a nucleotide sequence under the IUPAC-degenerate codon
// model, stop-codon segmentation, codon-score accumulation, and a
// caller-supplied length/score threshold filter.
package orf

import (
	"strings"

	"github.com/gobics/uproc-go/internal/codon"
)

// ORF is one open reading frame.
type ORF struct {
	Protein string
	Start   int // 0-based offset in the original sequence of the ORF's leftmost nucleotide
	Length  int // amino acid length of Protein
	Frame   int // 0..2 forward, 3..5 reverse-complement
	Score   float64
}

// Filter decides whether an ORF survives, given the original sequence,
// its length, and its GC fraction.
type Filter func(o ORF, seq string, seqLen int, gc float64) bool

var iupacComplement = map[byte]byte{
	'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C', 'U': 'A',
	'R': 'Y', 'Y': 'R', 'S': 'S', 'W': 'W', 'K': 'M', 'M': 'K',
	'B': 'V', 'V': 'B', 'D': 'H', 'H': 'D', 'N': 'N',
}

// ReverseComplement returns the IUPAC-aware reverse complement of seq.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		c := seq[len(seq)-1-i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		comp, ok := iupacComplement[c]
		if !ok {
			comp = 'N'
		}
		out[i] = comp
	}
	return string(out)
}

// GCFraction returns the fraction of G/C bases in seq (ambiguity codes
// other than G/C/S are not counted).
func GCFraction(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'G', 'C', 'g', 'c', 'S', 's':
			gc++
		}
	}
	return float64(gc) / float64(len(seq))
}

// Iterate walks all six reading frames of seq, yielding every ORF
// bounded by stop codons (or the sequence end) and accumulating each
// codon's score from the 64-entry scores table. filter, if non-nil,
// drops ORFs it rejects; a nil filter accepts everything.
func Iterate(seq string, scores codon.ScoreTable, filter Filter) []ORF {
	n := len(seq)
	gc := GCFraction(seq)
	rc := ReverseComplement(seq)

	var out []ORF
	for frame := 0; frame < 6; frame++ {
		src := seq
		if frame >= 3 {
			src = rc
		}
		offset := frame % 3
		for _, o := range scanFrame(src, offset, frame, n, scores) {
			if filter == nil || filter(o, seq, n, gc) {
				out = append(out, o)
			}
		}
	}
	return out
}

// scanFrame translates one reading frame of src starting at offset,
// splitting at stop codons (and at src's end) into ORF records. start
// positions are reported in original-sequence coordinates: identical to
// the in-frame codon offset for forward frames (0..2), and mirrored
// across origLen for reverse frames (3..5), since src is already the
// reverse complement.
func scanFrame(src string, offset, frame, origLen int, scores codon.ScoreTable) []ORF {
	var out []ORF
	var protein strings.Builder
	var score float64
	segStart := offset

	flush := func(end int) {
		if protein.Len() == 0 {
			return
		}
		start := segStart
		if frame >= 3 {
			start = origLen - end
		}
		out = append(out, ORF{
			Protein: protein.String(),
			Start:   start,
			Length:  protein.Len(),
			Frame:   frame,
			Score:   score,
		})
		protein.Reset()
		score = 0
	}

	i := offset
	for i+3 <= len(src) {
		c, err := codon.FromString(src[i : i+3])
		if err != nil {
			flush(i)
			i += 3
			segStart = i
			continue
		}
		if codon.IsStop(c) {
			flush(i)
			i += 3
			segStart = i
			continue
		}
		amino, idx, ok := codon.Translate(c)
		protein.WriteByte(amino)
		if ok {
			score += scores[idx]
		}
		i += 3
	}
	flush(i)
	return out
}

// LengthScoreFilter builds a Filter that keeps ORFs at least minLength
// amino acids long with a score at or above minScore.
func LengthScoreFilter(minLength int, minScore float64) Filter {
	return func(o ORF, seq string, seqLen int, gc float64) bool {
		return o.Length >= minLength && o.Score >= minScore
	}
}

// ThresholdMatrix holds a calibrated score threshold per (GC percent,
// sequence length) cell, the format produced by builder calibration
// and consulted by GCLengthThreshold. Rows are indexed
// by GC percent in [0, 100]; each row's columns are indexed by sequence
// length - 1.
type ThresholdMatrix struct {
	Rows [][]float64
}

// At returns the threshold for gcPercent/seqLen, clamping both indices
// to the matrix's last populated row/column.
func (m *ThresholdMatrix) At(gcPercent, seqLen int) float64 {
	if len(m.Rows) == 0 {
		return 0
	}
	row := gcPercent
	if row < 0 {
		row = 0
	}
	if row >= len(m.Rows) {
		row = len(m.Rows) - 1
	}
	cols := m.Rows[row]
	if len(cols) == 0 {
		return 0
	}
	col := seqLen - 1
	if col < 0 {
		col = 0
	}
	if col >= len(cols) {
		col = len(cols) - 1
	}
	return cols[col]
}

// GCLengthThreshold builds a Filter from a calibrated threshold matrix:
// an ORF survives if it meets minLength and its score is at or above
// the matrix's threshold for its (rounded GC percent, amino length)
// cell.
func GCLengthThreshold(matrix *ThresholdMatrix, minLength int) Filter {
	return func(o ORF, seq string, seqLen int, gc float64) bool {
		if o.Length < minLength {
			return false
		}
		gcPercent := int(gc*100 + 0.5)
		return o.Score >= matrix.At(gcPercent, o.Length)
	}
}
