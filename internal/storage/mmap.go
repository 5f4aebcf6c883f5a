package storage

import (
	"encoding/binary"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/ecurve"
	"github.com/gobics/uproc-go/internal/uerr"
	"github.com/gobics/uproc-go/internal/word"
)

const headerSize = alphabet.Size + 1 + 8

// Mapped is a memory-mapped binary ecurve: Lookup indexes directly into
// the mapped prefix table in O(1) instead of reconstructing an
// in-memory ecurve.Ecurve, which is the whole point of the on-disk
// dense layout.
type Mapped struct {
	f          *os.File
	region     mmap.MMap
	alphabet   *alphabet.Alphabet
	ranksCount int
	suffixN    uint64
	prefixRows uint64

	prefixOff  uint64
	suffixOff  uint64
	classesOff uint64
}

// OpenMapped opens path, a file written by WriteBinary, and maps it
// read-only. Callers must call Close when done.
func OpenMapped(path string) (*Mapped, error) {
	return openMapped(path, word.PrefixMax+1)
}

// openMapped is OpenMapped with the prefix-table row count as a
// parameter, matching writeBinaryPrefixRows on the writing side.
func openMapped(path string, prefixRows uint64) (*Mapped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, uerr.Wrap(uerr.IO, err, "opening ecurve file")
	}
	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, uerr.Wrap(uerr.IO, err, "mmap ecurve file")
	}
	m := &Mapped{f: f, region: region, prefixRows: prefixRows}
	if err := m.parseHeader(); err != nil {
		region.Unmap()
		f.Close()
		return nil, err
	}
	return m, nil
}

func (m *Mapped) parseHeader() error {
	if len(m.region) < headerSize {
		return uerr.New(uerr.Format, "ecurve file too small for header")
	}
	alphaStr := string(m.region[0:alphabet.Size])
	alpha, err := alphabet.New(alphaStr)
	if err != nil {
		return uerr.Wrap(uerr.Format, err, "invalid alphabet in ecurve header")
	}
	m.alphabet = alpha
	m.ranksCount = int(m.region[alphabet.Size])
	m.suffixN = binary.LittleEndian.Uint64(m.region[alphabet.Size+1 : headerSize])

	m.prefixOff = uint64(headerSize)
	magic1Off := m.prefixOff + m.prefixRows*uint64(pfxEntrySize)
	m.suffixOff = magic1Off + 8
	magic2Off := m.suffixOff + m.suffixN*8
	m.classesOff = magic2Off + 8
	magic3Off := m.classesOff + m.suffixN*uint64(m.ranksCount)*8

	want := magic3Off + 8
	if uint64(len(m.region)) != want {
		return uerr.New(uerr.Format, "ecurve file size %d does not match expected %d", len(m.region), want)
	}
	for _, off := range []uint64{magic1Off, magic2Off, magic3Off} {
		if binary.LittleEndian.Uint64(m.region[off:off+8]) != Magic {
			return uerr.New(uerr.Format, "bad magic number at offset %d", off)
		}
	}
	return nil
}

// Alphabet returns the alphabet recorded in the file header.
func (m *Mapped) Alphabet() *alphabet.Alphabet { return m.alphabet }

// RanksCount returns the ranks_count recorded in the file header.
func (m *Mapped) RanksCount() int { return m.ranksCount }

func (m *Mapped) prefixRow(p uint64) ecurve.PrefixEntry {
	off := m.prefixOff + p*uint64(pfxEntrySize)
	row := m.region[off : off+uint64(pfxEntrySize)]
	return ecurve.PrefixEntry{
		First: binary.LittleEndian.Uint64(row[0:8]),
		Count: binary.LittleEndian.Uint64(row[8:16]),
		Prev:  binary.LittleEndian.Uint32(row[16:20]),
		Next:  binary.LittleEndian.Uint32(row[20:24]),
	}
}

func (m *Mapped) suffixAt(i uint64) uint32 {
	off := m.suffixOff + i*8
	return uint32(binary.LittleEndian.Uint64(m.region[off : off+8]))
}

func (m *Mapped) classesAt(i uint64) []int32 {
	out := make([]int32, m.ranksCount)
	base := m.classesOff + i*uint64(m.ranksCount)*8
	for r := 0; r < m.ranksCount; r++ {
		off := base + uint64(r)*8
		out[r] = int32(int64(binary.LittleEndian.Uint64(m.region[off : off+8])))
	}
	return out
}

// Lookup performs the O(1)-prefix / O(log n)-suffix nearest-neighbour
// search directly against the mapped file, reading rows out of the
// mapped region instead of a process-resident array.
func (m *Mapped) Lookup(w word.Word) (lower, upper word.Word, lowerClasses, upperClasses []int32, kind ecurve.Kind) {
	row := m.prefixRow(w.Prefix)

	switch {
	case row.Count == ecurve.EdgeCount:
		tmp := w.Prefix
		if row.Prev == 0 {
			for tmp < m.prefixRows-1 {
				r := m.prefixRow(tmp)
				if r.Count != ecurve.EdgeCount {
					break
				}
				if r.Next == 0 {
					break
				}
				tmp += uint64(r.Next)
			}
			idx := uint64(0)
			return m.word(tmp, idx), m.word(tmp, idx), m.classesAt(idx), m.classesAt(idx), ecurve.OOB
		}
		for tmp > 0 {
			r := m.prefixRow(tmp)
			if r.Count != ecurve.EdgeCount {
				idx := r.First + r.Count - 1
				return m.word(tmp, idx), m.word(tmp, idx), m.classesAt(idx), m.classesAt(idx), ecurve.OOB
			}
			if r.Prev == 0 {
				break
			}
			tmp -= uint64(r.Prev)
		}
		return m.word(tmp, 0), m.word(tmp, 0), m.classesAt(0), m.classesAt(0), ecurve.OOB

	case row.Count == 0:
		lowerP := w.Prefix
		for {
			r := m.prefixRow(lowerP)
			if r.Count > 0 && r.Count != ecurve.EdgeCount {
				break
			}
			lowerP -= uint64(r.Prev)
		}
		lowerRow := m.prefixRow(lowerP)
		loIdx := lowerRow.First + lowerRow.Count - 1

		upperP := w.Prefix
		for {
			r := m.prefixRow(upperP)
			if r.Count > 0 && r.Count != ecurve.EdgeCount {
				break
			}
			upperP += uint64(r.Next)
		}
		upperRow := m.prefixRow(upperP)
		hiIdx := upperRow.First

		return m.word(lowerP, loIdx), m.word(upperP, hiIdx), m.classesAt(loIdx), m.classesAt(hiIdx), ecurve.Inexact

	default:
		first := row.First
		last := row.First + row.Count - 1

		// Suffix outside this prefix's stored range: bracket against the
		// adjacent populated prefix, collapsing at the index extremes.
		// Prev/Next distances saturate at the uint32 maximum, so the
		// walk may take several hops across a long empty run.
		if w.Suffix < m.suffixAt(first) {
			if first == 0 {
				return m.word(w.Prefix, first), m.word(w.Prefix, first),
					m.classesAt(first), m.classesAt(first), ecurve.OOB
			}
			lowerP := w.Prefix - 1
			for {
				r := m.prefixRow(lowerP)
				if r.Count > 0 && r.Count != ecurve.EdgeCount {
					break
				}
				lowerP -= uint64(r.Prev)
			}
			loIdx := first - 1
			return m.word(lowerP, loIdx), m.word(w.Prefix, first),
				m.classesAt(loIdx), m.classesAt(first), ecurve.Inexact
		}
		if w.Suffix > m.suffixAt(last) {
			if last == m.suffixN-1 {
				return m.word(w.Prefix, last), m.word(w.Prefix, last),
					m.classesAt(last), m.classesAt(last), ecurve.OOB
			}
			upperP := w.Prefix + 1
			for {
				r := m.prefixRow(upperP)
				if r.Count > 0 && r.Count != ecurve.EdgeCount {
					break
				}
				upperP += uint64(r.Next)
			}
			hiIdx := last + 1
			return m.word(w.Prefix, last), m.word(upperP, hiIdx),
				m.classesAt(last), m.classesAt(hiIdx), ecurve.Inexact
		}

		lo, hi := first, last
		for hi > lo+1 {
			mid := (lo + hi) / 2
			v := m.suffixAt(mid)
			switch {
			case v == w.Suffix:
				lo, hi = mid, mid
			case w.Suffix > v:
				lo = mid
			default:
				hi = mid
			}
		}
		kind = ecurve.Inexact
		if m.suffixAt(lo) == w.Suffix {
			hi = lo
			kind = ecurve.Exact
		} else if m.suffixAt(hi) == w.Suffix {
			lo = hi
			kind = ecurve.Exact
		}
		return m.word(w.Prefix, lo), m.word(w.Prefix, hi), m.classesAt(lo), m.classesAt(hi), kind
	}
}

func (m *Mapped) word(prefix, idx uint64) word.Word {
	return word.Word{Prefix: prefix, Suffix: m.suffixAt(idx)}
}

// Close unmaps and closes the underlying file.
func (m *Mapped) Close() error {
	if err := m.region.Unmap(); err != nil {
		return uerr.Wrap(uerr.IO, err, "unmapping ecurve file")
	}
	return m.f.Close()
}
