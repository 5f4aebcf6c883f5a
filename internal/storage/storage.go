// Package storage implements the ecurve plain-text and binary
// serialization formats, including the memory-mapped binary reader.
package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/ecurve"
	"github.com/gobics/uproc-go/internal/uerr"
	"github.com/gobics/uproc-go/internal/word"
)

// Magic is the sentinel value bracketing each section of the binary
// format.
const Magic uint64 = 0xd2eadf

const pfxEntrySize = 8 + 8 + 4 + 4 // First, Count, Prev, Next

// streamPrefixRows walks buckets (sorted ascending, already validated
// by ecurve.Builder) and calls yield once per prefix value in
// [0, prefixCount), synthesizing EDGE and empty-gap rows with
// saturated neighbor-offset fields. Factored out from the binary
// writer so it can be
// exercised with a small prefixCount in tests without materializing
// the real (20^12+1)-row address space.
func streamPrefixRows(buckets []ecurve.Bucket, prefixCount uint64, yield func(row ecurve.PrefixEntry) error) error {
	satDist := func(a, b uint64) uint32 {
		var d uint64
		if a > b {
			d = a - b
		} else {
			d = b - a
		}
		if d > uint64(^uint32(0)) {
			return ^uint32(0)
		}
		return uint32(d)
	}

	bi := 0
	var lastNonempty uint64
	haveLast := false

	for p := uint64(0); p < prefixCount; p++ {
		if bi < len(buckets) && buckets[bi].Prefix == p {
			b := buckets[bi]
			if err := yield(ecurve.PrefixEntry{First: b.First, Count: b.Count}); err != nil {
				return err
			}
			lastNonempty = p
			haveLast = true
			bi++
			continue
		}

		if !haveLast {
			// Before the first populated prefix: EDGE, Next points at it.
			var next uint32
			if bi < len(buckets) {
				next = satDist(p, buckets[bi].Prefix)
			}
			if err := yield(ecurve.PrefixEntry{Count: ecurve.EdgeCount, Next: next}); err != nil {
				return err
			}
			continue
		}

		if bi >= len(buckets) {
			// After the last populated prefix: EDGE, Prev points back at it.
			if err := yield(ecurve.PrefixEntry{Count: ecurve.EdgeCount, Prev: satDist(lastNonempty, p)}); err != nil {
				return err
			}
			continue
		}

		// Between two populated prefixes: Count==0, First carries the
		// last suffix index of the lower neighbour.
		lowerLast := uint64(0)
		for _, bb := range buckets {
			if bb.Prefix == lastNonempty {
				lowerLast = bb.First + bb.Count - 1
				break
			}
		}
		row := ecurve.PrefixEntry{
			First: lowerLast,
			Prev:  satDist(lastNonempty, p),
			Next:  satDist(p, buckets[bi].Prefix),
		}
		if err := yield(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBinary serializes ec in the binary on-disk format: fixed
// alphabet/ranks/suffix-count header, the dense prefix table, three
// magic-bracketed sections.
func WriteBinary(w io.Writer, ec *ecurve.Ecurve) error {
	return writeBinaryPrefixRows(w, ec, word.PrefixMax+1)
}

// writeBinaryPrefixRows is WriteBinary with the prefix-table row count
// as a parameter, so tests can produce a complete, openable file
// without the full prefix address space.
func writeBinaryPrefixRows(w io.Writer, ec *ecurve.Ecurve, prefixCount uint64) error {
	bw := bufio.NewWriter(w)

	alpha := ec.Alphabet.String()
	if len(alpha) != alphabet.Size {
		return uerr.New(uerr.InvalidArgument, "alphabet string must be %d bytes", alphabet.Size)
	}
	if _, err := bw.WriteString(alpha); err != nil {
		return uerr.Wrap(uerr.IO, err, "writing alphabet header")
	}
	if err := bw.WriteByte(byte(ec.RanksCount)); err != nil {
		return uerr.Wrap(uerr.IO, err, "writing ranks_count header")
	}
	if err := writeUint64(bw, uint64(len(ec.Suffixes))); err != nil {
		return err
	}

	var rowBuf [pfxEntrySize]byte
	err := streamPrefixRows(ec.Buckets(), prefixCount, func(row ecurve.PrefixEntry) error {
		binary.LittleEndian.PutUint64(rowBuf[0:8], row.First)
		binary.LittleEndian.PutUint64(rowBuf[8:16], row.Count)
		binary.LittleEndian.PutUint32(rowBuf[16:20], row.Prev)
		binary.LittleEndian.PutUint32(rowBuf[20:24], row.Next)
		_, err := bw.Write(rowBuf[:])
		return err
	})
	if err != nil {
		return uerr.Wrap(uerr.IO, err, "writing prefix table")
	}

	if err := writeUint64(bw, Magic); err != nil {
		return err
	}
	for _, s := range ec.Suffixes {
		if err := writeUint64(bw, uint64(s)); err != nil {
			return err
		}
	}
	if err := writeUint64(bw, Magic); err != nil {
		return err
	}
	for _, c := range ec.Classes {
		if err := writeUint64(bw, uint64(int64(c))); err != nil {
			return err
		}
	}
	if err := writeUint64(bw, Magic); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return uerr.Wrap(uerr.IO, err, "flushing ecurve binary")
	}
	return nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return uerr.Wrap(uerr.IO, err, "writing binary ecurve section")
	}
	return nil
}

// WritePlain serializes ec in the human-readable plain-text format:
// a header line, then per-prefix sections with
// their suffix/class lines. Empty prefixes are omitted, so this format
// is practical for small test fixtures even though the binary format's
// dense table is not.
func WritePlain(w io.Writer, ec *ecurve.Ecurve) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, ">> alphabet: %s, suffixes: %d\n", ec.Alphabet.String(), len(ec.Suffixes)); err != nil {
		return uerr.Wrap(uerr.IO, err, "writing plain header")
	}
	for _, b := range ec.Buckets() {
		if _, err := fmt.Fprintf(bw, ">%s %d\n", prefixString(b.Prefix, ec.Alphabet), b.Count); err != nil {
			return uerr.Wrap(uerr.IO, err, "writing plain prefix line")
		}
		for i := uint64(0); i < b.Count; i++ {
			idx := b.First + i
			suffix := ec.Suffixes[idx]
			classes := ec.Classes[idx*uint64(ec.RanksCount) : (idx+1)*uint64(ec.RanksCount)]
			classStrs := make([]string, len(classes))
			for j, c := range classes {
				classStrs[j] = strconv.Itoa(int(c))
			}
			if _, err := fmt.Fprintf(bw, "%s %s\n", suffixString(suffix, ec.Alphabet), strings.Join(classStrs, ",")); err != nil {
				return uerr.Wrap(uerr.IO, err, "writing plain suffix line")
			}
		}
	}
	return bw.Flush()
}

// prefixString and suffixString render the prefix/suffix halves of a
// word.Word's packed representation as amino-acid letters, reusing
// word.Word.String's digit/letter conversion so the plain-text format
// matches word_to_string's encoding exactly.
func prefixString(p uint64, alpha *alphabet.Alphabet) string {
	return word.Word{Prefix: p}.String(alpha)[:word.PrefixLen]
}

func suffixString(s uint32, alpha *alphabet.Alphabet) string {
	return word.Word{Suffix: s}.String(alpha)[word.PrefixLen:]
}

// ReadPlain parses the format WritePlain produces back into an Ecurve.
func ReadPlain(r io.Reader, alpha *alphabet.Alphabet, ranksCount int) (*ecurve.Ecurve, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		return nil, uerr.New(uerr.Format, "empty ecurve plain-text stream")
	}

	var buckets []ecurve.Bucket
	var suffixes []uint32
	var classes []int32

	var cur *ecurve.Bucket
	var remaining uint64

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			fields := strings.Fields(line[1:])
			if len(fields) != 2 {
				return nil, uerr.New(uerr.Format, "malformed prefix line %q", line)
			}
			pfx, err := parsePrefix(fields[0], alpha)
			if err != nil {
				return nil, err
			}
			count, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return nil, uerr.Wrap(uerr.Format, err, "parsing prefix count")
			}
			buckets = append(buckets, ecurve.Bucket{Prefix: pfx, First: uint64(len(suffixes)), Count: count})
			cur = &buckets[len(buckets)-1]
			remaining = count
			continue
		}
		if cur == nil || remaining == 0 {
			return nil, uerr.New(uerr.Format, "suffix line %q outside any prefix section", line)
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, uerr.New(uerr.Format, "malformed suffix line %q", line)
		}
		suffix, err := parseSuffix(fields[0], alpha)
		if err != nil {
			return nil, err
		}
		for _, c := range strings.Split(fields[1], ",") {
			v, err := strconv.Atoi(c)
			if err != nil {
				return nil, uerr.Wrap(uerr.Format, err, "parsing class id")
			}
			classes = append(classes, int32(v))
		}
		suffixes = append(suffixes, suffix)
		remaining--
	}
	if err := scanner.Err(); err != nil {
		return nil, uerr.Wrap(uerr.IO, err, "reading ecurve plain-text stream")
	}

	return ecurve.New(alpha, ranksCount, buckets, suffixes, classes), nil
}

func parsePrefix(s string, alpha *alphabet.Alphabet) (uint64, error) {
	if len(s) != word.PrefixLen {
		return 0, uerr.New(uerr.Format, "prefix string must be %d chars, got %q", word.PrefixLen, s)
	}
	var p uint64
	for i := 0; i < len(s); i++ {
		a := alpha.CharToAmino(s[i])
		if a == alphabet.Invalid {
			return 0, uerr.New(uerr.Format, "invalid amino acid %q in prefix string", s[i])
		}
		p = p*alphabet.Size + uint64(a)
	}
	return p, nil
}

func parseSuffix(s string, alpha *alphabet.Alphabet) (uint32, error) {
	if len(s) != word.SuffixLen {
		return 0, uerr.New(uerr.Format, "suffix string must be %d chars, got %q", word.SuffixLen, s)
	}
	var v uint32
	for i := 0; i < len(s); i++ {
		a := alpha.CharToAmino(s[i])
		if a == alphabet.Invalid {
			return 0, uerr.New(uerr.Format, "invalid amino acid %q in suffix string", s[i])
		}
		v = (v << 5) | uint32(a)
	}
	return v, nil
}
