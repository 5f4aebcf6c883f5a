// Package database implements the on-disk protein classification
// database: a directory holding the forward and reverse ecurves, the
// class-id map, calibrated score-threshold matrices, and a small
// metadata file.
package database

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"blainsmith.com/go/seahash"

	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/ecurve"
	"github.com/gobics/uproc-go/internal/storage"
	"github.com/gobics/uproc-go/internal/uerr"
	"github.com/gobics/uproc-go/orf"
)

// Record is one classified training sequence consumed by the builder:
// a FASTA record's sequence plus one class id per rank, already
// resolved from the header by the caller.
type Record struct {
	Header   string
	Sequence string
	Classes  []int32 // length ranksCount
}

// Metadata is the small text file recorded alongside a built database:
// alphabet, ranks, version, creation time, input file name, and a
// content hash used as a stable database id.
type Metadata struct {
	Alphabet  string
	Ranks     int
	Version   string
	Created   string
	InputFile string
	ID        string
}

const (
	fwdFile   = "fwd.ecurve"
	revFile   = "rev.ecurve"
	idmapFile = "idmap"
	threshE2  = "prot_thresh_e2"
	threshE3  = "prot_thresh_e3"
	metaFile  = "metadata"
)

// Database is an opened database directory.
type Database struct {
	Alphabet *alphabet.Alphabet
	Fwd      *storage.Mapped
	Rev      *storage.Mapped
	IDMap    []string
	ThreshE2 *orf.ThresholdMatrix
	ThreshE3 *orf.ThresholdMatrix
	Meta     Metadata
}

// Close unmaps the forward and reverse ecurves.
func (d *Database) Close() error {
	var firstErr error
	if d.Fwd != nil {
		if err := d.Fwd.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.Rev != nil {
		if err := d.Rev.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Write serializes a built database into dir, which must already
// exist. fwd and/or rev may be nil; classification can run with either
// side alone.
func Write(dir string, fwd, rev *ecurve.Ecurve, idmap []string, e2, e3 *orf.ThresholdMatrix, meta Metadata) error {
	if fwd != nil {
		if err := writeEcurveBinary(filepath.Join(dir, fwdFile), fwd); err != nil {
			return err
		}
	}
	if rev != nil {
		if err := writeEcurveBinary(filepath.Join(dir, revFile), rev); err != nil {
			return err
		}
	}
	if err := writeFile(filepath.Join(dir, idmapFile), func(w io.Writer) error { return WriteIDMap(w, idmap) }); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, threshE2), func(w io.Writer) error { return WriteThresholdMatrix(w, e2) }); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, threshE3), func(w io.Writer) error { return WriteThresholdMatrix(w, e3) }); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, metaFile), func(w io.Writer) error { return WriteMetadata(w, meta) })
}

// Open reads a database directory written by Write, memory-mapping the
// ecurve files.
func Open(dir string) (*Database, error) {
	db := &Database{}

	if _, err := os.Stat(filepath.Join(dir, fwdFile)); err == nil {
		m, err := storage.OpenMapped(filepath.Join(dir, fwdFile))
		if err != nil {
			return nil, err
		}
		db.Fwd = m
		db.Alphabet = m.Alphabet()
	}
	if _, err := os.Stat(filepath.Join(dir, revFile)); err == nil {
		m, err := storage.OpenMapped(filepath.Join(dir, revFile))
		if err != nil {
			db.Close()
			return nil, err
		}
		db.Rev = m
		if db.Alphabet == nil {
			db.Alphabet = m.Alphabet()
		}
	}

	idmap, err := readFile(filepath.Join(dir, idmapFile), ReadIDMap)
	if err != nil {
		db.Close()
		return nil, err
	}
	db.IDMap = idmap

	e2, err := readFile(filepath.Join(dir, threshE2), ReadThresholdMatrix)
	if err != nil {
		db.Close()
		return nil, err
	}
	db.ThreshE2 = e2

	e3, err := readFile(filepath.Join(dir, threshE3), ReadThresholdMatrix)
	if err != nil {
		db.Close()
		return nil, err
	}
	db.ThreshE3 = e3

	meta, err := readFile(filepath.Join(dir, metaFile), ReadMetadata)
	if err != nil {
		db.Close()
		return nil, err
	}
	db.Meta = meta

	return db, nil
}

// HashID computes the content hash recorded as Metadata.ID: a seahash
// digest over the ecurve files present in dir, rendered as hex.
// Missing files are skipped, so a forward-only database still gets a
// stable id.
func HashID(dir string) (string, error) {
	h := seahash.New()
	for _, name := range []string{fwdFile, revFile} {
		f, err := os.Open(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", uerr.Wrap(uerr.IO, err, "opening %s", name)
		}
		if _, err := io.Copy(h, f); err != nil {
			f.Close()
			return "", uerr.Wrap(uerr.IO, err, "hashing %s", name)
		}
		f.Close()
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func writeEcurveBinary(path string, ec *ecurve.Ecurve) error {
	f, err := os.Create(path)
	if err != nil {
		return uerr.Wrap(uerr.IO, err, "creating %s", path)
	}
	defer f.Close()
	return storage.WriteBinary(f, ec)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return uerr.Wrap(uerr.IO, err, "creating %s", path)
	}
	defer f.Close()
	return write(f)
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, uerr.Wrap(uerr.IO, err, "opening %s", path)
	}
	defer f.Close()
	return read(f)
}

// WriteIDMap writes the class-id map file: a size header followed by
// one class name per line.
func WriteIDMap(w io.Writer, names []string) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\n", len(names)); err != nil {
		return uerr.Wrap(uerr.IO, err, "writing idmap header")
	}
	for _, n := range names {
		if _, err := fmt.Fprintln(bw, n); err != nil {
			return uerr.Wrap(uerr.IO, err, "writing idmap entry")
		}
	}
	return bw.Flush()
}

// ReadIDMap parses the format WriteIDMap produces.
func ReadIDMap(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, uerr.New(uerr.Format, "empty idmap file")
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, uerr.Wrap(uerr.Format, err, "parsing idmap size header")
	}
	names := make([]string, 0, n)
	for scanner.Scan() {
		names = append(names, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, uerr.Wrap(uerr.IO, err, "reading idmap")
	}
	if len(names) != n {
		return nil, uerr.New(uerr.Format, "idmap header says %d entries, found %d", n, len(names))
	}
	return names, nil
}

// WriteThresholdMatrix serializes a calibrated threshold matrix as one
// row per line, space-separated values.
func WriteThresholdMatrix(w io.Writer, m *orf.ThresholdMatrix) error {
	bw := bufio.NewWriter(w)
	if m == nil {
		return bw.Flush()
	}
	for _, row := range m.Rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, " ")); err != nil {
			return uerr.Wrap(uerr.IO, err, "writing threshold matrix row")
		}
	}
	return bw.Flush()
}

// ReadThresholdMatrix parses the format WriteThresholdMatrix produces.
func ReadThresholdMatrix(r io.Reader) (*orf.ThresholdMatrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var rows [][]float64
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, uerr.Wrap(uerr.Format, err, "parsing threshold matrix value")
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, uerr.Wrap(uerr.IO, err, "reading threshold matrix")
	}
	return &orf.ThresholdMatrix{Rows: rows}, nil
}

// WriteMetadata writes m as simple "key: value" lines.
func WriteMetadata(w io.Writer, m Metadata) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "alphabet: %s\n", m.Alphabet)
	fmt.Fprintf(bw, "ranks: %d\n", m.Ranks)
	fmt.Fprintf(bw, "version: %s\n", m.Version)
	fmt.Fprintf(bw, "created: %s\n", m.Created)
	fmt.Fprintf(bw, "inputfile: %s\n", m.InputFile)
	fmt.Fprintf(bw, "id: %s\n", m.ID)
	return bw.Flush()
}

// ReadMetadata parses the format WriteMetadata produces.
func ReadMetadata(r io.Reader) (Metadata, error) {
	var m Metadata
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "alphabet":
			m.Alphabet = value
		case "ranks":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Metadata{}, uerr.Wrap(uerr.Format, err, "parsing ranks")
			}
			m.Ranks = n
		case "version":
			m.Version = value
		case "created":
			m.Created = value
		case "inputfile":
			m.InputFile = value
		case "id":
			m.ID = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Metadata{}, uerr.Wrap(uerr.IO, err, "reading metadata")
	}
	return m, nil
}
