// Package builder implements the database build pipeline:
// per-leading-amino extraction of unique words, singleton/crossover
// filtering, and assembly into a finished ecurve via ecurve.Builder,
// plus the Monte-Carlo score-threshold calibration.
package builder

import (
	"sort"

	"github.com/gobics/uproc-go/database"
	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/ecurve"
	"github.com/gobics/uproc-go/internal/uerr"
	"github.com/gobics/uproc-go/internal/word"
)

// Params configures a Builder run.
type Params struct {
	Alphabet   *alphabet.Alphabet
	RanksCount int
	// Purge drops entries whose every rank ended up invalidated, rather
	// than keeping them as all-ClassInvalid rows.
	Purge bool
}

// Builder runs the extraction/filter/assemble pipeline over a batch of
// classified records and produces a finished ecurve.
type Builder struct {
	params Params
}

// New creates a Builder.
func New(params Params) *Builder {
	return &Builder{params: params}
}

// Build runs the full extraction/filter/assemble pipeline over records
// (each already carrying one class id per rank) and returns the
// resulting ecurve. Words are extracted per leading amino acid in ascending
// order (0..alphabet.Size-1), so every AddPrefix call across the 20
// buckets sees strictly ascending prefixes.
func (b *Builder) Build(records []database.Record) (*ecurve.Ecurve, error) {
	for _, r := range records {
		if len(r.Classes) != b.params.RanksCount {
			return nil, uerr.New(uerr.InvalidArgument,
				"record %q has %d classes, want %d", r.Header, len(r.Classes), b.params.RanksCount)
		}
	}

	eb, err := ecurve.NewBuilder(b.params.Alphabet, b.params.RanksCount)
	if err != nil {
		return nil, err
	}

	for first := 0; first < alphabet.Size; first++ {
		entries := b.extractUniques(records, alphabet.Amino(first))
		entries = b.filterBucket(entries)
		if len(entries) == 0 {
			continue
		}
		if err := addBucket(eb, entries); err != nil {
			return nil, err
		}
	}

	return eb.Finalize()
}

// extractUniques walks every record's forward words whose leading
// amino is first, building a word -> per-rank-class map. A word seen
// twice under different classes at the same rank has that rank's class
// invalidated for good; it is never un-set by a
// later collision-free sighting.
func (b *Builder) extractUniques(records []database.Record, first alphabet.Amino) []*wordEntry {
	d := newDict()
	for _, r := range records {
		it := word.NewIter(r.Sequence, b.params.Alphabet)
		for {
			_, fwd, _, ok := it.Next()
			if !ok {
				break
			}
			if !fwd.StartsWith(first) {
				continue
			}
			e := d.getOrCreate(fwd, b.params.RanksCount)
			if !e.seen {
				copy(e.classes, r.Classes)
				e.seen = true
				continue
			}
			for rank := 0; rank < b.params.RanksCount; rank++ {
				if e.classes[rank] == ecurve.ClassInvalid {
					continue
				}
				if e.classes[rank] != r.Classes[rank] {
					e.classes[rank] = ecurve.ClassInvalid
				}
			}
		}
	}

	entries := d.entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].word.Compare(entries[j].word) < 0
	})
	return entries
}

type label int

const (
	single label = iota
	cluster
	bridged
	crossover
)

// labelRun classifies each position of a same-leading-amino, sorted
// word run by its relationship to its same-class neighbours:
// |AA..| -> CLUSTER, |ABA.| -> BRIDGED (or CROSSOVER if adjacent to an
// existing BRIDGED/CROSSOVER run, or if the ABA is itself followed by
// a repeating B, the |ABAB| case). Unmatched positions stay SINGLE.
func labelRun(classes []int32) []label {
	n := len(classes)
	types := make([]label, n)

	for i := 0; i < n; i++ {
		switch {
		case i < n-1 && classes[i] == classes[i+1]:
			types[i] = cluster
			types[i+1] = cluster
		case i < n-2 && classes[i] == classes[i+2]:
			switch {
			case types[i+1] == bridged || types[i+1] == crossover:
				types[i] = crossover
				types[i+1] = crossover
				types[i+2] = crossover
			case i < n-3 && types[i] != cluster && classes[i+1] == classes[i+3]:
				types[i] = crossover
				types[i+1] = crossover
				types[i+2] = crossover
				types[i+3] = crossover
			default:
				if types[i] != cluster && types[i] != crossover {
					types[i] = bridged
				}
				types[i+2] = bridged
			}
		}
	}
	return types
}

// filterBucket invalidates each entry's per-rank class where that
// rank's label run marks it SINGLE or CROSSOVER, then optionally drops
// entries left with every rank invalid (the Purge flag).
func (b *Builder) filterBucket(entries []*wordEntry) []*wordEntry {
	if len(entries) == 0 {
		return entries
	}

	for rank := 0; rank < b.params.RanksCount; rank++ {
		classes := make([]int32, len(entries))
		for i, e := range entries {
			classes[i] = e.classes[rank]
		}
		types := labelRun(classes)
		for i, t := range types {
			if t == single || t == crossover {
				entries[i].classes[rank] = ecurve.ClassInvalid
			}
		}
	}

	if !b.params.Purge {
		return entries
	}

	out := entries[:0]
	for _, e := range entries {
		keep := false
		for _, c := range e.classes {
			if c != ecurve.ClassInvalid {
				keep = true
				break
			}
		}
		if keep {
			out = append(out, e)
		}
	}
	return out
}

// addBucket appends one leading-amino bucket's sorted entries into eb,
// one AddPrefix call per distinct prefix value.
func addBucket(eb *ecurve.Builder, entries []*wordEntry) error {
	i := 0
	for i < len(entries) {
		prefix := entries[i].word.Prefix
		j := i
		var suffixes []ecurve.SuffixEntry
		for j < len(entries) && entries[j].word.Prefix == prefix {
			suffixes = append(suffixes, ecurve.SuffixEntry{
				Suffix:  entries[j].word.Suffix,
				Classes: entries[j].classes,
			})
			j++
		}
		if err := eb.AddPrefix(prefix, suffixes); err != nil {
			return err
		}
		i = j
	}
	return nil
}

// ReverseSequence reverses seq character by character (not a
// complement: it is used to feed the same Build pipeline a
// right-to-left view of protein sequences to assemble the reverse
// ecurve).
func ReverseSequence(seq string) string {
	b := []byte(seq)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// BuildPair runs Build twice, once over records as given (the forward
// ecurve) and once over records with each sequence reversed (the
// reverse ecurve), returning both.
func (b *Builder) BuildPair(records []database.Record) (fwd, rev *ecurve.Ecurve, err error) {
	fwd, err = b.Build(records)
	if err != nil {
		return nil, nil, err
	}

	reversed := make([]database.Record, len(records))
	for i, r := range records {
		reversed[i] = database.Record{
			Header:   r.Header,
			Sequence: ReverseSequence(r.Sequence),
			Classes:  r.Classes,
		}
	}
	rev, err = b.Build(reversed)
	if err != nil {
		return nil, nil, err
	}
	return fwd, rev, nil
}
