// Package ecurve implements the word-to-class index: the "evolutionary
// curve" that answers nearest-neighbor word lookups by bracketing a
// query word between its closest stored neighbours.
//
// The on-disk format uses a dense prefix table with one row per
// possible 12-letter prefix (20^12+1 of them) and EDGE/neighbor-offset
// sentinels for the unpopulated ones. Materializing that table as a Go
// slice is infeasible (20^12 is on the order of 4*10^15), so the
// in-memory Ecurve instead keeps only the populated prefix buckets in
// a sorted slice and brackets a query with the same two-level (prefix,
// then suffix) nearest-neighbor search, at the cost of O(log n)
// instead of O(1) amortized prefix resolution. The storage package
// streams the dense on-disk layout from this sparse structure instead
// of holding it in memory.
package ecurve

import (
	"sort"

	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/uerr"
	"github.com/gobics/uproc-go/internal/word"
)

// RanksMax is the maximum number of classification ranks an ecurve can
// carry per word.
const RanksMax = 4

// ClassInvalid marks a (word, rank) pair with no valid class, e.g. a
// word whose class was invalidated during database build.
const ClassInvalid int32 = -1

// PrefixEntry is one row of the dense on-disk prefix table:
// First/Count locate the row's suffixes, Prev/Next are saturated
// distances to the nearest nonempty neighbour, used only
// when Count is the EDGE sentinel or zero. The storage package builds
// these on the fly when serializing; Ecurve itself never holds a full
// array of them.
type PrefixEntry struct {
	First uint64
	Count uint64
	Prev  uint32
	Next  uint32
}

// EdgeCount is the sentinel Count value marking a prefix table row as
// EDGE: outside the extremes of the populated prefix range.
const EdgeCount = ^uint64(0)

// Kind classifies the result of a Lookup.
type Kind int

const (
	// Exact means the word was found in the index.
	Exact Kind = iota
	// Inexact means the word falls strictly between two stored
	// neighbours.
	Inexact
	// OOB means the word lies outside the range covered by any stored
	// word.
	OOB
)

// bucket is one populated prefix's suffix range.
type bucket struct {
	prefix uint64
	first  uint64
	count  uint64
}

// Ecurve is the word-to-class index. Once built (via Builder) it is
// read-only.
type Ecurve struct {
	Alphabet   *alphabet.Alphabet
	RanksCount int
	buckets    []bucket // sorted ascending by prefix, one per populated prefix
	Suffixes   []uint32
	Classes    []int32 // len(Suffixes) * RanksCount, parallel to Suffixes
}

// New builds an Ecurve directly from already-validated buckets
// (ascending, non-overlapping prefixes) and parallel suffix/class
// arrays, as used by storage readers that reconstruct an index from a
// serialized form rather than a live Builder session.
func New(alpha *alphabet.Alphabet, ranksCount int, buckets []Bucket, suffixes []uint32, classes []int32) *Ecurve {
	bs := make([]bucket, len(buckets))
	for i, b := range buckets {
		bs[i] = bucket{prefix: b.Prefix, first: b.First, count: b.Count}
	}
	return &Ecurve{
		Alphabet:   alpha,
		RanksCount: ranksCount,
		buckets:    bs,
		Suffixes:   suffixes,
		Classes:    classes,
	}
}

// suffixLookup performs a binary search for key in search: exact hit,
// bracketed between neighbours, or out of bounds before the first /
// after the last entry.
func suffixLookup(search []uint32, key uint32) (lower, upper int, kind Kind) {
	n := len(search)
	if n == 0 || key < search[0] {
		return 0, 0, OOB
	}
	if key > search[n-1] {
		return n - 1, n - 1, OOB
	}

	lo, hi := 0, n-1
	for hi > lo+1 {
		mid := (hi + lo) / 2
		switch {
		case key == search[mid]:
			lo, hi = mid, mid
		case key > search[mid]:
			lo = mid
		default:
			hi = mid
		}
	}
	if search[lo] == key {
		hi = lo
	} else if search[hi] == key {
		lo = hi
	}
	if lo == hi {
		return lo, hi, Exact
	}
	return lo, hi, Inexact
}

// Lookup finds w's neighbours in the index: lower and upper bracket w
// (equal when w is stored exactly). Classes for the lower and upper
// neighbour are returned, each a RanksCount-length slice.
func (e *Ecurve) Lookup(w word.Word) (lower, upper word.Word, lowerClasses, upperClasses []int32, kind Kind) {
	n := len(e.buckets)
	i := sort.Search(n, func(i int) bool { return e.buckets[i].prefix >= w.Prefix })

	switch {
	case i < n && e.buckets[i].prefix == w.Prefix:
		b := e.buckets[i]
		lo, hi, skind := suffixLookup(e.Suffixes[b.first:b.first+b.count], w.Suffix)
		lo += int(b.first)
		hi += int(b.first)
		switch skind {
		case Exact:
			return e.word(b.prefix, lo), e.word(b.prefix, hi), e.classes(lo), e.classes(hi), Exact
		case Inexact:
			return e.word(b.prefix, lo), e.word(b.prefix, hi), e.classes(lo), e.classes(hi), Inexact
		}

		// The suffix falls outside this prefix's stored range: bracket
		// against the adjacent populated prefix, collapsing to the index
		// extremes when no neighbour exists on that side.
		if w.Suffix < e.Suffixes[b.first] {
			if i == 0 {
				return e.word(b.prefix, lo), e.word(b.prefix, hi), e.classes(lo), e.classes(hi), OOB
			}
			below := e.buckets[i-1]
			loIdx := int(below.first + below.count - 1)
			hiIdx := int(b.first)
			return e.word(below.prefix, loIdx), e.word(b.prefix, hiIdx),
				e.classes(loIdx), e.classes(hiIdx), Inexact
		}
		if i == n-1 {
			return e.word(b.prefix, lo), e.word(b.prefix, hi), e.classes(lo), e.classes(hi), OOB
		}
		above := e.buckets[i+1]
		loIdx := int(b.first + b.count - 1)
		hiIdx := int(above.first)
		return e.word(b.prefix, loIdx), e.word(above.prefix, hiIdx),
			e.classes(loIdx), e.classes(hiIdx), Inexact

	case i == 0 || i == n:
		// Before the first populated prefix or after the last: bracket
		// against whichever boundary bucket is nearest.
		var b bucket
		if i == 0 {
			b = e.buckets[0]
		} else {
			b = e.buckets[n-1]
		}
		idx := int(b.first)
		if i == n {
			idx = int(b.first) + int(b.count) - 1
		}
		return e.word(b.prefix, idx), e.word(b.prefix, idx), e.classes(idx), e.classes(idx), OOB

	default:
		below := e.buckets[i-1]
		above := e.buckets[i]
		loIdx := int(below.first) + int(below.count) - 1
		hiIdx := int(above.first)
		return e.word(below.prefix, loIdx), e.word(above.prefix, hiIdx),
			e.classes(loIdx), e.classes(hiIdx), Inexact
	}
}

// Bucket is one populated prefix's suffix range, exported for the
// storage package to stream into the dense on-disk layout.
type Bucket struct {
	Prefix uint64
	First  uint64
	Count  uint64
}

// Buckets returns the populated prefix buckets in ascending prefix
// order.
func (e *Ecurve) Buckets() []Bucket {
	out := make([]Bucket, len(e.buckets))
	for i, b := range e.buckets {
		out[i] = Bucket{Prefix: b.prefix, First: b.first, Count: b.count}
	}
	return out
}

func (e *Ecurve) word(prefix uint64, idx int) word.Word {
	return word.Word{Prefix: prefix, Suffix: e.Suffixes[idx]}
}

func (e *Ecurve) classes(idx int) []int32 {
	return e.Classes[idx*e.RanksCount : (idx+1)*e.RanksCount]
}

// SuffixEntry is one (suffix, class-tuple) pair supplied to Builder.AddPrefix.
type SuffixEntry struct {
	Suffix  uint32
	Classes []int32 // length RanksCount
}

// Builder constructs an Ecurve bucket by bucket: one call to AddPrefix
// per populated prefix, prefixes strictly ascending, then a single
// Finalize.
type Builder struct {
	ecurve       Ecurve
	lastNonempty uint64
	hasAny       bool
}

// NewBuilder creates a builder for an index with the given alphabet and
// ranks count.
func NewBuilder(alpha *alphabet.Alphabet, ranksCount int) (*Builder, error) {
	if ranksCount <= 0 || ranksCount > RanksMax {
		return nil, uerr.New(uerr.InvalidArgument, "ranks_count must be in [1, %d]", RanksMax)
	}
	return &Builder{
		ecurve: Ecurve{Alphabet: alpha, RanksCount: ranksCount},
	}, nil
}

// AddPrefix appends the suffixes for prefix pfx, which must be strictly
// greater than the most recently added prefix and must not exceed
// word.PrefixMax. suffixes must already be sorted ascending and each
// entry must carry exactly RanksCount classes.
func (b *Builder) AddPrefix(pfx uint64, suffixes []SuffixEntry) error {
	if pfx > word.PrefixMax {
		return uerr.New(uerr.InvalidArgument, "prefix %d exceeds maximum %d", pfx, word.PrefixMax)
	}
	if len(suffixes) == 0 {
		return uerr.New(uerr.InvalidArgument, "empty suffix list")
	}
	if b.hasAny && pfx <= b.lastNonempty {
		return uerr.New(uerr.InvalidArgument, "new prefix must be greater than last nonempty")
	}

	first := uint64(len(b.ecurve.Suffixes))
	for _, s := range suffixes {
		if len(s.Classes) != b.ecurve.RanksCount {
			return uerr.New(uerr.InvalidArgument, "suffix entry has %d classes, want %d",
				len(s.Classes), b.ecurve.RanksCount)
		}
		b.ecurve.Suffixes = append(b.ecurve.Suffixes, s.Suffix)
		b.ecurve.Classes = append(b.ecurve.Classes, s.Classes...)
	}

	b.ecurve.buckets = append(b.ecurve.buckets, bucket{
		prefix: pfx,
		first:  first,
		count:  uint64(len(suffixes)),
	})
	b.lastNonempty = pfx
	b.hasAny = true
	return nil
}

// Finalize returns the completed, read-only Ecurve.
func (b *Builder) Finalize() (*Ecurve, error) {
	if !b.hasAny {
		return nil, uerr.New(uerr.InvalidArgument, "cannot finalize an empty ecurve")
	}
	ec := b.ecurve
	return &ec, nil
}
