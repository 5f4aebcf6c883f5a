// Package classifier implements the protein classifier:
// it walks every word of a sequence, performs forward and reverse
// nearest-neighbour ecurve lookups, converts neighbour words into
// positional similarity scores via a substitution matrix, aggregates
// them into a per-class mosaic score, and emits ranked results.
package classifier

import (
	"sort"

	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/ecurve"
	"github.com/gobics/uproc-go/internal/mosaic"
	"github.com/gobics/uproc-go/internal/substmat"
	"github.com/gobics/uproc-go/internal/word"
)

// Index is the nearest-neighbour lookup contract a classifier consumes.
// Both *ecurve.Ecurve (the in-memory, build-time index) and
// *storage.Mapped (the mmap-backed on-disk index) satisfy it, so a
// Classifier never cares which one backs it.
type Index interface {
	Lookup(w word.Word) (lower, upper word.Word, lowerClasses, upperClasses []int32, kind ecurve.Kind)
}

// Mode selects how Classify reduces the per-(rank,class) candidates
// into a result list.
type Mode int

const (
	// All returns every (rank, class) result that survives the filter.
	All Mode = iota
	// Max retains only the single best result across all ranks and
	// classes.
	Max
)

// Filter decides whether a candidate (rank, class) score survives,
// given the sequence it was computed from. The sequence length is
// available as len(seq); rank is passed alongside class so thresholds
// can differ per classification granularity.
type Filter func(seq string, rank int, class int32, score float64) bool

// Result is one classification outcome.
type Result struct {
	Rank  int
	Class int32
	Score float64
	// Words lists the mosaic contributions that produced Score, only
	// populated when the Classifier was built with Detailed=true.
	Words []mosaic.Word
}

// Classifier drives word iteration over one sequence and aggregates
// ecurve neighbour scores into per-class mosaics.
type Classifier struct {
	Alphabet   *alphabet.Alphabet
	Fwd        Index // forward ecurve; nil disables forward lookups
	Rev        Index // reverse ecurve; nil disables reverse lookups
	SubstMat   *substmat.Matrix
	RanksCount int
	Mode       Mode
	Detailed   bool
	Filter     Filter // optional; nil means "accept everything"
}

type classKey struct {
	rank  int
	class int32
}

// Classify walks every word of seq through the forward and reverse
// indexes and returns ranked results. A sequence shorter than word.Len
// yields an empty slice. Missing Fwd or Rev is allowed; the other side still
// runs.
func (c *Classifier) Classify(seq string) []Result {
	accs := make(map[classKey]*mosaic.Accumulator)

	get := func(rank int, class int32) *mosaic.Accumulator {
		key := classKey{rank, class}
		a, ok := accs[key]
		if !ok {
			a = mosaic.New(c.Detailed)
			accs[key] = a
		}
		return a
	}

	process := func(query word.Word, neighborWord word.Word, classes []int32, index int, reverse bool) {
		d := c.SubstMat.AlignSuffixes(query, neighborWord)
		for rank := 0; rank < c.RanksCount; rank++ {
			class := classes[rank]
			if class == ecurve.ClassInvalid {
				continue
			}
			get(rank, class).Add(neighborWord, index, d, reverse)
		}
	}

	it := word.NewIter(seq, c.Alphabet)
	for {
		index, fwd, rev, ok := it.Next()
		if !ok {
			break
		}

		if c.Fwd != nil {
			lower, upper, lowerClasses, upperClasses, _ := c.Fwd.Lookup(fwd)
			process(fwd, lower, lowerClasses, index, false)
			if !lower.Equal(upper) {
				process(fwd, upper, upperClasses, index, false)
			}
		}
		if c.Rev != nil {
			lower, upper, lowerClasses, upperClasses, _ := c.Rev.Lookup(rev)
			process(rev, lower, lowerClasses, index, true)
			if !lower.Equal(upper) {
				process(rev, upper, upperClasses, index, true)
			}
		}
	}

	var results []Result
	for key, acc := range accs {
		score := acc.Finalize()
		if c.Filter != nil && !c.Filter(seq, key.rank, key.class, score) {
			continue
		}
		r := Result{Rank: key.rank, Class: key.class, Score: score}
		if c.Detailed {
			r.Words = acc.Words()
		}
		results = append(results, r)
	}

	SortResults(results)

	if c.Mode == Max && len(results) > 1 {
		results = results[:1]
	}
	return results
}

// SortResults orders results ascending by rank (finer-grained first),
// then descending by score, then ascending by class id for
// determinism. Mode Max's "best" is always results[0] after this sort.
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Class < b.Class
	})
}
