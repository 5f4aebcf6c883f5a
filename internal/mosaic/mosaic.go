// Package mosaic implements the per-class score accumulator: it
// combines overlapping word contributions along a sequence into a
// single scalar by taking per-position maxima over a sliding window.
package mosaic

import (
	"math"

	"github.com/gobics/uproc-go/internal/word"
)

const windowLen = word.Len

// Word records one contribution that was folded into a mosaic, kept
// only when the accumulator was created with storeWords=true
// ("detailed" mode).
type Word struct {
	Word    word.Word
	Index   int
	Score   float64
	Reverse bool
}

// Accumulator holds (index, total, dist[Len]): dist stores Len
// positional partial maxima covering one word-length window starting at
// the last-added index.
type Accumulator struct {
	hasIndex  bool
	index     int
	total     float64
	dist      [windowLen]float64
	storeWord bool
	words     []Word
}

// New creates an accumulator. When storeWords is true, every Add call
// also appends a Word record (used for "detailed" mode results).
func New(storeWords bool) *Accumulator {
	a := &Accumulator{storeWord: storeWords}
	for i := range a.dist {
		a.dist[i] = math.Inf(-1)
	}
	return a
}

// Add folds a word's positional score vector d (length 6, the suffix
// alignment scores) into the accumulator at sequence position index.
// Words must be added in order of ascending index.
func (a *Accumulator) Add(w word.Word, index int, d [word.SuffixLen]float64, reverse bool) {
	if a.storeWord {
		sum := 0.0
		for _, v := range d {
			sum += v
		}
		a.words = append(a.words, Word{Word: w, Index: index, Score: sum, Reverse: reverse})
	}

	diff := 0
	if a.hasIndex {
		diff = index - a.index
		if diff > windowLen {
			diff = windowLen
		}
		for i := 0; i < diff; i++ {
			if !math.IsInf(a.dist[i], 0) {
				a.total += a.dist[i]
				a.dist[i] = math.Inf(-1)
			}
		}
	}

	var tmp [windowLen]float64
	for i := 0; i < word.PrefixLen; i++ {
		tmp[i] = math.Inf(-1)
	}
	copy(tmp[word.PrefixLen:], d[:])
	if reverse {
		for i, j := 0, windowLen-1; i < j; i, j = i+1, j-1 {
			tmp[i], tmp[j] = tmp[j], tmp[i]
		}
	}

	shiftLeft(&a.dist, diff)
	for i := 0; i < windowLen; i++ {
		if tmp[i] > a.dist[i] {
			a.dist[i] = tmp[i]
		}
	}

	a.index = index
	a.hasIndex = true
}

func shiftLeft(dist *[windowLen]float64, n int) {
	if n <= 0 {
		return
	}
	if n >= windowLen {
		for i := range dist {
			dist[i] = math.Inf(-1)
		}
		return
	}
	copy(dist[:windowLen-n], dist[n:])
	for i := windowLen - n; i < windowLen; i++ {
		dist[i] = math.Inf(-1)
	}
}

// Finalize adds all remaining finite entries of dist into total, resets
// the accumulator's state, and returns the final score.
func (a *Accumulator) Finalize() float64 {
	for i := 0; i < windowLen; i++ {
		if !math.IsInf(a.dist[i], 0) {
			a.total += a.dist[i]
		}
		a.dist[i] = math.Inf(-1)
	}
	a.hasIndex = false
	a.index = 0
	t := a.total
	a.total = 0
	return t
}

// Words returns the contributing words recorded so far (only
// meaningful when the accumulator was created with storeWords=true).
func (a *Accumulator) Words() []Word {
	return a.words
}
