// Package dnaclassifier wraps the protein classifier to classify
// nucleotide sequences: it drives the ORF iterator, classifies each
// ORF's translated protein, and deduplicates across ORFs by keeping the
// highest-scoring ORF per class.
package dnaclassifier

import (
	"github.com/gobics/uproc-go/classifier"
	"github.com/gobics/uproc-go/internal/codon"
	"github.com/gobics/uproc-go/orf"
)

// Result is a classifier.Result with the winning ORF attached.
type Result struct {
	classifier.Result
	ORF orf.ORF
}

// Classifier classifies nucleotide sequences by translating all open
// reading frames and running the wrapped protein classifier over each
// one.
type Classifier struct {
	Protein     *classifier.Classifier
	CodonScores codon.ScoreTable
	ORFFilter   orf.Filter
	Mode        classifier.Mode
}

// Classify translates seq's ORFs and classifies each one, merging
// results keyed by (rank, class): the highest-scoring ORF per class
// wins. If Mode is classifier.Max, only the single globally best result
// survives afterwards.
func (c *Classifier) Classify(seq string) []Result {
	orfs := orf.Iterate(seq, c.CodonScores, c.ORFFilter)

	best := make(map[classKey]Result)
	for _, o := range orfs {
		protResults := c.Protein.Classify(o.Protein)
		for _, r := range protResults {
			key := classKey{r.Rank, r.Class}
			cur, ok := best[key]
			if !ok || r.Score > cur.Score {
				best[key] = Result{Result: r, ORF: o}
			}
		}
	}

	out := make([]Result, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sortResults(out)

	if c.Mode == classifier.Max && len(out) > 1 {
		out = out[:1]
	}
	return out
}

type classKey struct {
	rank  int
	class int32
}

// sortResults reuses classifier.SortResults's comparator on the
// embedded classifier.Result fields, preserving determinism across the
// ORF-merge step.
func sortResults(results []Result) {
	plain := make([]classifier.Result, len(results))
	for i, r := range results {
		plain[i] = r.Result
	}
	classifier.SortResults(plain)

	byKey := make(map[classKey]Result, len(results))
	for _, r := range results {
		byKey[classKey{r.Rank, r.Class}] = r
	}
	for i, p := range plain {
		results[i] = byKey[classKey{p.Rank, p.Class}]
	}
}
