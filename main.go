package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobics/uproc-go/benchmark"
	"github.com/gobics/uproc-go/classifier"
	"github.com/gobics/uproc-go/dnaclassifier"
	"github.com/gobics/uproc-go/internal/alphabet"
	"github.com/gobics/uproc-go/internal/codon"
	"github.com/gobics/uproc-go/internal/ecurve"
	"github.com/gobics/uproc-go/internal/substmat"
	"github.com/gobics/uproc-go/internal/version"
	"github.com/gobics/uproc-go/internal/word"
	"github.com/gobics/uproc-go/orf"
	"github.com/gobics/uproc-go/pipeline"
)

func printUsage() {
	fmt.Println(`uproc-go: indexed protein sequence classification

Usage:
  uproc-go <command> [-benchmark]

Commands:
  classify_demo   run the protein classifier over built-in demo sequences
  classify_dna    run the DNA classifier over built-in demo sequences

Flags:
  -h, -help       print this message
  -v, -version    print per-package version information
  -benchmark      wrap the command in a time/memory usage report`)
	os.Exit(0)
}

func printVersion() {
	fmt.Printf("uproc-go %s\n\n", version.Module)
	packages := []struct {
		name    string
		version string
	}{
		{"alphabet", version.Alphabet},
		{"word", version.Word},
		{"codon", version.Codon},
		{"substmat", version.SubstMatrix},
		{"ecurve", version.Ecurve},
		{"storage", version.Storage},
		{"mosaic", version.Mosaic},
		{"classifier", version.Classifier},
		{"dnaclassifier", version.DNAClassifier},
		{"orf", version.ORF},
		{"builder", version.Builder},
		{"database", version.Database},
	}
	for _, p := range packages {
		fmt.Printf("  %-14s %s\n", p.name, p.version)
	}
	os.Exit(0)
}

// demoAlphabet is the standard 20-letter amino acid alphabet used
// throughout the built-in demo data.
const demoAlphabet = "AGSTPKRQEDNHYWFMLIVC"

// demoWords maps a handful of 18-residue words to toy class IDs, giving
// both demo classifiers something concrete to recognize.
var demoWords = []string{
	"NERDGEEKPETERPETER", // -> class 3
	"AAGGSSTTPPKKRRQQEE", // -> class 7
}

// buildDemoClassifier assembles a tiny in-memory protein classifier: a
// two-word forward ecurve, an identity-biased substitution matrix, and
// classifier.Max mode so every sequence yields at most one winner.
func buildDemoClassifier() (*classifier.Classifier, *alphabet.Alphabet, error) {
	alpha, err := alphabet.New(demoAlphabet)
	if err != nil {
		return nil, nil, err
	}

	entries := make(map[uint64][]ecurve.SuffixEntry)
	var prefixes []uint64
	for i, s := range demoWords {
		w, err := word.FromString(s, alpha)
		if err != nil {
			return nil, nil, err
		}
		class := int32(i*4 + 3)
		if _, ok := entries[w.Prefix]; !ok {
			prefixes = append(prefixes, w.Prefix)
		}
		entries[w.Prefix] = append(entries[w.Prefix], ecurve.SuffixEntry{Suffix: w.Suffix, Classes: []int32{class}})
	}
	// Builder.AddPrefix requires strictly ascending prefixes.
	for i := 0; i < len(prefixes); i++ {
		for j := i + 1; j < len(prefixes); j++ {
			if prefixes[j] < prefixes[i] {
				prefixes[i], prefixes[j] = prefixes[j], prefixes[i]
			}
		}
	}

	b, err := ecurve.NewBuilder(alpha, 1)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range prefixes {
		if err := b.AddPrefix(p, entries[p]); err != nil {
			return nil, nil, err
		}
	}
	fwd, err := b.Finalize()
	if err != nil {
		return nil, nil, err
	}

	mat := substmat.New()
	for pos := 0; pos < word.SuffixLen; pos++ {
		for a := 0; a < alphabet.Size; a++ {
			for bAmino := 0; bAmino < alphabet.Size; bAmino++ {
				score := -1.0
				if a == bAmino {
					score = 1.0
				}
				if err := mat.Set(pos, a, bAmino, score); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	return &classifier.Classifier{
		Alphabet:   alpha,
		Fwd:        fwd,
		SubstMat:   mat,
		RanksCount: 1,
		Mode:       classifier.Max,
	}, alpha, nil
}

// demoProteinSeqs pads each demo word with filler residues on both
// sides so word iteration has to walk past non-matching context first.
func demoProteinSeqs() []string {
	out := make([]string, len(demoWords))
	for i, w := range demoWords {
		out[i] = strings.Repeat("A", 6) + w + strings.Repeat("A", 6)
	}
	return out
}

// demoDNASeqs are nucleotide sequences whose forward reading frame
// translates to the demo protein words (codon table entries chosen
// from the standard genetic code; each amino acid here is encoded by
// its most common codon).
var demoDNASeqs = []string{
	"AATGAACGTGATGGTGAAGAAAAACCTGAAACTGAACGTCCTGAAACTGAACGT" + strings.Repeat("GCC", 6),
}

func runClassifyDemo() {
	clf, _, err := buildDemoClassifier()
	if err != nil {
		fmt.Fprintln(os.Stderr, "uproc-go: building demo classifier:", err)
		os.Exit(1)
	}

	seqs := demoProteinSeqs()
	i := 0
	src := func() (string, bool) {
		if i >= len(seqs) {
			return "", false
		}
		s := seqs[i]
		i++
		return s, true
	}

	pipeline.Run(src, func(seq string) (any, error) {
		return clf.Classify(seq), nil
	}, 0, func(results []pipeline.Result) {
		for _, r := range results {
			hits := r.Value.([]classifier.Result)
			fmt.Printf("sequence %d: %d result(s)\n", r.Index, len(hits))
			for _, hit := range hits {
				fmt.Printf("  rank=%d class=%d score=%.2f\n", hit.Rank, hit.Class, hit.Score)
			}
		}
	})
}

func runClassifyDNA() {
	clf, _, err := buildDemoClassifier()
	if err != nil {
		fmt.Fprintln(os.Stderr, "uproc-go: building demo classifier:", err)
		os.Exit(1)
	}

	dc := &dnaclassifier.Classifier{
		Protein:     clf,
		CodonScores: codon.ScoreTable{},
		ORFFilter:   orf.LengthScoreFilter(18, 0),
		Mode:        classifier.Max,
	}

	i := 0
	src := func() (string, bool) {
		if i >= len(demoDNASeqs) {
			return "", false
		}
		s := demoDNASeqs[i]
		i++
		return s, true
	}

	pipeline.Run(src, func(seq string) (any, error) {
		return dc.Classify(seq), nil
	}, 0, func(results []pipeline.Result) {
		for _, r := range results {
			hits := r.Value.([]dnaclassifier.Result)
			fmt.Printf("sequence %d: %d result(s)\n", r.Index, len(hits))
			for _, hit := range hits {
				fmt.Printf("  rank=%d class=%d score=%.2f orf.frame=%d orf.start=%d\n",
					hit.Rank, hit.Class, hit.Score, hit.ORF.Frame, hit.ORF.Start)
			}
		}
	})
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
	}

	command := os.Args[1]
	switch command {
	case "-h", "-help":
		printUsage()
	case "-v", "-version":
		printVersion()
	}

	benchmarking := false
	for _, arg := range os.Args[2:] {
		switch arg {
		case "-benchmark":
			benchmarking = true
		case "-h", "-help":
			printUsage()
		case "-v", "-version":
			printVersion()
		default:
			fmt.Fprintf(os.Stderr, "uproc-go: unknown flag %q\n", arg)
			os.Exit(1)
		}
	}

	run := func() {
		switch command {
		case "classify_demo":
			runClassifyDemo()
		case "classify_dna":
			runClassifyDNA()
		default:
			fmt.Fprintf(os.Stderr, "uproc-go: unknown command %q\n", command)
			os.Exit(1)
		}
	}

	if benchmarking {
		benchmark.Run("uproc-go "+command, run)
	} else {
		run()
	}
}
