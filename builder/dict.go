package builder

import (
	"encoding/binary"

	"blainsmith.com/go/seahash"

	"github.com/gobics/uproc-go/internal/word"
)

// wordEntry is one bucket row under construction: the per-rank class
// ids accumulated for a single word, mutated in place as the builder
// encounters the word again under a different class.
type wordEntry struct {
	word    word.Word
	classes []int32
	seen    bool
}

func packWord(w word.Word) [12]byte {
	var b [12]byte
	binary.BigEndian.PutUint64(b[0:8], w.Prefix)
	binary.BigEndian.PutUint32(b[8:12], w.Suffix)
	return b
}

// dict is a hash map from word to wordEntry keyed by a seahash digest
// of the packed (prefix, suffix) bytes, a throughput-tuned
// non-cryptographic hash over the 12-byte key.
type dict struct {
	rows map[uint64][]*wordEntry
}

func newDict() *dict {
	return &dict{rows: make(map[uint64][]*wordEntry)}
}

func (d *dict) hash(w word.Word) uint64 {
	key := packWord(w)
	h := seahash.New()
	h.Write(key[:])
	return h.Sum64()
}

// getOrCreate returns the entry for w, creating one with ranksCount
// unset classes (ecurve.ClassInvalid) if w hasn't been seen before.
func (d *dict) getOrCreate(w word.Word, ranksCount int) *wordEntry {
	h := d.hash(w)
	for _, e := range d.rows[h] {
		if e.word.Equal(w) {
			return e
		}
	}
	e := &wordEntry{word: w, classes: make([]int32, ranksCount)}
	d.rows[h] = append(d.rows[h], e)
	return e
}

// entries returns all stored entries in no particular order; callers
// sort them by word before use.
func (d *dict) entries() []*wordEntry {
	out := make([]*wordEntry, 0, len(d.rows))
	for _, bucket := range d.rows {
		out = append(out, bucket...)
	}
	return out
}
