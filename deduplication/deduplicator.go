package deduplication

import (
	"ainewsbot/types"
)

// Classification is the outcome of comparing a candidate with the stored snapshot.
type Classification int

const (
	New Classification = iota
	Updated
	Unchanged
)

func (c Classification) String() string {
	switch c {
	case New:
		return "new"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Classify compares a candidate with the snapshot taken at the start of the cycle.
// It has no side effects: the snapshot is only read.
func Classify(candidate types.Article, snapshot types.KeySnapshot) Classification {
	hash, ok := snapshot[candidate.Key()]
	switch {
	case !ok:
		return New
	case hash != candidate.ContentHash:
		return Updated
	default:
		return Unchanged
	}
}

// Batch accumulates the New and Updated candidates of one cycle.
// The first candidate seen for a key wins; later ones are reported as Unchanged.
// A Batch is owned by a single goroutine.
type Batch struct {
	snapshot types.KeySnapshot
	index    map[types.ArticleKey]int
	items    []Entry

	counts map[Classification]int
}

// Entry is a batched article with its classification.
type Entry struct {
	Article types.Article
	Class   Classification
}

// NewBatch starts an empty batch against snapshot.
func NewBatch(snapshot types.KeySnapshot) *Batch {
	return &Batch{
		snapshot: snapshot,
		index:    make(map[types.ArticleKey]int),
		counts:   make(map[Classification]int),
	}
}

// Add classifies a and keeps it when it is New or Updated and not yet batched.
func (b *Batch) Add(a types.Article) Classification {
	class := Classify(a, b.snapshot)
	if _, dup := b.index[a.Key()]; dup {
		class = Unchanged
	}
	b.counts[class]++
	if class == Unchanged {
		return class
	}
	b.index[a.Key()] = len(b.items)
	b.items = append(b.items, Entry{Article: a, Class: class})
	return class
}

// Entries returns the batched candidates in arrival order.
func (b *Batch) Entries() []Entry {
	return append([]Entry(nil), b.items...)
}


// Count returns how many candidates were classified as c, including in-cycle repeats.
func (b *Batch) Count(c Classification) int { return b.counts[c] }
