package deduplication

import (
	"maps"
	"testing"

	"ainewsbot/types"
)

func article(src, id, hash string) types.Article {
	return types.Article{SourceID: src, ExternalID: id, Title: id, ContentHash: hash}
}

func TestClassify(t *testing.T) {
	snapshot := types.KeySnapshot{
		{SourceID: "ledgeai", ExternalID: "a"}: "h1",
		{SourceID: "ledgeai", ExternalID: "b"}: "h2",
	}
	cases := []struct {
		name string
		in   types.Article
		want Classification
	}{
		{"absent key", article("ledgeai", "c", "h3"), New},
		{"same key other source", article("ainow", "a", "h1"), New},
		{"changed hash", article("ledgeai", "a", "h9"), Updated},
		{"same hash", article("ledgeai", "b", "h2"), Unchanged},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.in, snapshot); got != c.want {
				t.Fatalf("Classify = %s; want %s", got, c.want)
			}
		})
	}
}

func TestClassifyIsStable(t *testing.T) {
	snapshot := types.KeySnapshot{{SourceID: "s", ExternalID: "x"}: "h"}
	before := maps.Clone(snapshot)
	a := article("s", "x", "h")
	for i := 0; i < 3; i++ {
		if got := Classify(a, snapshot); got != Unchanged {
			t.Fatalf("call %d: %s", i, got)
		}
	}
	if !maps.Equal(before, snapshot) {
		t.Fatalf("snapshot modified: %v", snapshot)
	}
}

func TestBatchFirstCandidateWins(t *testing.T) {
	snapshot := types.KeySnapshot{{SourceID: "s", ExternalID: "old"}: "h0"}
	b := NewBatch(snapshot)

	steps := []struct {
		in   types.Article
		want Classification
	}{
		{article("s", "new", "h1"), New},
		{article("s", "new", "h2"), Unchanged},
		{article("s", "old", "h5"), Updated},
		{article("s", "old", "h6"), Unchanged},
		{article("s", "same", "h7"), New},
	}
	for i, s := range steps {
		if got := b.Add(s.in); got != s.want {
			t.Fatalf("step %d: Add = %s; want %s", i, got, s.want)
		}
	}

	entries := b.Entries()
	if len(entries) != 3 || entries[0].Article.ContentHash != "h1" || entries[1].Article.ContentHash != "h5" {
		t.Fatalf("entries = %+v", entries)
	}
	if b.Count(New) != 2 || b.Count(Updated) != 1 || b.Count(Unchanged) != 2 {
		t.Fatalf("counts new=%d updated=%d unchanged=%d", b.Count(New), b.Count(Updated), b.Count(Unchanged))
	}
	if entries[1].Class != Updated {
		t.Fatalf("entry class = %s", entries[1].Class)
	}
}
