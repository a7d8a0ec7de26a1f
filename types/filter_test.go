package types

import (
	"testing"
	"time"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestFilterMatch(t *testing.T) {
	a := Article{
		SourceID:    "prtimes",
		Title:       "生成AIで業務効率化",
		Category:    "企業効率化, AI・テクノロジー",
		Tags:        []string{"DX"},
		Summary:     "要約テキスト",
		Score:       4,
		PublishedAt: day("2025-03-10"),
	}

	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"source hit", Filter{Sources: []string{"ainow", "prtimes"}}, true},
		{"source miss", Filter{Sources: []string{"ainow"}}, false},
		{"secondary category", Filter{Category: "AI・テクノロジー"}, true},
		{"category miss", Filter{Category: "その他"}, false},
		{"inside range", Filter{From: day("2025-03-01"), To: day("2025-03-31")}, true},
		{"before range", Filter{From: day("2025-03-11")}, false},
		{"min score", Filter{MinScore: 5}, false},
		{"query in tags", Filter{Query: "dx"}, true},
		{"query miss", Filter{Query: "robot"}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.f.Match(a); got != c.want {
				t.Fatalf("Match() = %v; want %v", got, c.want)
			}
		})
	}
}

func TestFilterDateBoundSkipsUndated(t *testing.T) {
	f := Filter{From: day("2020-01-01")}
	if f.Match(Article{Title: "no date"}) {
		t.Fatalf("undated article matched a date-bounded filter")
	}
}

func TestApplySortsAndPages(t *testing.T) {
	articles := []Article{
		{ExternalID: "old", PublishedAt: day("2025-01-01"), Score: 5},
		{ExternalID: "undated", Score: 5},
		{ExternalID: "new", PublishedAt: day("2025-02-01"), Score: 1},
		{ExternalID: "mid", PublishedAt: day("2025-01-15"), Score: 3},
	}

	got := Filter{}.Apply(articles)
	order := []string{"new", "mid", "old", "undated"}
	for i, id := range order {
		if got[i].ExternalID != id {
			t.Fatalf("date order[%d] = %s; want %s", i, got[i].ExternalID, id)
		}
	}

	byScore := Filter{Sort: SortByScore, Limit: 2}.Apply(articles)
	if len(byScore) != 2 || byScore[0].ExternalID != "old" || byScore[1].ExternalID != "undated" {
		t.Fatalf("score order = %+v", byScore)
	}

	paged := Filter{Offset: 3}.Apply(articles)
	if len(paged) != 1 || paged[0].ExternalID != "undated" {
		t.Fatalf("offset page = %+v", paged)
	}
	if out := (Filter{Offset: 10}).Apply(articles); len(out) != 0 {
		t.Fatalf("offset past end returned %d articles", len(out))
	}
	if articles[0].ExternalID != "old" {
		t.Fatalf("Apply modified its input")
	}
}

func TestSortGroupsByTokyoDay(t *testing.T) {
	// 00:30 JST on the 10th is still the 9th in UTC, as SQLite hands it back.
	early := time.Date(2025, 3, 10, 0, 30, 0, 0, Tokyo).UTC()
	later := time.Date(2025, 3, 10, 8, 0, 0, 0, Tokyo)
	articles := []Article{
		{ExternalID: "later", PublishedAt: &later, Score: 1},
		{ExternalID: "early", PublishedAt: &early, Score: 5},
	}

	SortArticles(articles, SortByDate)
	if articles[0].ExternalID != "early" {
		t.Fatalf("order = %s, %s; same Tokyo day should sort by score", articles[0].ExternalID, articles[1].ExternalID)
	}
}

func TestWithSummaryCopies(t *testing.T) {
	a := Article{Title: "t", Tags: []string{"x"}}
	b := a.WithSummary("s", 4)
	b.Tags[0] = "y"
	if a.Summary != "" || a.Tags[0] != "x" {
		t.Fatalf("WithSummary mutated the original: %+v", a)
	}
	if b.Summary != "s" || b.Score != 4 {
		t.Fatalf("WithSummary = %+v", b)
	}
}
