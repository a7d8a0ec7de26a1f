package types

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Sort orders accepted by the display read API.
const (
	SortByDate     = "date"
	SortByScore    = "score"
	SortByCategory = "category"
	SortBySource   = "source"
)

// Filter selects committed articles for display.
// Zero values mean "no constraint".
type Filter struct {
	Sources  []string   `json:"sources,omitempty"`
	Category string     `json:"category,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	MinScore int        `json:"min_score,omitempty"`
	Query    string     `json:"q,omitempty"`
	Sort     string     `json:"sort,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// Match reports whether the article satisfies every predicate of the filter.
// Articles without a publication date never match a date-bounded filter.
func (f Filter) Match(a Article) bool {
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, a.SourceID) {
		return false
	}
	if f.Category != "" && !slices.Contains(SplitCategories(a.Category), f.Category) {
		return false
	}
	if f.From != nil || f.To != nil {
		if a.PublishedAt == nil {
			return false
		}
		if f.From != nil && a.PublishedAt.Before(*f.From) {
			return false
		}
		if f.To != nil && a.PublishedAt.After(*f.To) {
			return false
		}
	}
	if f.MinScore > 0 && a.Score < f.MinScore {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(a.Title + "\n" + a.Summary + "\n" + strings.Join(a.Tags, " "))
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Apply filters, sorts and pages the given articles. The input slice is not modified.
func (f Filter) Apply(articles []Article) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	SortArticles(out, f.Sort)

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []Article{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// SortArticles sorts newest first; the other orders fall back to date as a tiebreaker.
func SortArticles(articles []Article, order string) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		switch order {
		case SortByScore:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		case SortByCategory:
			if a.Category != b.Category {
				return a.Category > b.Category
			}
		case SortBySource:
			if a.SourceName != b.SourceName {
				return a.SourceName > b.SourceName
			}
		default:
			if !sameDay(a.PublishedAt, b.PublishedAt) {
				return newer(a.PublishedAt, b.PublishedAt)
			}
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		}
		if !equalTime(a.PublishedAt, b.PublishedAt) {
			return newer(a.PublishedAt, b.PublishedAt)
		}
		return a.FetchedAt.After(b.FetchedAt)
	})
}

// SplitCategories splits a comma separated category list, dropping blanks.
func SplitCategories(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newer(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.In(Tokyo).Date()
	by, bm, bd := b.In(Tokyo).Date()
	return ay == by && am == bm && ad == bd
}
