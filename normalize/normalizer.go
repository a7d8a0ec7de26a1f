package normalize

import (
	"strings"
	"time"
	"unicode/utf8"

	"ainewsbot/types"
)

const (
	maxTags        = 5
	maxContentRune = 5000
)

// Normalizer turns adapter output into canonical Articles.
type Normalizer struct {
	// names maps a source id to its display name
	names map[string]string
	now   func() time.Time
}

// NewNormalizer creates a Normalizer; names maps source ids to display names.
func NewNormalizer(names map[string]string) *Normalizer {
	cp := make(map[string]string, len(names))
	for k, v := range names {
		cp[k] = v
	}
	return &Normalizer{names: cp, now: time.Now}
}

// Normalize validates raw and builds an Article stamped with the current time.
func (n *Normalizer) Normalize(raw types.RawItem, sourceID string) (types.Article, error) {
	return n.NormalizeAt(raw, sourceID, n.now())
}

// NormalizeAt is Normalize with an explicit FetchedAt, used by the cycle clock.
func (n *Normalizer) NormalizeAt(raw types.RawItem, sourceID string, fetchedAt time.Time) (types.Article, error) {
	title := strings.Join(strings.Fields(raw.Title), " ")
	if title == "" {
		return types.Article{}, &types.ValidationError{Field: "title", Reason: "missing"}
	}
	canonical, err := CanonicalURL(raw.URL)
	if err != nil {
		return types.Article{}, err
	}

	tags := normalizeTags(raw.Tags, raw.Category)
	content := truncateRunes(strings.TrimSpace(raw.Content), maxContentRune)

	name := n.names[sourceID]
	if name == "" {
		name = sourceID
	}

	return types.Article{
		SourceID:    sourceID,
		SourceName:  name,
		ExternalID:  types.GenerateID(canonical),
		Title:       title,
		URL:         canonical,
		PublishedAt: ParseDate(raw.Date),
		Category:    Categorize(title, tags, content),
		Tags:        tags,
		Content:     content,
		ContentHash: ContentHash(title, content),
		FetchedAt:   fetchedAt,
	}, nil
}

// normalizeTags trims, dedups and caps site tags; the site category is kept as a tag.
func normalizeTags(tags []string, category string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range tags {
		if len(out) == maxTags {
			break
		}
		add(t)
	}
	if len(out) == maxTags {
		return out
	}
	add(category)
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return prefix(s, n)
}
