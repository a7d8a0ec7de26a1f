package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Tokyo is the zone article dates are displayed and grouped in.
var Tokyo = loadTokyo()

func loadTokyo() *time.Location {
	if loc, err := time.LoadLocation("Asia/Tokyo"); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}

// Article is the canonical record produced by one ingestion cycle.
// Values are never mutated after construction; stages return modified copies.
type Article struct {
	SourceID    string     `json:"source_id"`
	SourceName  string     `json:"source_name"`
	ExternalID  string     `json:"external_id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Content     string     `json:"content,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Score       int        `json:"score,omitempty"`
	ContentHash string     `json:"content_hash"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// RawItem is what a site adapter extracts before normalization.
type RawItem struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Date     string   `json:"date,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Content  string   `json:"content,omitempty"`
}

// ArticleKey identifies an article in the persisted set.
type ArticleKey struct {
	SourceID   string `json:"source_id"`
	ExternalID string `json:"external_id"`
}

func (k ArticleKey) String() string {
	return k.SourceID + "/" + k.ExternalID
}

// KeySnapshot maps every stored key to its content hash.
type KeySnapshot map[ArticleKey]string

// Key returns the dedup key of the article.
func (a Article) Key() ArticleKey {
	return ArticleKey{SourceID: a.SourceID, ExternalID: a.ExternalID}
}

// WithSummary returns a copy of the article carrying the given summary and score.
func (a Article) WithSummary(summary string, score int) Article {
	out := a
	out.Summary = summary
	out.Score = score
	if a.Tags != nil {
		out.Tags = append([]string(nil), a.Tags...)
	}
	return out
}

// PrimaryCategory returns the first entry of the comma separated category list.
func (a Article) PrimaryCategory() string {
	cats := SplitCategories(a.Category)
	if len(cats) == 0 {
		return ""
	}
	return cats[0]
}

// GenerateID creates a short, stable ID by hashing the provided string input
func GenerateID(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}
