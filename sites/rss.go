package sites

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"log"
	"strings"
	"time"

	"ainewsbot/types"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// RSSFeed reads a configured RSS or Atom feed. Items without a description
// get their body from the linked page.
type RSSFeed struct {
	cfg     SiteConfig
	feedURL string
	fetcher *PageFetcher
}

// NewRSSFeed creates a feed adapter.
func NewRSSFeed(cfg SiteConfig, feedURL string, fetcher *PageFetcher) *RSSFeed {
	if fetcher == nil {
		fetcher = NewPageFetcher(FetcherOptions{Timeout: cfg.Timeout, Attempts: cfg.Retries})
	}
	return &RSSFeed{cfg: cfg, feedURL: feedURL, fetcher: fetcher}
}

func (r *RSSFeed) ID() string   { return r.cfg.ID }
func (r *RSSFeed) Name() string { return r.cfg.Name }

func (r *RSSFeed) Fetch(ctx context.Context) (iter.Seq2[types.RawItem, error], error) {
	body, err := r.fetcher.Bytes(ctx, r.feedURL)
	if err != nil {
		return nil, &types.FetchError{SourceID: r.cfg.ID, Cause: err}
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &types.FetchError{SourceID: r.cfg.ID, Cause: fmt.Errorf("failed to parse feed: %w", err)}
	}

	limit := r.cfg.MaxItems
	if limit <= 0 {
		limit = defaultMaxItems
	}
	items := feed.Items
	if len(items) > limit {
		items = items[:limit]
	}
	log.Printf("📰 [%s] feed %q has %d items, reading %d", r.cfg.ID, feed.Title, len(feed.Items), len(items))

	return func(yield func(types.RawItem, error) bool) {
		for _, it := range items {
			if err := ctx.Err(); err != nil {
				yield(types.RawItem{}, err)
				return
			}
			if !yield(r.item(ctx, it)) {
				return
			}
		}
	}, nil
}

func (r *RSSFeed) item(ctx context.Context, it *gofeed.Item) (types.RawItem, error) {
	raw := types.RawItem{
		Title: strings.TrimSpace(it.Title),
		URL:   strings.TrimSpace(it.Link),
		Tags:  append([]string(nil), it.Categories...),
	}

	switch {
	case it.PublishedParsed != nil:
		raw.Date = it.PublishedParsed.Format(time.RFC3339)
	case it.UpdatedParsed != nil:
		raw.Date = it.UpdatedParsed.Format(time.RFC3339)
	default:
		raw.Date = it.Published
	}

	desc := it.Description
	if desc == "" {
		desc = it.Content
	}
	raw.Content = htmlText(desc)
	if raw.Content != "" || raw.URL == "" {
		raw.Content = cleanContent(raw.Content)
		return raw, nil
	}

	page, err := r.fetcher.Page(ctx, raw.URL)
	if err != nil {
		return types.RawItem{}, fmt.Errorf("[%s] detail %s: %w", r.cfg.ID, raw.URL, err)
	}
	raw.Content = cleanContent(extractMainText(page))
	return raw, nil
}

// htmlText flattens an HTML fragment into plain text lines.
func htmlText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	if ps := paragraphs(doc.Find("p"), 0, 0); ps != "" {
		return ps
	}
	return text(doc.Selection)
}
