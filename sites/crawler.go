package sites

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"strings"
	"unicode/utf8"

	"ainewsbot/normalize"
	"ainewsbot/types"

	"github.com/PuerkitoBio/goquery"
)

const defaultMaxItems = 15

// listingPage is one index page to scan, with the section label it represents.
type listingPage struct {
	URL     string
	Section string
}

// listing is an article link discovered on an index page.
type listing struct {
	URL     string
	Title   string
	Section string
}

// siteParser is the per-site part of a crawl.
type siteParser interface {
	listingPages() []listingPage
	parseListing(p *Page, section string) []listing
	parseDetail(p *Page, l listing) types.RawItem
}

// crawler holds what every HTML adapter shares: config and a page fetcher.
type crawler struct {
	cfg     SiteConfig
	fetcher *PageFetcher
}

func newCrawler(cfg SiteConfig, fetcher *PageFetcher) crawler {
	if fetcher == nil {
		fetcher = NewPageFetcher(FetcherOptions{Timeout: cfg.Timeout, Attempts: cfg.Retries})
	}
	return crawler{cfg: cfg, fetcher: fetcher}
}

func (c *crawler) ID() string   { return c.cfg.ID }
func (c *crawler) Name() string { return c.cfg.Name }

func (c *crawler) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *crawler) maxItems() int {
	if c.cfg.MaxItems > 0 {
		return c.cfg.MaxItems
	}
	return defaultMaxItems
}

// crawl fetches every listing page, then returns a lazy sequence over the detail pages.
func (c *crawler) crawl(ctx context.Context, site siteParser) (iter.Seq2[types.RawItem, error], error) {
	pages := site.listingPages()
	var (
		links   []listing
		seen    = make(map[string]bool)
		fetched int
		lastErr error
	)
	for _, lp := range pages {
		page, err := c.fetcher.Page(ctx, lp.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &types.FetchError{SourceID: c.cfg.ID, Cause: ctx.Err()}
			}
			log.Printf("⚠️ [%s] listing %s: %v", c.cfg.ID, lp.URL, err)
			lastErr = err
			continue
		}
		fetched++
		for _, l := range site.parseListing(page, lp.Section) {
			if seen[l.URL] {
				continue
			}
			seen[l.URL] = true
			links = append(links, l)
		}
	}
	if fetched == 0 {
		if lastErr == nil {
			lastErr = errors.New("no listing pages configured")
		}
		return nil, &types.FetchError{SourceID: c.cfg.ID, Cause: lastErr}
	}

	log.Printf("📰 [%s] found %d articles on %d/%d listing pages", c.cfg.ID, len(links), fetched, len(pages))
	if len(links) > c.maxItems() {
		links = links[:c.maxItems()]
	}

	return func(yield func(types.RawItem, error) bool) {
		for _, l := range links {
			if err := ctx.Err(); err != nil {
				yield(types.RawItem{}, err)
				return
			}
			item, err := c.detail(ctx, site, l)
			if !yield(item, err) {
				return
			}
		}
	}, nil
}

func (c *crawler) detail(ctx context.Context, site siteParser, l listing) (types.RawItem, error) {
	page, err := c.fetcher.Page(ctx, l.URL)
	if err != nil {
		return types.RawItem{}, fmt.Errorf("[%s] detail %s: %w", c.cfg.ID, l.URL, err)
	}
	item := site.parseDetail(page, l)
	item.URL = l.URL
	if item.Title == "" {
		item.Title = l.Title
	}
	if item.Content == "" {
		item.Content = extractMainText(page)
	}
	item.Content = cleanContent(item.Content)
	return item, nil
}

// collectLinks scans anchors matching selector and keeps those accepted by match,
// resolving hrefs against the page. The title is the first heading inside the
// link, else the link text; titles of minTitle runes or fewer are dropped.
func collectLinks(p *Page, selector string, minTitle int, section string, match func(href string) bool) []listing {
	var out []listing
	p.Doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		u, err := p.Resolve(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		abs := u.String()
		if match != nil && !match(abs) {
			return
		}
		title := text(a.Find("h1, h2, h3, h4, h5").First())
		if title == "" {
			title = text(a)
		}
		if utf8.RuneCountInString(title) <= minTitle {
			return
		}
		out = append(out, listing{URL: abs, Title: truncate(title, 200), Section: section})
	})
	return out
}

// pageDate finds the first date-looking text in the page, as a last resort.
func pageDate(p *Page) string {
	return normalize.FindDate(p.Doc.Text())
}
