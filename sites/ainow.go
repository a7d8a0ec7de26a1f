package sites

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"regexp"

	"ainewsbot/types"
)

var ainowArticlePath = regexp.MustCompile(`^/\d+/`)

// AINow scrapes the front page and the paginated archive of AINOW.
type AINow struct {
	crawler
}

// NewAINow creates the AINOW adapter.
func NewAINow(cfg SiteConfig, fetcher *PageFetcher) *AINow {
	return &AINow{crawler: newCrawler(cfg, fetcher)}
}

func (s *AINow) Fetch(ctx context.Context) (iter.Seq2[types.RawItem, error], error) {
	return s.crawl(ctx, s)
}

func (s *AINow) listingPages() []listingPage {
	pages := []listingPage{{URL: s.url("/")}}
	for n := 2; n <= s.cfg.maxPages(); n++ {
		pages = append(pages, listingPage{URL: s.url(fmt.Sprintf("/page/%d/", n))})
	}
	return pages
}

// parseListing keeps same-host links shaped like /12345/.
func (s *AINow) parseListing(p *Page, section string) []listing {
	return collectLinks(p, "a[href]", 10, section, func(href string) bool {
		u, err := url.Parse(href)
		return err == nil && u.Host == p.URL.Host && ainowArticlePath.MatchString(u.Path)
	})
}

func (s *AINow) parseDetail(p *Page, _ listing) types.RawItem {
	doc := p.Doc
	title := text(doc.Find("h1.entry-title, h1.post-title").First())
	if title == "" {
		title = text(doc.Find("h1").First())
	}

	item := types.RawItem{
		Title:    title,
		Date:     pageDate(p),
		Category: truncate(text(doc.Find(`[class*="category"]`).First()), 20),
		Tags:     shortTexts(doc.Find(`[class*="tag"], [class*="keyword"]`).First().Find("a"), 5),
	}

	body := doc.Find(`.entry-content, .post-content, .article-body`).First()
	if body.Length() == 0 {
		body = doc.Find("article").First()
	}
	item.Content = paragraphs(body.Find("p"), 0, 0)
	return item
}
