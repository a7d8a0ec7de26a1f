package sites

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"ainewsbot/types"
)

var ledgeCategories = []string{"ビジネス", "公共", "学術＆研究", "エンタメ＆アート"}

// LedgeAI scrapes the business and public sector categories of Ledge.ai.
type LedgeAI struct {
	crawler
}

// NewLedgeAI creates the Ledge.ai adapter.
func NewLedgeAI(cfg SiteConfig, fetcher *PageFetcher) *LedgeAI {
	return &LedgeAI{crawler: newCrawler(cfg, fetcher)}
}

func (s *LedgeAI) Fetch(ctx context.Context) (iter.Seq2[types.RawItem, error], error) {
	return s.crawl(ctx, s)
}

func (s *LedgeAI) listingPages() []listingPage {
	var pages []listingPage
	for _, path := range s.cfg.paths([]string{"/categories/business", "/categories/public"}) {
		for n := 1; n <= s.cfg.maxPages(); n++ {
			u := s.url(path)
			if n > 1 {
				u = fmt.Sprintf("%s?page=%d", u, n)
			}
			pages = append(pages, listingPage{URL: u})
		}
	}
	return pages
}

func (s *LedgeAI) parseListing(p *Page, section string) []listing {
	return collectLinks(p, `a[href^="/articles/"]`, 10, section, nil)
}

func (s *LedgeAI) parseDetail(p *Page, _ listing) types.RawItem {
	doc := p.Doc
	item := types.RawItem{
		Title: text(doc.Find("h1").First()),
		Date:  pageDate(p),
		Tags:  shortTexts(doc.Find(`a[href*="/search?q="]`), 5),
	}

	head := truncate(text(doc.Selection), 1000)
	for _, c := range ledgeCategories {
		if strings.Contains(head, c) {
			item.Category = c
			break
		}
	}

	item.Content = firstParagraphs(doc, "article p", "main p")
	if item.Content == "" {
		item.Content = paragraphs(doc.Find("p"), 30, 20)
	}
	return item
}
