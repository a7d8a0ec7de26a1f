package sites

import (
	"context"
	"iter"
	"regexp"
	"strings"

	"ainewsbot/types"
)

var zdnetNoise = regexp.MustCompile(`(?m)^[^\n]*(関連記事|ZDNET Japan)[^\n]*\n?`)

// ZDNetJapan scrapes the AI, generative AI and DX keyword pages of ZDNet Japan.
type ZDNetJapan struct {
	crawler
}

// NewZDNetJapan creates the ZDNet Japan adapter.
func NewZDNetJapan(cfg SiteConfig, fetcher *PageFetcher) *ZDNetJapan {
	return &ZDNetJapan{crawler: newCrawler(cfg, fetcher)}
}

func (s *ZDNetJapan) Fetch(ctx context.Context) (iter.Seq2[types.RawItem, error], error) {
	return s.crawl(ctx, s)
}

func (s *ZDNetJapan) listingPages() []listingPage {
	var pages []listingPage
	for _, path := range s.cfg.paths(keywordPaths("/keyword/", "/", "AI", "生成AI", "DX")) {
		pages = append(pages, listingPage{URL: s.url(path)})
	}
	return pages
}

func (s *ZDNetJapan) parseListing(p *Page, section string) []listing {
	return collectLinks(p, "a[href]", 14, section, func(href string) bool {
		return strings.Contains(href, "/article/")
	})
}

func (s *ZDNetJapan) parseDetail(p *Page, _ listing) types.RawItem {
	doc := p.Doc
	title := text(doc.Find(`h1[class*="title"], h1[class*="heading"]`).First())
	if title == "" {
		title = text(doc.Find("h1").First())
	}
	date := text(doc.Find("time").First())
	if date == "" {
		date = pageDate(p)
	}

	content := firstParagraphs(doc,
		`[class*="article-body"] p, [class*="article_body"] p, [class*="article-text"] p`,
		"article p")
	if content == "" {
		content = paragraphs(doc.Find("main p"), 30, 20)
	}
	content = zdnetNoise.ReplaceAllString(content, "")

	return types.RawItem{
		Title:    title,
		Date:     date,
		Category: "AI・テクノロジー",
		Tags:     shortTexts(doc.Find(`[class*="tag"], [class*="keyword"]`).First().Find("a"), 5),
		Content:  content,
	}
}
