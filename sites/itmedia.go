package sites

import (
	"context"
	"iter"
	"regexp"
	"strings"

	"ainewsbot/types"
)

var (
	isoDate = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

	itmediaSections = []listingPage{
		{URL: "/aiplus/subtop/news/index.html", Section: "速報"},
		{URL: "/aiplus/subtop/genai/index.html", Section: "生成AI"},
		{URL: "/aiplus/subtop/dataanalytics/index.html", Section: "データ分析"},
		{URL: "/aiplus/subtop/computing/index.html", Section: "計算資源"},
		{URL: "/aiplus/subtop/robotics/index.html", Section: "ロボティクス"},
	}
)

// ITmediaAIPlus scrapes the section pages of ITmedia AI+.
type ITmediaAIPlus struct {
	crawler
}

// NewITmediaAIPlus creates the ITmedia AI+ adapter.
func NewITmediaAIPlus(cfg SiteConfig, fetcher *PageFetcher) *ITmediaAIPlus {
	return &ITmediaAIPlus{crawler: newCrawler(cfg, fetcher)}
}

func (s *ITmediaAIPlus) Fetch(ctx context.Context) (iter.Seq2[types.RawItem, error], error) {
	return s.crawl(ctx, s)
}

func (s *ITmediaAIPlus) listingPages() []listingPage {
	if len(s.cfg.ListingPaths) > 0 {
		pages := make([]listingPage, 0, len(s.cfg.ListingPaths))
		for _, path := range s.cfg.ListingPaths {
			pages = append(pages, listingPage{URL: s.url(path)})
		}
		return pages
	}
	pages := make([]listingPage, 0, len(itmediaSections))
	for _, sec := range itmediaSections {
		pages = append(pages, listingPage{URL: s.url(sec.URL), Section: sec.Section})
	}
	return pages
}

func (s *ITmediaAIPlus) parseListing(p *Page, section string) []listing {
	return collectLinks(p, `a[href*="/aiplus/articles/"]`, 10, section, func(href string) bool {
		return strings.Contains(href, "/aiplus/articles/")
	})
}

func (s *ITmediaAIPlus) parseDetail(p *Page, l listing) types.RawItem {
	doc := p.Doc
	title := text(doc.Find("h1").First())
	if title == "" {
		title = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}

	var date string
	if m := isoDate.FindStringSubmatch(doc.Find(`meta[property="article:published_time"]`).AttrOr("content", "")); m != nil {
		date = m[1] + "/" + m[2] + "/" + m[3]
	}
	if date == "" {
		date = pageDate(p)
	}

	content := firstParagraphs(doc, "article p", "main p", "#CMS p")
	if content == "" {
		content = paragraphs(doc.Find("p"), 30, 30)
	}

	return types.RawItem{
		Title:    title,
		Date:     date,
		Category: l.Section,
		Tags:     shortTexts(doc.Find(`a[href*="/aiplus/tag/"]`), 5),
		Content:  content,
	}
}
