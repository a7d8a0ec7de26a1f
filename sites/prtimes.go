package sites

import (
	"context"
	"iter"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"ainewsbot/types"
)

var prtimesFooter = regexp.MustCompile(`(お問い合わせ|プレスリリース詳細|関連URL|プロフィール)[\s\S]*`)

// PRTimes scrapes press releases listed under AI and DX keyword pages of PR TIMES.
type PRTimes struct {
	crawler
}

// NewPRTimes creates the PR TIMES adapter.
func NewPRTimes(cfg SiteConfig, fetcher *PageFetcher) *PRTimes {
	return &PRTimes{crawler: newCrawler(cfg, fetcher)}
}

func (s *PRTimes) Fetch(ctx context.Context) (iter.Seq2[types.RawItem, error], error) {
	return s.crawl(ctx, s)
}

func (s *PRTimes) listingPages() []listingPage {
	var pages []listingPage
	for _, path := range s.cfg.paths(keywordPaths("/topics/keywords/", "", "生成AI", "DX", "業務効率化", "AI導入")) {
		pages = append(pages, listingPage{URL: s.url(path)})
	}
	return pages
}

func (s *PRTimes) parseListing(p *Page, section string) []listing {
	return collectLinks(p, "a[href]", 14, section, func(href string) bool {
		return strings.Contains(href, "/main/html/rd/p/")
	})
}

func (s *PRTimes) parseDetail(p *Page, _ listing) types.RawItem {
	doc := p.Doc
	title := text(doc.Find(`h1[class*="title"], h1[class*="heading"]`).First())
	if title == "" {
		title = text(doc.Find("h1").First())
	}
	date := text(doc.Find("time").First())
	if date == "" {
		date = pageDate(p)
	}

	var tags []string
	company := doc.Find(`[class*="company"]`).First()
	if company.Length() == 0 {
		company = doc.Find(`a[href*="/company/"]`).First()
	}
	if name := truncate(text(company), 30); name != "" {
		tags = append(tags, name)
	}
	for _, t := range shortTexts(doc.Find(`[class*="tag"], [class*="keyword"]`).First().Find("a"), 3) {
		if !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}

	var content string
	body := doc.Find(`[class*="content"], [class*="body"]`).First()
	if body.Length() > 0 {
		content = paragraphs(body.Find("p"), 20, 0)
	}
	if content == "" {
		content = firstParagraphs(doc, "article p", "main p")
	}
	content = prtimesFooter.ReplaceAllString(content, "")

	return types.RawItem{
		Title:    title,
		Date:     date,
		Category: "プレスリリース",
		Tags:     tags,
		Content:  content,
	}
}

// keywordPaths builds escaped listing paths for keyword pages.
func keywordPaths(prefix, suffix string, keywords ...string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, prefix+url.PathEscape(k)+suffix)
	}
	return out
}
