package sites

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxContentRunes = 5000

var (
	imageCreditLine = regexp.MustCompile(`画像の出典：[^\n]*\n?`)
	relatedLine     = regexp.MustCompile(`関連記事：[^\n]*\n?`)
	adLine          = regexp.MustCompile(`(?m)^.{0,20}(PR|広告|スポンサー)[^\n]*\n?`)
	repostLine      = regexp.MustCompile(`この記事は[^\n]*?から転載[^\n]*\n?`)
	blankLines      = regexp.MustCompile(`\n{2,}`)
)

// cleanContent strips boilerplate lines shared by the news sites and caps the length.
func cleanContent(s string) string {
	s = imageCreditLine.ReplaceAllString(s, "")
	s = relatedLine.ReplaceAllString(s, "")
	s = adLine.ReplaceAllString(s, "")
	s = repostLine.ReplaceAllString(s, "")
	s = blankLines.ReplaceAllString(s, "\n")
	return truncate(strings.TrimSpace(s), maxContentRunes)
}

// text returns the whitespace-collapsed text of a selection.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// paragraphs joins the non-empty texts of sel, skipping ones shorter than minRunes.
// limit <= 0 keeps every paragraph.
func paragraphs(sel *goquery.Selection, minRunes, limit int) string {
	var out []string
	sel.EachWithBreak(func(i int, p *goquery.Selection) bool {
		if limit > 0 && i >= limit {
			return false
		}
		t := text(p)
		if t != "" && utf8.RuneCountInString(t) > minRunes {
			out = append(out, t)
		}
		return true
	})
	return strings.Join(out, "\n")
}

// firstParagraphs tries each selector in order and returns the first non-empty body.
func firstParagraphs(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if body := paragraphs(doc.Find(sel), 0, 0); body != "" {
			return body
		}
	}
	return ""
}

// shortTexts collects up to limit texts shorter than 30 runes, e.g. tag links.
func shortTexts(sel *goquery.Selection, limit int) []string {
	var out []string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(out) == limit {
			return false
		}
		if t := text(s); t != "" && utf8.RuneCountInString(t) < 30 {
			out = append(out, t)
		}
		return true
	})
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
