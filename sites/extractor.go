package sites

import (
	"bytes"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// extractMainText runs readability over an already downloaded page.
// It is the fallback when the site selectors found no body.
func extractMainText(p *Page) string {
	article, err := readability.FromReader(bytes.NewReader(p.Body), p.URL)
	if err != nil {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(article.TextContent, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
