package normalize

import (
	"strings"

	"ainewsbot/types"
)

// OtherCategory is assigned when no keyword category matches.
const OtherCategory = "その他"

// KeywordCategory is one display category and the keywords that select it.
type KeywordCategory struct {
	Name     string
	Keywords []string
}

// KeywordCategories in priority order; the first match is the primary category.
var KeywordCategories = []KeywordCategory{
	{
		Name: "企業効率化",
		Keywords: []string{
			"業務効率化", "業務改善", "生産性向上", "コスト削減", "働き方改革",
			"自動化", "効率化", "省力化", "時短",
		},
	},
	{
		Name:     "DX・デジタル化",
		Keywords: []string{"DX", "デジタルトランスフォーメーション", "デジタル化", "デジタル変革"},
	},
	{
		Name:     "企業導入",
		Keywords: []string{"企業導入", "企業事例", "国内企業", "導入事例", "活用事例", "ビジネス活用"},
	},
	{
		Name: "AI・テクノロジー",
		Keywords: []string{
			"AI", "人工知能", "機械学習", "生成AI", "ChatGPT", "GPT", "LLM",
			"AI導入", "AI活用", "データ分析",
		},
	},
}

// CategoryNames lists every category including the fallback, in display order.
func CategoryNames() []string {
	names := make([]string, 0, len(KeywordCategories)+1)
	for _, c := range KeywordCategories {
		names = append(names, c.Name)
	}
	return append(names, OtherCategory)
}

// Categorize returns every matching category, primary first, joined by ", ".
func Categorize(title string, tags []string, content string) string {
	text := strings.ToLower(title + " " + strings.Join(tags, " ") + " " + prefix(content, 500))

	var matched []string
	for _, c := range KeywordCategories {
		if containsAny(text, c.Keywords) {
			matched = append(matched, c.Name)
		}
	}
	if len(matched) == 0 {
		return OtherCategory
	}
	return strings.Join(matched, ", ")
}

// Relevant reports whether the article mentions any tracked keyword.
func Relevant(a types.Article) bool {
	text := strings.ToLower(a.Title + " " + strings.Join(a.Tags, " ") + " " + prefix(a.Content, 1000))
	for _, c := range KeywordCategories {
		if containsAny(text, c.Keywords) {
			return true
		}
	}
	return false
}

func containsAny(lowerText string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerText, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// prefix returns at most n runes of s.
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
