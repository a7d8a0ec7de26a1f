package normalize

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ainewsbot/types"
)

func TestCanonicalURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{"simple", "https://example.com/path", "https://example.com/path"},
		{"utm and fragment", "https://example.com/path?utm_source=feed#section", "https://example.com/path"},
		{"uppercase host", "HTTP://Example.COM/", "http://example.com"},
		{"tracking params", "https://example.com/?fbclid=XYZ&gclid=ABC&utm_medium=1", "https://example.com"},
		{"default port and sorted query", "https://Example.com:443/a/b/?b=2&a=1&utm_campaign=x", "https://example.com/a/b?a=1&b=2"},
		{"custom port kept", "http://example.com:8080/x", "http://example.com:8080/x"},
		{"bad escape kept", "https://example.com/a?id=%zz&utm_source=x", "https://example.com/a?id=%zz"},
		{"semicolon pair kept", "https://example.com/a?p=1;q=2", "https://example.com/a?p=1;q=2"},
		{"repeated key order kept", "https://example.com/a?t=2&s=1&t=1", "https://example.com/a?s=1&t=2&t=1"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := CanonicalURL(c.url)
			if err != nil {
				t.Fatalf("CanonicalURL(%q) error: %v", c.url, err)
			}
			if got != c.want {
				t.Fatalf("CanonicalURL(%q) = %q; want %q", c.url, got, c.want)
			}
			again, err := CanonicalURL(got)
			if err != nil || again != got {
				t.Fatalf("CanonicalURL not idempotent: %q -> %q (%v)", got, again, err)
			}
		})
	}
}

func TestExternalIDKeepsUnparseableQuery(t *testing.T) {
	base, err := ExternalID("https://example.com/a")
	if err != nil {
		t.Fatalf("ExternalID: %v", err)
	}
	for _, raw := range []string{"https://example.com/a?id=%zz", "https://example.com/a?p=1;q=2"} {
		id, err := ExternalID(raw)
		if err != nil {
			t.Fatalf("ExternalID(%q): %v", raw, err)
		}
		if id == base {
			t.Fatalf("ExternalID(%q) collides with the bare path", raw)
		}
	}
}

func TestCanonicalURLRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "/articles/1", "ftp://example.com/x", "https://", "mailto:a@example.com"} {
		_, err := CanonicalURL(raw)
		var verr *types.ValidationError
		if !errors.As(err, &verr) || verr.Field != "url" {
			t.Fatalf("CanonicalURL(%q) err = %v; want url ValidationError", raw, err)
		}
	}
}

func TestExternalIDIgnoresTrackingAndFragment(t *testing.T) {
	base, err := ExternalID("https://ledge.ai/articles/ai_news")
	if err != nil {
		t.Fatalf("ExternalID: %v", err)
	}
	if len(base) != 16 {
		t.Fatalf("ExternalID length = %d", len(base))
	}
	variants := []string{
		"https://ledge.ai/articles/ai_news?utm_source=x&utm_medium=y",
		"https://ledge.ai/articles/ai_news#comments",
		"HTTPS://LEDGE.AI/articles/ai_news/?fbclid=abc",
	}
	for _, v := range variants {
		id, err := ExternalID(v)
		if err != nil {
			t.Fatalf("ExternalID(%q): %v", v, err)
		}
		if id != base {
			t.Fatalf("ExternalID(%q) = %s; want %s", v, id, base)
		}
	}
	other, _ := ExternalID("https://ledge.ai/articles/other")
	if other == base {
		t.Fatalf("different paths produced the same id")
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2025/03/10", time.Date(2025, 3, 10, 0, 0, 0, 0, Tokyo)},
		{"2025/3/9 08:15", time.Date(2025, 3, 9, 8, 15, 0, 0, Tokyo)},
		{"2025年3月10日", time.Date(2025, 3, 10, 0, 0, 0, 0, Tokyo)},
		{"2025-03-10 09:30", time.Date(2025, 3, 10, 9, 30, 0, 0, Tokyo)},
		{"2025-03-10T09:00:00+09:00", time.Date(2025, 3, 10, 9, 0, 0, 0, Tokyo)},
		{"公開日：2025年3月10日 10時00分", time.Date(2025, 3, 10, 0, 0, 0, 0, Tokyo)},
	}
	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			got := ParseDate(c.raw)
			if got == nil {
				t.Fatalf("ParseDate(%q) = nil", c.raw)
			}
			if !got.Equal(c.want) {
				t.Fatalf("ParseDate(%q) = %v; want %v", c.raw, got, c.want)
			}
		})
	}

	for _, raw := range []string{"", "  ", "not a date"} {
		if got := ParseDate(raw); got != nil {
			t.Fatalf("ParseDate(%q) = %v; want nil", raw, got)
		}
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		title string
		tags  []string
		want  string
	}{
		{"業務効率化を実現する生成AI", nil, "企業効率化, AI・テクノロジー"},
		{"DX推進の導入事例", nil, "DX・デジタル化, 企業導入"},
		{"新製品発表", []string{"ChatGPT"}, "AI・テクノロジー"},
		{"新しいカフェがオープン", nil, OtherCategory},
	}
	for _, c := range cases {
		t.Run(c.title, func(t *testing.T) {
			if got := Categorize(c.title, c.tags, ""); got != c.want {
				t.Fatalf("Categorize(%q) = %q; want %q", c.title, got, c.want)
			}
		})
	}
}

func TestRelevant(t *testing.T) {
	if !Relevant(types.Article{Title: "生成AIの最新動向"}) {
		t.Fatalf("title keyword should be relevant")
	}
	if Relevant(types.Article{Title: "新しいカフェ", Content: "コーヒー"}) {
		t.Fatalf("unrelated article should not be relevant")
	}
	late := strings.Repeat("あ", 1000) + "人工知能"
	if Relevant(types.Article{Title: "お知らせ", Content: late}) {
		t.Fatalf("keywords after the first 1000 runes should be ignored")
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(map[string]string{"ledgeai": "Ledge.ai"})
	fetched := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	raw := types.RawItem{
		Title:    "  生成AIで  業務効率化 ",
		URL:      "https://ledge.ai/articles/x?utm_source=top",
		Date:     "2025年3月10日",
		Category: "ビジネス",
		Tags:     []string{"#AI", "DX", "AI", "LLM", "RAG", "SaaS", "extra"},
		Content:  strings.Repeat("本文", 3000),
	}
	a, err := n.NormalizeAt(raw, "ledgeai", fetched)
	if err != nil {
		t.Fatalf("NormalizeAt: %v", err)
	}
	if a.Title != "生成AIで 業務効率化" {
		t.Fatalf("title = %q", a.Title)
	}
	if a.URL != "https://ledge.ai/articles/x" || a.SourceName != "Ledge.ai" {
		t.Fatalf("url/name = %q %q", a.URL, a.SourceName)
	}
	if want := types.GenerateID("https://ledge.ai/articles/x"); a.ExternalID != want {
		t.Fatalf("external id = %q; want %q", a.ExternalID, want)
	}
	if len(a.Tags) != maxTags || a.Tags[0] != "AI" {
		t.Fatalf("tags = %v", a.Tags)
	}
	if utf8.RuneCountInString(a.Content) != maxContentRune {
		t.Fatalf("content runes = %d", utf8.RuneCountInString(a.Content))
	}
	if a.PublishedAt == nil || !a.FetchedAt.Equal(fetched) {
		t.Fatalf("dates = %v %v", a.PublishedAt, a.FetchedAt)
	}
	if !strings.HasPrefix(a.Category, "企業効率化") {
		t.Fatalf("category = %q", a.Category)
	}
	if a.ContentHash != ContentHash(a.Title, a.Content) {
		t.Fatalf("content hash mismatch")
	}

	noDate, err := n.NormalizeAt(types.RawItem{Title: "t", URL: "https://ainow.ai/1/", Category: "AI"}, "ainow", fetched)
	if err != nil {
		t.Fatalf("NormalizeAt: %v", err)
	}
	if noDate.PublishedAt != nil || noDate.SourceName != "ainow" {
		t.Fatalf("unexpected article %+v", noDate)
	}
	if len(noDate.Tags) != 1 || noDate.Tags[0] != "AI" {
		t.Fatalf("category tag = %v", noDate.Tags)
	}
}

func TestNormalizeValidation(t *testing.T) {
	n := NewNormalizer(nil)
	cases := []struct {
		name  string
		raw   types.RawItem
		field string
	}{
		{"blank title", types.RawItem{Title: "  ", URL: "https://example.com/a"}, "title"},
		{"relative url", types.RawItem{Title: "t", URL: "/a"}, "url"},
		{"missing url", types.RawItem{Title: "t"}, "url"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := n.Normalize(c.raw, "src")
			var verr *types.ValidationError
			if !errors.As(err, &verr) || verr.Field != c.field {
				t.Fatalf("Normalize err = %v; want ValidationError(%s)", err, c.field)
			}
		})
	}
}

func TestContentHashIgnoresWhitespaceAndCase(t *testing.T) {
	a := ContentHash("Hello  World", "line one\n\n  line   two ")
	b := ContentHash("hello world", "line one\nline two")
	if a != b {
		t.Fatalf("hashes differ: %s %s", a, b)
	}
	if a == ContentHash("hello world", "line one\nline three") {
		t.Fatalf("content change not reflected in hash")
	}
}
