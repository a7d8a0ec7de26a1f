package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"ainewsbot/types"

	"github.com/araddon/dateparse"
)

// Tokyo is used for dates printed without a zone; every source is a Japanese site.
var Tokyo = types.Tokyo

var dateLayouts = []string{
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006年1月2日 15:04",
	"2006年1月2日 15時04分",
	"2006年1月2日",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006.01.02",
}

var ymdPattern = regexp.MustCompile(`(\d{4})[/年.-](\d{1,2})[/月.-](\d{1,2})日?`)

// ParseDate parses a publication date on a best-effort basis.
// It returns nil when nothing usable is found; a missing date is never an error.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "　", " "))
	if s == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, Tokyo); err == nil {
			return &t
		}
	}
	// dateparse only understands western formats
	if isASCII(s) {
		if t, ok := tryDateparse(s); ok {
			return &t
		}
	}

	// Dates embedded in longer text, e.g. "公開日：2025年3月10日 10時00分"
	if m := ymdPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		dayOfMonth, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || dayOfMonth < 1 || dayOfMonth > 31 {
			return nil
		}
		t := time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, Tokyo)
		if t.Day() != dayOfMonth {
			return nil
		}
		return &t
	}
	return nil
}

// FindDate extracts the first date-looking fragment from free text.
func FindDate(text string) string {
	return ymdPattern.FindString(text)
}

// dateparse panics on a few malformed inputs
func tryDateparse(s string) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	t, err := dateparse.ParseIn(s, Tokyo)
	if err != nil || !plausible(t) {
		return time.Time{}, false
	}
	return t, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func plausible(t time.Time) bool {
	return t.Year() >= 1990 && t.Year() <= 2100
}
