package normalize

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"

	"ainewsbot/types"
)

var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"yclid":   true,
	"mc_cid":  true,
	"mc_eid":  true,
	"igshid":  true,
	"_hsenc":  true,
	"_hsmi":   true,
	"ref_src": true,
}

func isTrackingParam(key string) bool {
	lk := strings.ToLower(key)
	return strings.HasPrefix(lk, "utm_") || trackingParams[lk]
}

// CanonicalURL normalizes an absolute http(s) URL for identity purposes:
// lower-case scheme and host, no fragment, no default port, no tracking
// parameters, remaining query pairs kept verbatim in key order, no trailing slash.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &types.ValidationError{Field: "url", Reason: "empty"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &types.ValidationError{Field: "url", Reason: err.Error()}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &types.ValidationError{Field: "url", Reason: fmt.Sprintf("not an absolute http(s) url: %q", raw)}
	}
	if u.Host == "" {
		return "", &types.ValidationError{Field: "url", Reason: fmt.Sprintf("missing host: %q", raw)}
	}

	u.Host = strings.ToLower(u.Host)
	if host, port, err := net.SplitHostPort(u.Host); err == nil {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			u.Host = host
		}
	}
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	u.RawQuery = cleanQuery(u.RawQuery)

	out := u.String()
	if u.RawQuery == "" {
		out = strings.TrimRight(out, "/")
	} else if strings.HasSuffix(u.Path, "/") && u.Path != "/" {
		u.Path = strings.TrimRight(u.Path, "/")
		out = u.String()
	}
	return out, nil
}

// cleanQuery drops tracking pairs and sorts the rest by key. Pairs are kept as
// written, so values url.ParseQuery would reject (bad escapes, ';') still
// distinguish URLs.
func cleanQuery(raw string) string {
	type pair struct{ key, raw string }
	var kept []pair
	for _, p := range strings.Split(raw, "&") {
		if p == "" {
			continue
		}
		key, _, _ := strings.Cut(p, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if isTrackingParam(key) {
			continue
		}
		kept = append(kept, pair{key: key, raw: p})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].key < kept[j].key })

	parts := make([]string, len(kept))
	for i, p := range kept {
		parts[i] = p.raw
	}
	return strings.Join(parts, "&")
}

// ExternalID derives the stable per-source identifier from a raw URL.
func ExternalID(raw string) (string, error) {
	canonical, err := CanonicalURL(raw)
	if err != nil {
		return "", err
	}
	return types.GenerateID(canonical), nil
}
