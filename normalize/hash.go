package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentHash fingerprints the parts of an article that make a change worth re-committing.
// The result is sha256(normalizedTitle + "\n" + normalizedText) in hex.
func ContentHash(title, content string) string {
	h := sha256.Sum256([]byte(normalizeTitle(title) + "\n" + normalizeText(content)))
	return hex.EncodeToString(h[:])
}

func normalizeTitle(t string) string {
	t = strings.TrimSpace(t)
	t = strings.ToLower(t)
	// collapse multiple whitespace
	fields := strings.Fields(t)
	return strings.Join(fields, " ")
}

// normalizeText collapses whitespace per line and drops blank lines.
func normalizeText(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
