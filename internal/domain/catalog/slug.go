package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify builds a URL-safe slug: accents are folded, only ASCII letters and
// digits survive, and runs of whitespace, dashes or underscores become a
// single dash. Text with no Latin characters (Greek names) yields "".
func Slugify(text string) string {
	lower := strings.ToLower(text)
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, lower)
	if err != nil {
		folded = lower
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || r == '_' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}

// NormalizeSKUSuffix lower-cases a supplier SKU and drops everything but [a-z0-9]
func NormalizeSKUSuffix(sku string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(sku) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
