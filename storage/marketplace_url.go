package storage

import "strings"

// suffixAbbrev maps spelled-out street suffixes to the abbreviations the
// marketplace uses in its address slugs.
var suffixAbbrev = map[string]string{
	"street":    "St",
	"avenue":    "Ave",
	"road":      "Rd",
	"drive":     "Dr",
	"lane":      "Ln",
	"court":     "Ct",
	"place":     "Pl",
	"boulevard": "Blvd",
	"terrace":   "Ter",
	"circle":    "Cir",
	"highway":   "Hwy",
	"parkway":   "Pkwy",
	"turnpike":  "Tpke",
}

// MarketplaceURL derives the external marketplace search URL for a listing
// from its formatted address: suffix words abbreviated, commas dropped,
// spaces replaced with dashes, and the slug percent-encoded with "-" kept
// literal. Returns "" when there is no address to build from.
func MarketplaceURL(formattedAddress string) string {
	if strings.TrimSpace(formattedAddress) == "" {
		return ""
	}

	cleaned := strings.ReplaceAll(formattedAddress, ",", "")
	words := strings.Fields(cleaned)
	for i, w := range words {
		if abbrev, ok := suffixAbbrev[strings.ToLower(w)]; ok {
			words[i] = abbrev
		}
	}
	slug := strings.Join(words, "-")

	return "https://www.zillow.com/homes/" + escapeSlug(slug) + "_rb/"
}

// escapeSlug percent-encodes every byte outside the URL-unreserved set.
// net/url has no escaper that leaves "-" in a query-safe slug alone, so this
// follows its shouldEscape table with "-" always kept.
func escapeSlug(s string) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '_' || c == '.' || c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}
	return b.String()
}
