package query

import (
	"regexp"
	"strings"
)

// placeholderPatterns match development and intake artifacts that sometimes
// leak into brand descriptions. They are noise, not content.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsmoke[ -]?tests?\b`),
	regexp.MustCompile(`(?i)\btemp(orary)?\b`),
	regexp.MustCompile(`(?i)\bseed(ed|ing)?\s+(data|account|brand)\b`),
	regexp.MustCompile(`(?i)\bplaceholder\b`),
	regexp.MustCompile(`(?i)\blorem ipsum\b`),
	regexp.MustCompile(`(?i)\btest (brand|account|data|run)\b`),
	regexp.MustCompile(`(?i)\btbd\b`),
	regexp.MustCompile(`(?i)\bn/?a\b`),
	regexp.MustCompile(`(?i)\[[^\]]*\]`), // bracketed editor notes
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Sanitize strips placeholder noise from free-text intake fields and
// collapses whitespace. Returns "" when nothing real remains.
func Sanitize(s string) string {
	out := s
	for _, re := range placeholderPatterns {
		out = re.ReplaceAllString(out, " ")
	}
	out = whitespaceRE.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// stopwords are filtered out before frequency ranking. Includes generic
// business filler that carries no search signal.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "in": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "or": true, "our": true,
	"that": true, "the": true, "their": true, "they": true, "this": true,
	"to": true, "was": true, "we": true, "were": true, "which": true,
	"who": true, "will": true, "with": true, "you": true, "your": true,
	"about": true, "all": true, "also": true, "into": true, "more": true,
	"other": true, "over": true, "some": true, "such": true, "than": true,
	"them": true, "these": true, "through": true, "up": true, "out": true,
	"business": true, "company": true, "brand": true, "offer": true,
	"offers": true, "provide": true, "provides": true, "providing": true,
	"help": true, "helps": true, "helping": true, "best": true,
	"quality": true, "leading": true, "top": true, "great": true,
	"like": true, "new": true, "get": true, "make": true, "made": true,
	"one": true, "people": true, "customers": true, "clients": true,
	"products": true, "services": true, "product": true, "service": true,
}

var tokenRE = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)

// TopKeywords extracts the most frequent non-stopword tokens from text,
// capped at max. Ordering is deterministic: frequency desc, first-seen asc.
func TopKeywords(text string, max int) []string {
	lower := strings.ToLower(Sanitize(text))
	tokens := tokenRE.FindAllString(lower, -1)

	counts := make(map[string]int)
	var order []string
	for _, tok := range tokens {
		if len(tok) < 3 || stopwords[tok] {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	// Stable ranking: count desc, then first appearance.
	ranked := make([]string, len(order))
	copy(ranked, order)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && counts[ranked[j]] > counts[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}
