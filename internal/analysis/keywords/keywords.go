// Package keywords normalizes free-text business descriptions into filtered
// token sets and scores the overlap between them. The screener uses the
// overlap percentage as a cheap "same industry, similar narrative" signal.
package keywords

import (
	"regexp"
	"strings"
)

// Stopwords are excluded from keyword extraction. Injected as an immutable
// configuration constant; never mutated at runtime.
var Stopwords = map[string]bool{
	"the": true, "and": true, "a": true, "in": true, "of": true, "for": true,
	"with": true, "on": true, "at": true, "to": true, "by": true, "from": true,
	"as": true, "that": true, "which": true, "this": true, "these": true,
	"those": true, "it": true, "is": true, "are": true, "be": true, "has": true,
	"have": true, "was": true, "were": true, "been": true, "being": true,
	"its": true, "an": true, "or": true, "but": true, "also": true,
	"about": true, "under": true, "over": true, "through": true,
	"throughout": true, "using": true, "utilizing": true, "their": true,
	"other": true,
}

// minTokenLen filters short filler tokens; only tokens longer than this
// survive extraction.
const minTokenLen = 3

var nonAlpha = regexp.MustCompile(`[^a-zA-Z\s]`)

// Extract derives the keyword set of a company description: lowercase
// alphabetic tokens longer than three characters, with stopwords and every
// word of the company's own name removed. Deterministic and
// case-insensitive; returned tokens are unique, in first-seen order.
func Extract(description, companyName string) []string {
	if description == "" {
		return nil
	}

	// Words of the company's own name are never keywords, matched whole-word
	// against their lowercased form.
	ownName := make(map[string]bool)
	for _, w := range strings.Fields(nonAlpha.ReplaceAllString(strings.ToLower(companyName), "")) {
		ownName[w] = true
	}

	cleaned := nonAlpha.ReplaceAllString(description, "")
	words := strings.Fields(strings.ToLower(cleaned))

	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		if len(w) <= minTokenLen || Stopwords[w] || ownName[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// MatchPercent scores how much of the target's keyword set the peer shares:
// |target ∩ peer| / |target| × 100. The denominator is always the target's
// keyword count; an empty peer set scores 0 regardless of the target.
func MatchPercent(target, peer []string) float64 {
	if len(target) == 0 || len(peer) == 0 {
		return 0
	}

	peerSet := make(map[string]bool, len(peer))
	for _, w := range peer {
		peerSet[w] = true
	}

	overlap := 0
	for _, w := range target {
		if peerSet[w] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(target)) * 100
}
