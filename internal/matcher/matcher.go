package matcher

import (
	"strings"

	"bearwatch/internal/config"
	"bearwatch/internal/domain"
)

// Words shorter than this never match on their own; multi-word phrases like
// "WA NRL" would otherwise fire on every "wa" substring.
const minPartialWordLength = 5

// Matcher scores text against the two configured keyword tiers. It is a pure
// value: no network, no state, safe for concurrent use.
type Matcher struct {
	primary   []string
	secondary []string
}

// New builds a matcher from the configured keyword tiers.
func New(kw config.KeywordConfig) *Matcher {
	return &Matcher{
		primary:   kw.Primary,
		secondary: kw.Secondary,
	}
}

// Match reports which phrases occur in text and the resulting relevance
// tier. Any primary hit classifies the article as primary even when
// secondary phrases also match; matched keywords keep tier order (primary
// first) and configured order within a tier. Returns (nil, 0) when nothing
// matches.
func (m *Matcher) Match(text string) ([]string, int) {
	if text == "" {
		return nil, 0
	}

	lower := strings.ToLower(text)

	var matched []string
	for _, phrase := range m.primary {
		if phraseMatches(phrase, lower) {
			matched = append(matched, phrase)
		}
	}
	hasPrimary := len(matched) > 0

	for _, phrase := range m.secondary {
		if phraseMatches(phrase, lower) {
			matched = append(matched, phrase)
		}
	}

	if len(matched) == 0 {
		return nil, 0
	}

	if hasPrimary {
		return matched, domain.RelevancePrimary
	}
	return matched, domain.RelevanceSecondary
}

// phraseMatches checks exact substring containment first; multi-word phrases
// additionally match when any individual word of minPartialWordLength+ chars
// appears ("Meninga" alone still matches "Mal Meninga").
func phraseMatches(phrase, textLower string) bool {
	phraseLower := strings.ToLower(phrase)

	if strings.Contains(textLower, phraseLower) {
		return true
	}

	words := strings.Fields(phraseLower)
	if len(words) < 2 {
		return false
	}
	for _, word := range words {
		if len(word) >= minPartialWordLength && strings.Contains(textLower, word) {
			return true
		}
	}

	return false
}
