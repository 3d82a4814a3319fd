package analytics

import (
	"strings"
	"unicode"
)

// minKeywordLen is the shortest token kept as a keyword.
const minKeywordLen = 3

// KeywordExtractor turns free-text questions into search terms.
type KeywordExtractor struct {
	stopwords StopwordSet
}

// NewKeywordExtractor builds an extractor over the given stop-word set.
func NewKeywordExtractor(stopwords StopwordSet) *KeywordExtractor {
	return &KeywordExtractor{stopwords: stopwords}
}

// Extract lower-cases the query, strips everything except ASCII letters, digits and
// Unicode whitespace, and returns the remaining tokens in input order, dropping short tokens
// and stop-words. Duplicates are kept. An empty result means the query carried no
// meaningful terms.
func (e *KeywordExtractor) Extract(query string) []string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range strings.ToLower(query) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	keywords := []string{}
	for _, token := range strings.Fields(b.String()) {
		if len(token) < minKeywordLen || e.stopwords.Contains(token) {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}
