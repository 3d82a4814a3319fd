package analytics

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StopwordSet is an immutable set of filler words ignored by keyword extraction.
type StopwordSet struct {
	words map[string]struct{}
}

// NewStopwordSet builds a set from words; entries are lower-cased and trimmed.
func NewStopwordSet(words []string) StopwordSet {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return StopwordSet{words: set}
}

// Contains reports whether word is a stop-word.
func (s StopwordSet) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

// Len returns the number of stop-words.
func (s StopwordSet) Len() int {
	return len(s.words)
}

// DefaultStopwords returns the built-in English stop-word set.
func DefaultStopwords() StopwordSet {
	return NewStopwordSet(defaultStopwords)
}

type stopwordFile struct {
	Stopwords []string `yaml:"stopwords"`
}

// LoadStopwords reads a YAML file of the form `stopwords: [a, b, ...]`.
// An empty path yields the default set.
func LoadStopwords(path string) (StopwordSet, error) {
	if path == "" {
		return DefaultStopwords(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return StopwordSet{}, fmt.Errorf("read stopwords %s: %w", path, err)
	}
	var file stopwordFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return StopwordSet{}, fmt.Errorf("parse stopwords %s: %w", path, err)
	}
	if len(file.Stopwords) == 0 {
		return StopwordSet{}, fmt.Errorf("stopwords %s: list is empty", path)
	}
	return NewStopwordSet(file.Stopwords), nil
}

var defaultStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before", "being",
	"below", "between", "both", "but", "by", "can", "could", "did", "do", "does",
	"doing", "down", "during", "each", "few", "for", "from", "further", "had", "has",
	"have", "having", "he", "her", "here", "hers", "him", "his", "how", "i",
	"if", "in", "into", "is", "it", "its", "just", "me", "more", "most",
	"my", "no", "nor", "not", "now", "of", "off", "on", "once", "only",
	"or", "other", "our", "ours", "out", "over", "own", "same", "she", "should",
	"so", "some", "such", "than", "that", "the", "their", "them", "then", "there",
	"these", "they", "this", "those", "through", "to", "too", "under", "until", "up",
	"very", "was", "we", "were", "what", "when", "where", "which", "while", "who",
	"whom", "why", "will", "with", "would", "you", "your", "yours",
	"show", "find", "list", "get", "give", "tell", "display", "search", "please", "want",
	"need", "many", "much", "theres", "whats",
}
