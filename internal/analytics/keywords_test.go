package analytics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	extractor := NewKeywordExtractor(DefaultStopwords())

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "drops stop-words and keeps order",
			query: "Show me the machine breakdown issues from today",
			want:  []string{"machine", "breakdown", "issues", "today"},
		},
		{
			name:  "strips punctuation",
			query: "Pump-leak?? on line#3, conveyor!",
			want:  []string{"pumpleak", "line3", "conveyor"},
		},
		{
			name:  "keeps duplicates",
			query: "leak leak LEAK",
			want:  []string{"leak", "leak", "leak"},
		},
		{
			name:  "drops tokens of two characters or fewer",
			query: "ab abc a 12 123",
			want:  []string{"abc", "123"},
		},
		{
			name:  "splits on unicode whitespace",
			query: "pump\u00a0leak\u2003conveyor\u3000belt",
			want:  []string{"pump", "leak", "conveyor", "belt"},
		},
		{
			name:  "collapses mixed whitespace",
			query: "  motor\t\toverheat\nalarm ",
			want:  []string{"motor", "overheat", "alarm"},
		},
		{
			name:  "non ascii letters are removed",
			query: "défaut qualité",
			want:  []string{"dfaut", "qualit"},
		},
		{name: "empty input", query: "", want: []string{}},
		{name: "only stop-words", query: "show me all of the list", want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractor.Extract(tc.query))
		})
	}
}

func TestExtractUsesInjectedStopwords(t *testing.T) {
	extractor := NewKeywordExtractor(NewStopwordSet([]string{"machine", " BREAKDOWN "}))
	assert.Equal(t, []string{"show", "the", "issues"}, extractor.Extract("show the machine breakdown issues"))
}

func TestDefaultStopwords(t *testing.T) {
	set := DefaultStopwords()
	assert.Greater(t, set.Len(), 100)
	for _, w := range []string{"show", "find", "list", "the", "from"} {
		assert.True(t, set.Contains(w), w)
	}
	for _, w := range []string{"machine", "issues", "today", "pump", "leak"} {
		assert.False(t, set.Contains(w), w)
	}
}

func TestLoadStopwords(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		set, err := LoadStopwords("")
		require.NoError(t, err)
		assert.Equal(t, DefaultStopwords().Len(), set.Len())
	})

	t.Run("reads yaml list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stopwords.yaml")
		require.NoError(t, os.WriteFile(path, []byte("stopwords:\n  - Pump\n  - leak\n"), 0o600))

		set, err := LoadStopwords(path)
		require.NoError(t, err)
		assert.Equal(t, 2, set.Len())
		assert.True(t, set.Contains("pump"))
	})

	t.Run("rejects empty list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stopwords.yaml")
		require.NoError(t, os.WriteFile(path, []byte("stopwords: []\n"), 0o600))
		_, err := LoadStopwords(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadStopwords(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
