package analytics

import (
	"sort"
	"strings"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

const (
	titleWeight       = 3
	descriptionWeight = 1

	// DefaultResultLimit caps ranked search results.
	DefaultResultLimit = 20
)

// ScoredIssue pairs an issue with its relevance score.
type ScoredIssue struct {
	Issue domain.Issue
	Score int
}

// RelevanceScorer ranks issues against extracted keywords.
type RelevanceScorer struct {
	limit int
}

// NewRelevanceScorer returns a scorer keeping at most limit results.
func NewRelevanceScorer(limit int) *RelevanceScorer {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	return &RelevanceScorer{limit: limit}
}

// Score sums, per keyword, 3 for a case-insensitive substring hit in the title and 1
// for a hit in the description.
func Score(keywords []string, issue domain.Issue) int {
	title := strings.ToLower(issue.Title)
	description := strings.ToLower(issue.Description)
	score := 0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(title, kw) {
			score += titleWeight
		}
		if strings.Contains(description, kw) {
			score += descriptionWeight
		}
	}
	return score
}

// Rank scores the pool, drops issues matching no keyword, and orders by score desc,
// then created_at desc, then issue number desc.
func (s *RelevanceScorer) Rank(keywords []string, pool []domain.Issue) []ScoredIssue {
	if len(keywords) == 0 {
		return []ScoredIssue{}
	}
	ranked := make([]ScoredIssue, 0, len(pool))
	for _, issue := range pool {
		if score := Score(keywords, issue); score > 0 {
			ranked = append(ranked, ScoredIssue{Issue: issue, Score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Issue.CreatedAt.Equal(b.Issue.CreatedAt) {
			return a.Issue.CreatedAt.After(b.Issue.CreatedAt)
		}
		return a.Issue.IssueNumber > b.Issue.IssueNumber
	})
	if len(ranked) > s.limit {
		ranked = ranked[:s.limit]
	}
	return ranked
}
