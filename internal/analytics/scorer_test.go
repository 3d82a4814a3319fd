package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

func issueAt(number int64, title, description string, created time.Time) domain.Issue {
	return domain.Issue{
		ID:          fmt.Sprintf("issue-%d", number),
		IssueNumber: number,
		Title:       title,
		Description: description,
		CreatedAt:   created,
	}
}

func TestScoreWeighsTitleOverDescription(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	a := issueAt(1, "Pump noisy at station 4", "operator reported vibration", base)
	b := issueAt(2, "Station 7 stopped", "Coolant PUMP shows a leak at the seal", base.Add(time.Hour))
	keywords := []string{"pump", "leak"}

	assert.Equal(t, 3, Score(keywords, a))
	assert.Equal(t, 2, Score(keywords, b))

	ranked := NewRelevanceScorer(DefaultResultLimit).Rank(keywords, []domain.Issue{b, a})
	require.Len(t, ranked, 2)
	assert.Equal(t, a.ID, ranked[0].Issue.ID)
	assert.Equal(t, b.ID, ranked[1].Issue.ID)
}

func TestScoreSumsEveryMatchingKeyword(t *testing.T) {
	issue := issueAt(1, "Pump leak", "pump leak near press", time.Now())
	assert.Equal(t, 8, Score([]string{"pump", "leak"}, issue))
	assert.Equal(t, 8, Score([]string{"PUMP", "Leak"}, issue), "matching is case-insensitive")
	assert.Equal(t, 4, Score([]string{"ump"}, issue), "matching is substring containment")
}

func TestRankExcludesNonMatchesAndBreaksTiesByRecency(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	older := issueAt(1, "Conveyor jam", "", base)
	newer := issueAt(2, "Conveyor belt torn", "", base.Add(2*time.Hour))
	sameTimeHigherNumber := issueAt(3, "Conveyor motor", "", base.Add(2*time.Hour))
	unrelated := issueAt(4, "Paint booth filter", "dusty", base.Add(3*time.Hour))

	ranked := NewRelevanceScorer(DefaultResultLimit).Rank([]string{"conveyor"}, []domain.Issue{older, unrelated, newer, sameTimeHigherNumber})
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"issue-3", "issue-2", "issue-1"}, []string{ranked[0].Issue.ID, ranked[1].Issue.ID, ranked[2].Issue.ID})
	for _, r := range ranked {
		assert.Equal(t, 3, r.Score)
	}
}

func TestRankCapsResults(t *testing.T) {
	base := time.Now()
	pool := make([]domain.Issue, 0, 30)
	for i := 0; i < 30; i++ {
		pool = append(pool, issueAt(int64(i), "Valve stuck", "", base.Add(time.Duration(i)*time.Minute)))
	}

	ranked := NewRelevanceScorer(0).Rank([]string{"valve"}, pool)
	assert.Len(t, ranked, DefaultResultLimit)
	assert.Equal(t, int64(29), ranked[0].Issue.IssueNumber)

	assert.Len(t, NewRelevanceScorer(5).Rank([]string{"valve"}, pool), 5)
}

func TestRankWithoutKeywordsMatchesNothing(t *testing.T) {
	pool := []domain.Issue{issueAt(1, "anything", "at all", time.Now())}
	assert.Empty(t, NewRelevanceScorer(DefaultResultLimit).Rank(nil, pool))
}
