package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/events"
	"github.com/spec-kit/shopfloor-issues/internal/observability"
	apperrors "github.com/spec-kit/shopfloor-issues/pkg/util/errorutil"
)

func createIssue(t *testing.T, svc *IssueService, title string) *domain.Issue {
	t.Helper()
	details, err := svc.CreateIssue(context.Background(), newActor(), IssueCreateInput{Title: title})
	require.NoError(t, err)
	return details.Issue
}

func TestCreateIssueDefaultsAndSuggestion(t *testing.T) {
	store := newMemoryStore()
	svc := newTestIssueService(store)

	details, err := svc.CreateIssue(context.Background(), newActor(), IssueCreateInput{Title: "  Machine breakdown on line 3 "})
	require.NoError(t, err)

	issue := details.Issue
	assert.Equal(t, "Machine breakdown on line 3", issue.Title)
	assert.Equal(t, domain.IssueStatusOpen, issue.Status)
	assert.Equal(t, 1, issue.Level)
	assert.Equal(t, domain.IssuePriorityMedium, issue.Priority)
	assert.Equal(t, domain.IssueSourceManual, issue.Source)

	require.NotNil(t, details.Suggestion)
	assert.Contains(t, details.Suggestion.Reason, "maintenance")
	assert.Equal(t, 2, details.Suggestion.SuggestedLevel)
	assert.Equal(t, domain.SuggestionConfidence, details.Suggestion.Confidence)

	stored, err := svc.GetIssue(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, details.Suggestion.ID, stored.Suggestion.ID)
}

func TestCreateIssueUsesCategoryName(t *testing.T) {
	store := newMemoryStore()
	svc := newTestIssueService(store)
	categories := NewCategoryService(store.Categories())

	safety, err := categories.Create(context.Background(), "Safety", "")
	require.NoError(t, err)

	details, err := svc.CreateIssue(context.Background(), newActor(), IssueCreateInput{
		Title:      "Guard rail loose",
		CategoryID: &safety.ID,
	})
	require.NoError(t, err)
	assert.Contains(t, details.Suggestion.Reason, "safety officer")
	assert.Equal(t, 3, details.Suggestion.SuggestedLevel)
}

func TestCreateIssueValidation(t *testing.T) {
	svc := newTestIssueService(newMemoryStore())
	unknown := uuid.NewString()
	malformed := "not-a-uuid"

	tests := []struct {
		name  string
		input IssueCreateInput
	}{
		{"empty title", IssueCreateInput{Title: "   "}},
		{"level too high", IssueCreateInput{Title: "x", Level: intPtr(5)}},
		{"negative level", IssueCreateInput{Title: "x", Level: intPtr(-1)}},
		{"explicit zero level", IssueCreateInput{Title: "x", Level: intPtr(0)}},
		{"bad priority", IssueCreateInput{Title: "x", Priority: "URGENT"}},
		{"bad source", IssueCreateInput{Title: "x", Source: "email"}},
		{"unknown category", IssueCreateInput{Title: "x", CategoryID: &unknown}},
		{"malformed category", IssueCreateInput{Title: "x", CategoryID: &malformed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateIssue(context.Background(), newActor(), tt.input)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}

	page, err := svc.ListIssues(context.Background(), IssueListFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestCreateIssueRollsBackWhenSuggestionFails(t *testing.T) {
	base := newMemoryStore()
	svc := newTestIssueService(&failingStore{Store: base, failSuggestionInsert: true})

	_, err := svc.CreateIssue(context.Background(), newActor(), IssueCreateInput{Title: "Conveyor stopped"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInternal))
	assert.ErrorIs(t, err, errStoreDown)

	_, total, err := base.Issues().List(context.Background(), repositoryFilterAll())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEscalateLevelRules(t *testing.T) {
	ctx := context.Background()
	svc := newTestIssueService(newMemoryStore())
	issue := createIssue(t, svc, "Pump leaking")

	for _, target := range []int{0, 1} {
		_, _, err := svc.Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: target, Reason: "need help"})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "target %d: %v", target, err)
	}

	_, _, err := svc.Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: 2, Reason: "  "})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	updated, record, err := svc.Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: 3, Reason: "line down"})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Level)
	assert.Equal(t, domain.IssueStatusEscalated, updated.Status)
	assert.Equal(t, 1, record.FromLevel)
	assert.Equal(t, 3, record.ToLevel)

	_, _, err = svc.Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: 3, Reason: "again"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	history, err := svc.History(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, history.Escalations, 1)
	assert.Equal(t, "line down", history.Escalations[0].Reason)
	assert.Nil(t, history.Resolution)
}

func TestEscalateNotFound(t *testing.T) {
	svc := newTestIssueService(newMemoryStore())
	for _, id := range []string{uuid.NewString(), "42"} {
		_, _, err := svc.Escalate(context.Background(), newActor(), id, EscalateInput{TargetLevel: 2, Reason: "x"})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "id %s: %v", id, err)
	}
}

func TestResolveIsTerminal(t *testing.T) {
	ctx := context.Background()
	svc := newTestIssueService(newMemoryStore())
	issue := createIssue(t, svc, "Scrap rate up")

	_, _, err := svc.Resolve(ctx, newActor(), issue.ID, ResolveInput{Resolution: ""})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	savings := decimal.RequireFromString("1250.50")
	downtime := 3.5
	resolved, record, err := svc.Resolve(ctx, newActor(), issue.ID, ResolveInput{
		Resolution:        "Recalibrated sensor",
		DowntimePrevented: &downtime,
		CostSavings:       &savings,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusResolved, resolved.Status)
	assert.Equal(t, 1, resolved.Level)
	assert.True(t, savings.Equal(*record.CostSavings))

	_, _, err = svc.Resolve(ctx, newActor(), issue.ID, ResolveInput{Resolution: "again"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, _, err = svc.Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: 2, Reason: "reopen"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	history, err := svc.History(ctx, issue.ID)
	require.NoError(t, err)
	require.NotNil(t, history.Resolution)
	assert.Equal(t, "Recalibrated sensor", history.Resolution.Resolution)
	assert.Empty(t, history.Escalations)
}

func TestResolveRejectsNegativeImpact(t *testing.T) {
	svc := newTestIssueService(newMemoryStore())
	issue := createIssue(t, svc, "Slow changeover")

	negativeHours := -1.0
	negativeDefects := -2
	negativeSavings := decimal.NewFromInt(-5)
	for _, input := range []ResolveInput{
		{Resolution: "x", DowntimePrevented: &negativeHours},
		{Resolution: "x", DefectsReduced: &negativeDefects},
		{Resolution: "x", CostSavings: &negativeSavings},
	} {
		_, _, err := svc.Resolve(context.Background(), newActor(), issue.ID, input)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	}
}

func TestEscalateRollsBackOnFailedRecordInsert(t *testing.T) {
	ctx := context.Background()
	base := newMemoryStore()
	issue := createIssue(t, newTestIssueService(base), "Hydraulic press fault")

	svc := newTestIssueService(&failingStore{Store: base, failEscalationInsert: true})
	_, _, err := svc.Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: 2, Reason: "needs maintenance"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInternal))

	stored, err := base.Issues().GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Level)
	assert.Equal(t, domain.IssueStatusOpen, stored.Status)
}

func TestConcurrentEscalationsSerialize(t *testing.T) {
	ctx := context.Background()
	svc := newTestIssueService(newMemoryStore())
	issue := createIssue(t, svc, "Robot cell fault")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: 3, Reason: "parallel"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperrors.IsCode(err, apperrors.CodeValidation) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	history, err := svc.History(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, history.Escalations, 1)
	assert.Equal(t, 1, history.Escalations[0].FromLevel)
}

func TestDeleteIssueCascades(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := newTestIssueService(store)
	issue := createIssue(t, svc, "Material shortage at station 4")
	other := createIssue(t, svc, "Unrelated")

	_, _, err := svc.Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: 2, Reason: "supplier late"})
	require.NoError(t, err)
	_, _, err = svc.Resolve(ctx, newActor(), issue.ID, ResolveInput{Resolution: "expedited delivery"})
	require.NoError(t, err)
	_, _, err = svc.Escalate(ctx, newActor(), other.ID, EscalateInput{TargetLevel: 2, Reason: "keep"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteIssue(ctx, newActor(), issue.ID))

	_, err = svc.GetIssue(ctx, issue.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = svc.History(ctx, issue.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	escalations, err := store.Escalations().ListByIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, escalations)
	_, err = store.Resolutions().GetByIssue(ctx, issue.ID)
	assert.Error(t, err)
	_, err = store.Suggestions().GetByIssue(ctx, issue.ID)
	assert.Error(t, err)

	kept, err := store.Escalations().ListByIssue(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	err = svc.DeleteIssue(ctx, newActor(), issue.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestDeleteIssueRollsBackOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	base := newMemoryStore()
	issue := createIssue(t, newTestIssueService(base), "Quality reject spike")
	_, _, err := newTestIssueService(base).Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: 2, Reason: "x"})
	require.NoError(t, err)

	svc := newTestIssueService(&failingStore{Store: base, failSuggestionDelete: true})
	err = svc.DeleteIssue(ctx, newActor(), issue.ID)
	require.Error(t, err)

	escalations, err := base.Escalations().ListByIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, escalations, 1)
	_, err = base.Issues().GetByID(ctx, issue.ID)
	assert.NoError(t, err)
}

func TestListIssuesPagination(t *testing.T) {
	ctx := context.Background()
	svc := newTestIssueService(newMemoryStore())
	for i := 0; i < 5; i++ {
		createIssue(t, svc, strings.Repeat("x", i+1))
	}

	page, err := svc.ListIssues(ctx, IssueListFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Issues, 2)
	assert.Equal(t, int64(3), page.Issues[0].IssueNumber)

	page, err = svc.ListIssues(ctx, IssueListFilter{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.PageSize)
}

func TestLifecycleEventsPublished(t *testing.T) {
	ctx := context.Background()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	var seen []events.EventType
	for _, eventType := range events.LifecycleEvents {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			seen = append(seen, e.Type)
			return nil
		})
	}
	svc := NewIssueService(IssueDependencies{
		Store:      newMemoryStore(),
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
	})

	issue := createIssue(t, svc, "Forklift near miss")
	_, _, err := svc.Escalate(ctx, newActor(), issue.ID, EscalateInput{TargetLevel: 3, Reason: "safety"})
	require.NoError(t, err)
	_, _, err = svc.Resolve(ctx, newActor(), issue.ID, ResolveInput{Resolution: "Marked walkway"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteIssue(ctx, newActor(), issue.ID))

	assert.Equal(t, events.LifecycleEvents, seen)
}

func intPtr(v int) *int {
	return &v
}
