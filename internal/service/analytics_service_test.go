package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/repository"
	"github.com/spec-kit/shopfloor-issues/internal/repository/memory"
	apperrors "github.com/spec-kit/shopfloor-issues/pkg/util/errorutil"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) set(t time.Time) { c.t = t }

// mapCache mirrors the Redis cache: entries are keyed by generation and
// Invalidate only advances the generation.
type mapCache struct {
	mu          sync.Mutex
	gen         int64
	entries     map[string]domain.Report
	sets        int
	invalidated int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]domain.Report{}}
}

func (c *mapCache) key(gen int64, reportType domain.ReportType, rng domain.DateRange) string {
	key := fmt.Sprintf("%d|%s", gen, reportType)
	for _, bound := range []*time.Time{rng.From, rng.To} {
		key += "|"
		if bound != nil {
			key += bound.Format(time.RFC3339Nano)
		}
	}
	return key
}

func (c *mapCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *mapCache) Get(_ context.Context, gen int64, reportType domain.ReportType, rng domain.DateRange) (*domain.Report, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report, ok := c.entries[c.key(gen, reportType, rng)]
	if !ok {
		return nil, false, nil
	}
	return &report, true, nil
}

func (c *mapCache) Set(_ context.Context, gen int64, report *domain.Report, rng domain.DateRange) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[c.key(gen, report.Type, rng)] = *report
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.gen++
	return nil
}

// afterIssueCountStore runs hook once, right after the first IssueCount query
// has read its result.
type afterIssueCountStore struct {
	repository.Store
	once sync.Once
	hook func()
}

func (s *afterIssueCountStore) Reports() repository.ReportRepository {
	return afterIssueCountReports{ReportRepository: s.Store.Reports(), store: s}
}

type afterIssueCountReports struct {
	repository.ReportRepository
	store *afterIssueCountStore
}

func (r afterIssueCountReports) IssueCount(ctx context.Context) (int, error) {
	total, err := r.ReportRepository.IssueCount(ctx)
	r.store.once.Do(r.store.hook)
	return total, err
}

func newTestAnalyticsService(store repository.Store, cache ReportCache) *AnalyticsService {
	deps := AnalyticsDependencies{Store: store, QueryTimeout: time.Second}
	if cache != nil {
		deps.Cache = cache
	}
	return NewAnalyticsService(deps)
}

func TestSearchRanksTitleAboveDescription(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithClock(clock.now))
	issues := newTestIssueService(store)

	a, err := issues.CreateIssue(ctx, newActor(), IssueCreateInput{Title: "Pump failure"})
	require.NoError(t, err)
	clock.set(clock.t.Add(time.Hour))
	b, err := issues.CreateIssue(ctx, newActor(), IssueCreateInput{Title: "Line stop", Description: "pump and leak near station"})
	require.NoError(t, err)
	_, err = issues.CreateIssue(ctx, newActor(), IssueCreateInput{Title: "Label printer jam"})
	require.NoError(t, err)

	svc := newTestAnalyticsService(store, nil)
	result, err := svc.Search(ctx, "Show me the pump leak")
	require.NoError(t, err)

	assert.Equal(t, []string{"pump", "leak"}, result.Keywords)
	require.Equal(t, 2, result.TotalResults)
	assert.Equal(t, a.Issue.ID, result.Results[0].Issue.ID)
	assert.Equal(t, 3, result.Results[0].Score)
	assert.Equal(t, b.Issue.ID, result.Results[1].Issue.ID)
	assert.Equal(t, 2, result.Results[1].Score)
}

func TestSearchEdgeCases(t *testing.T) {
	ctx := context.Background()

	_, err := newTestAnalyticsService(memory.NewStore(), nil).Search(ctx, "   ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	broken := newTestAnalyticsService(&failingStore{Store: memory.NewStore(), failSearch: true}, nil)

	result, err := broken.Search(ctx, "show me the")
	require.NoError(t, err)
	assert.Empty(t, result.Keywords)
	assert.Empty(t, result.Results)
	assert.Zero(t, result.TotalResults)

	_, err = broken.Search(ctx, "compressor noise")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInternal))
	assert.ErrorIs(t, err, errStoreDown)
}

func TestGenerateReportRejectsUnknownType(t *testing.T) {
	svc := newTestAnalyticsService(memory.NewStore(), nil)

	_, err := svc.GenerateReport(context.Background(), ReportRequest{ReportType: "weekly-digest"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Equal(t, domain.ReportTypes, apperrors.ToDomainError(err).Details["allowed"])
}

func TestCategoryBreakdownPercentagesSumToHundred(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	issues := newTestIssueService(store)
	categories := NewCategoryService(store.Categories())

	equipment, err := categories.Create(ctx, "Equipment", "")
	require.NoError(t, err)
	quality, err := categories.Create(ctx, "Quality", "")
	require.NoError(t, err)

	for i, categoryID := range []*string{&equipment.ID, &equipment.ID, &equipment.ID, &quality.ID, nil, nil} {
		_, err := issues.CreateIssue(ctx, newActor(), IssueCreateInput{Title: "issue", CategoryID: categoryID})
		require.NoError(t, err, "issue %d", i)
	}

	report, err := newTestAnalyticsService(store, nil).GenerateReport(ctx, ReportRequest{ReportType: "category-breakdown"})
	require.NoError(t, err)

	breakdown, ok := report.Data.(domain.CategoryBreakdown)
	require.True(t, ok)
	assert.Equal(t, 6, breakdown.TotalIssues)
	require.Len(t, breakdown.Categories, 3)
	assert.Equal(t, "Equipment", breakdown.Categories[0].CategoryName)
	assert.Equal(t, 50.0, breakdown.Categories[0].Percentage)

	sum := 0.0
	for _, c := range breakdown.Categories {
		sum += c.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.02)
	assert.Contains(t, report.Summary, "concentrated")
}

func TestEscalationAnalysisRate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	issues := newTestIssueService(store)

	var ids []string
	for i := 0; i < 5; i++ {
		details, err := issues.CreateIssue(ctx, newActor(), IssueCreateInput{Title: "issue"})
		require.NoError(t, err)
		ids = append(ids, details.Issue.ID)
	}
	for _, id := range ids[:2] {
		_, _, err := issues.Escalate(ctx, newActor(), id, EscalateInput{TargetLevel: 2, Reason: "help"})
		require.NoError(t, err)
	}

	report, err := newTestAnalyticsService(store, nil).GenerateReport(ctx, ReportRequest{ReportType: "escalation-analysis"})
	require.NoError(t, err)

	analysis, ok := report.Data.(domain.EscalationAnalysis)
	require.True(t, ok)
	assert.Equal(t, 2, analysis.TotalEscalations)
	assert.Equal(t, 5, analysis.TotalIssues)
	assert.Equal(t, 40.0, analysis.EscalationRate)
	assert.InDelta(t, float64(analysis.TotalEscalations)/float64(analysis.TotalIssues)*100, analysis.EscalationRate, 0.005)
	assert.Contains(t, report.Summary, "level 1 to level 2")
	assert.Contains(t, report.Summary, "high")
}

func TestReportFailurePropagates(t *testing.T) {
	svc := newTestAnalyticsService(&failingStore{Store: memory.NewStore(), failReports: true}, nil)

	_, err := svc.GenerateReport(context.Background(), ReportRequest{ReportType: "escalation-analysis"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInternal))
	assert.ErrorIs(t, err, errStoreDown)
}

func TestResolutionTimesDateRange(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithClock(clock.now))
	issues := newTestIssueService(store)

	first, err := issues.CreateIssue(ctx, newActor(), IssueCreateInput{Title: "first"})
	require.NoError(t, err)
	second, err := issues.CreateIssue(ctx, newActor(), IssueCreateInput{Title: "second"})
	require.NoError(t, err)

	clock.set(time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC))
	_, _, err = issues.Resolve(ctx, newActor(), first.Issue.ID, ResolveInput{Resolution: "fixed"})
	require.NoError(t, err)
	clock.set(time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC))
	_, _, err = issues.Resolve(ctx, newActor(), second.Issue.ID, ResolveInput{Resolution: "fixed"})
	require.NoError(t, err)

	svc := newTestAnalyticsService(store, nil)
	report, err := svc.GenerateReport(ctx, ReportRequest{ReportType: "resolution-times", FromDate: "2024-03-01", ToDate: "2024-03-01"})
	require.NoError(t, err)

	stats, ok := report.Data.(domain.ResolutionStats)
	require.True(t, ok)
	assert.Equal(t, 1, stats.TotalResolved)
	assert.Equal(t, 15.0, stats.AvgHours)
	assert.Contains(t, report.Summary, "acceptable")
	require.NotNil(t, report.ToDate)
	assert.Equal(t, 23, report.ToDate.Hour())

	report, err = svc.GenerateReport(ctx, ReportRequest{ReportType: "resolution-times"})
	require.NoError(t, err)
	stats = report.Data.(domain.ResolutionStats)
	assert.Equal(t, 2, stats.TotalResolved)
	assert.Equal(t, 16.0, stats.AvgHours)
}

func TestGenerateReportUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()

	svc := newTestAnalyticsService(memory.NewStore(), cache)
	first, err := svc.GenerateReport(ctx, ReportRequest{ReportType: "escalation-analysis"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Any store access would now fail, so a successful call proves the cache hit.
	cached := newTestAnalyticsService(&failingStore{Store: memory.NewStore(), failReports: true}, cache)
	second, err := cached.GenerateReport(ctx, ReportRequest{ReportType: "escalation-analysis"})
	require.NoError(t, err)
	assert.Equal(t, first.Summary, second.Summary)

	require.NoError(t, cached.InvalidateReports(ctx))
	assert.Equal(t, 1, cache.invalidated)
	_, err = cached.GenerateReport(ctx, ReportRequest{ReportType: "escalation-analysis"})
	assert.Error(t, err)
}

func TestGenerateReportDropsResultComputedAcrossInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	inner := memory.NewStore()
	issues := newTestIssueService(inner)

	store := &afterIssueCountStore{Store: inner}
	store.hook = func() {
		_, err := issues.CreateIssue(ctx, newActor(), IssueCreateInput{Title: "Conveyor belt slipping"})
		assert.NoError(t, err)
		assert.NoError(t, cache.Invalidate(ctx))
	}
	svc := newTestAnalyticsService(store, cache)

	stale, err := svc.GenerateReport(ctx, ReportRequest{ReportType: "escalation-analysis"})
	require.NoError(t, err)
	assert.Zero(t, stale.Data.(domain.EscalationAnalysis).TotalIssues)
	assert.Equal(t, 1, cache.invalidated)

	fresh, err := svc.GenerateReport(ctx, ReportRequest{ReportType: "escalation-analysis"})
	require.NoError(t, err)
	analysis, ok := fresh.Data.(domain.EscalationAnalysis)
	require.True(t, ok)
	assert.Equal(t, 1, analysis.TotalIssues)
	assert.NotEqual(t, stale.Summary, fresh.Summary)

	cached, err := svc.GenerateReport(ctx, ReportRequest{ReportType: "escalation-analysis"})
	require.NoError(t, err)
	assert.Equal(t, fresh.Summary, cached.Summary)
	assert.Equal(t, 2, cache.sets)
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
		wantTo  time.Time
	}{
		{name: "empty"},
		{name: "date only to covers day", to: "2024-03-05", wantTo: time.Date(2024, 3, 5, 23, 59, 59, 999999999, time.UTC)},
		{name: "timestamp kept", to: "2024-03-05T10:00:00Z", wantTo: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{name: "garbage", from: "yesterday", wantErr: true},
		{name: "inverted", from: "2024-03-06", to: "2024-03-05", wantErr: true},
		{name: "same day", from: "2024-03-05", to: "2024-03-05", wantTo: time.Date(2024, 3, 5, 23, 59, 59, 999999999, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ParseDateRange(tt.from, tt.to)
			if tt.wantErr {
				assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			if tt.wantTo.IsZero() {
				assert.Nil(t, rng.To)
				return
			}
			require.NotNil(t, rng.To)
			assert.True(t, tt.wantTo.Equal(*rng.To), "got %s", rng.To)
		})
	}
}
