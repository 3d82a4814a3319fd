package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/shopfloor-issues/internal/analytics"
	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/observability"
	"github.com/spec-kit/shopfloor-issues/internal/repository"
	apperrors "github.com/spec-kit/shopfloor-issues/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

// ReportCache stores generated reports between lifecycle changes. Entries are
// keyed by generation; Invalidate advances it.
type ReportCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, reportType domain.ReportType, rng domain.DateRange) (*domain.Report, bool, error)
	Set(ctx context.Context, gen int64, report *domain.Report, rng domain.DateRange) error
	Invalidate(ctx context.Context) error
}

// AnalyticsService answers keyword searches and builds narrative reports.
type AnalyticsService struct {
	store        repository.Store
	extractor    *analytics.KeywordExtractor
	scorer       *analytics.RelevanceScorer
	cache        ReportCache
	queryTimeout time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// AnalyticsDependencies bundles collaborators for the analytics service.
type AnalyticsDependencies struct {
	Store        repository.Store
	Stopwords    analytics.StopwordSet
	ResultLimit  int
	Cache        ReportCache
	QueryTimeout time.Duration
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// SearchResult is the ranked answer to a free-text question.
type SearchResult struct {
	Query        string
	Keywords     []string
	TotalResults int
	Results      []analytics.ScoredIssue
}

// ReportRequest carries the raw report parameters.
type ReportRequest struct {
	ReportType string
	FromDate   string
	ToDate     string
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	stopwords := deps.Stopwords
	if stopwords.Len() == 0 {
		stopwords = analytics.DefaultStopwords()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		store:        deps.Store,
		extractor:    analytics.NewKeywordExtractor(stopwords),
		scorer:       analytics.NewRelevanceScorer(deps.ResultLimit),
		cache:        deps.Cache,
		queryTimeout: deps.QueryTimeout,
		metrics:      deps.Metrics,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Search extracts keywords from question and ranks matching issues. A question
// made only of filler words yields no results without touching the store.
func (s *AnalyticsService) Search(ctx context.Context, question string) (*SearchResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.NewValidationError("question is required", map[string]any{"field": "question"})
	}

	result := &SearchResult{
		Query:    question,
		Keywords: s.extractor.Extract(question),
		Results:  []analytics.ScoredIssue{},
	}
	if len(result.Keywords) == 0 {
		return result, nil
	}

	pool, err := s.store.Issues().SearchCandidates(ctx, result.Keywords)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("search candidates: %w", err))
	}
	result.Results = s.scorer.Rank(result.Keywords, pool)
	result.TotalResults = len(result.Results)
	return result, nil
}

// GenerateReport validates the request, serves a cached copy when available and
// otherwise runs the aggregate queries under the report query timeout.
func (s *AnalyticsService) GenerateReport(ctx context.Context, req ReportRequest) (*domain.Report, error) {
	reportType := domain.ReportType(strings.TrimSpace(req.ReportType))
	if !reportType.Valid() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unknown report_type %q", req.ReportType),
			map[string]any{"allowed": domain.ReportTypes},
		)
	}
	rng, err := ParseDateRange(req.FromDate, req.ToDate)
	if err != nil {
		return nil, err
	}

	// The generation is pinned before any query runs; a write made after a
	// concurrent invalidation lands under the old generation and is never read.
	var (
		gen      int64
		useCache bool
	)
	if s.cache != nil {
		gen, err = s.cache.Generation(ctx)
		if err != nil {
			s.logger.Warn("report cache generation read failed", zap.String("report_type", string(reportType)), zap.Error(err))
		} else {
			useCache = true
		}
	}
	if useCache {
		cached, ok, err := s.cache.Get(ctx, gen, reportType, rng)
		if err != nil {
			s.logger.Warn("report cache read failed", zap.String("report_type", string(reportType)), zap.Error(err))
		}
		if ok {
			s.metrics.RecordReport(string(reportType), true)
			return cached, nil
		}
	}

	queryCtx := ctx
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	report := &domain.Report{
		Type:     reportType,
		FromDate: rng.From,
		ToDate:   rng.To,
	}
	reports := s.store.Reports()
	switch reportType {
	case domain.ReportResolutionTimes:
		stats, err := reports.ResolutionStats(queryCtx, rng)
		if err != nil {
			return nil, reportError(reportType, err)
		}
		report.Data, report.Summary = analytics.ResolutionTimesReport(stats)
	case domain.ReportCategoryBreakdown:
		counts, err := reports.CategoryCounts(queryCtx, rng)
		if err != nil {
			return nil, reportError(reportType, err)
		}
		report.Data, report.Summary = analytics.CategoryBreakdownReport(counts)
	case domain.ReportEscalationAnalysis:
		var (
			escalations int
			issues      int
			transitions []domain.TransitionCount
		)
		g, gctx := errgroup.WithContext(queryCtx)
		g.Go(func() error {
			var err error
			escalations, err = reports.EscalationCount(gctx, rng)
			return err
		})
		g.Go(func() error {
			var err error
			issues, err = reports.IssueCount(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			transitions, err = reports.TransitionCounts(gctx, rng)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, reportError(reportType, err)
		}
		report.Data, report.Summary = analytics.EscalationAnalysisReport(escalations, issues, transitions)
	}
	report.GeneratedAt = s.now()

	if useCache {
		if err := s.cache.Set(ctx, gen, report, rng); err != nil {
			s.logger.Warn("report cache write failed", zap.String("report_type", string(reportType)), zap.Error(err))
		}
	}
	s.metrics.RecordReport(string(reportType), false)
	s.logger.Debug("report generated", zap.String("report_type", string(reportType)))
	return report, nil
}

// InvalidateReports drops every cached report.
func (s *AnalyticsService) InvalidateReports(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

func reportError(reportType domain.ReportType, err error) error {
	return apperrors.NewInternalError(fmt.Errorf("generate %s report: %w", reportType, err))
}

// ParseDateRange parses optional inclusive bounds given as RFC 3339 timestamps or
// plain dates. A plain to date covers that whole day.
func ParseDateRange(from, to string) (domain.DateRange, error) {
	var rng domain.DateRange
	if from = strings.TrimSpace(from); from != "" {
		t, _, err := parseBound(from)
		if err != nil {
			return rng, apperrors.NewValidationError("invalid from_date", map[string]any{"from_date": from})
		}
		rng.From = &t
	}
	if to = strings.TrimSpace(to); to != "" {
		t, dateOnly, err := parseBound(to)
		if err != nil {
			return rng, apperrors.NewValidationError("invalid to_date", map[string]any{"to_date": to})
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		rng.To = &t
	}
	if rng.From != nil && rng.To != nil && rng.From.After(*rng.To) {
		return rng, apperrors.NewValidationError("from_date must not be after to_date", map[string]any{
			"from_date": from,
			"to_date":   to,
		})
	}
	return rng, nil
}

func parseBound(value string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}
