package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/shopfloor-issues/internal/analytics"
	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/events"
	"github.com/spec-kit/shopfloor-issues/internal/observability"
	"github.com/spec-kit/shopfloor-issues/internal/repository"
	apperrors "github.com/spec-kit/shopfloor-issues/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// IssueService coordinates the issue lifecycle.
type IssueService struct {
	store      repository.Store
	classifier *analytics.SuggestionClassifier
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	Store      repository.Store
	Classifier *analytics.SuggestionClassifier
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// IssueCreateInput describes issue creation payload.
type IssueCreateInput struct {
	Title       string
	Description string
	CategoryID  *string
	AreaID      *string
	Priority    domain.IssuePriority
	// Level defaults to 1 when nil; an explicit value must be a valid level.
	Level       *int
	Source      domain.IssueSource
}

// EscalateInput describes an escalation request.
type EscalateInput struct {
	TargetLevel int
	Reason      string
}

// ResolveInput describes a resolution request.
type ResolveInput struct {
	Resolution        string
	DowntimePrevented *float64
	DefectsReduced    *int
	CostSavings       *decimal.Decimal
}

// IssueListFilter describes list filters and pagination.
type IssueListFilter struct {
	Statuses    []domain.IssueStatus
	Priorities  []domain.IssuePriority
	Levels      []int
	CategoryID  *string
	AreaID      *string
	Source      *domain.IssueSource
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// IssueDetails is an issue with the suggestion generated at creation.
type IssueDetails struct {
	Issue      *domain.Issue
	Suggestion *domain.AiSuggestion
}

// IssuePage is one page of a filtered listing.
type IssuePage struct {
	Issues   []domain.Issue
	Page     int
	PageSize int
	Total    int
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	classifier := deps.Classifier
	if classifier == nil {
		classifier = analytics.NewSuggestionClassifier(analytics.DefaultSuggestionRules)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		store:      deps.Store,
		classifier: classifier,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateIssue opens a new issue and stores its suggestion in the same transaction.
func (s *IssueService) CreateIssue(ctx context.Context, actorID string, input IssueCreateInput) (*IssueDetails, error) {
	issue, err := newIssueFromInput(actorID, input)
	if err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if _, err := uuid.Parse(*input.CategoryID); err != nil {
			return nil, apperrors.NewValidationError("unknown category", map[string]any{"category_id": *input.CategoryID})
		}
	}

	var suggestion *domain.AiSuggestion
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		var categoryName *string
		if issue.CategoryID != nil {
			category, err := tx.Categories().GetByID(ctx, *issue.CategoryID)
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewValidationError("unknown category", map[string]any{"category_id": *issue.CategoryID})
			}
			if err != nil {
				return fmt.Errorf("load category: %w", err)
			}
			categoryName = &category.Name
		}

		if err := tx.Issues().Create(ctx, issue); err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}

		result := s.classifier.Classify(issue.Title, issue.Description, categoryName, issue.Level)
		suggestion = &domain.AiSuggestion{
			IssueID:        issue.ID,
			SuggestedLevel: result.SuggestedLevel,
			Reason:         result.Reason,
			Confidence:     result.Confidence,
		}
		if err := tx.Suggestions().Create(ctx, suggestion); err != nil {
			return fmt.Errorf("insert suggestion: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, txError("create issue", err)
	}

	s.metrics.RecordTransition("created")
	s.logger.Info("issue created",
		zap.String("issue_id", issue.ID),
		zap.Int64("issue_number", issue.IssueNumber),
		zap.Int("level", issue.Level),
		zap.Int("suggested_level", suggestion.SuggestedLevel),
	)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		ActorID: actorID,
		Payload: events.IssueCreatedPayload{
			IssueNumber:    issue.IssueNumber,
			Title:          issue.Title,
			Level:          issue.Level,
			Priority:       issue.Priority,
			SuggestedLevel: suggestion.SuggestedLevel,
		},
	})
	return &IssueDetails{Issue: issue, Suggestion: suggestion}, nil
}

func newIssueFromInput(actorID string, input IssueCreateInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}

	level := domain.MinLevel
	if input.Level != nil {
		level = *input.Level
	}
	if !domain.ValidLevel(level) {
		return nil, apperrors.NewValidationError("level must be between 1 and 4", map[string]any{"level": level})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.IssuePriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": string(input.Priority)})
	}

	source := input.Source
	if source == "" {
		source = domain.IssueSourceManual
	}
	if !source.Valid() {
		return nil, apperrors.NewValidationError("invalid source", map[string]any{"source": string(input.Source)})
	}

	return &domain.Issue{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.IssueStatusOpen,
		Level:       level,
		Priority:    priority,
		CategoryID:  input.CategoryID,
		AreaID:      input.AreaID,
		Source:      source,
		CreatedBy:   actorID,
	}, nil
}

// GetIssue returns the issue and its suggestion.
func (s *IssueService) GetIssue(ctx context.Context, issueID string) (*IssueDetails, error) {
	if !validID(issueID) {
		return nil, issueNotFound(issueID)
	}
	issue, err := s.store.Issues().GetByID(ctx, issueID)
	if err != nil {
		return nil, lookupError("load issue", issueID, err)
	}
	suggestion, err := s.store.Suggestions().GetByIssue(ctx, issueID)
	if errors.Is(err, pgx.ErrNoRows) {
		suggestion, err = nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("load suggestion: %w", err))
	}
	return &IssueDetails{Issue: issue, Suggestion: suggestion}, nil
}

// ListIssues returns a filtered page, newest first.
func (s *IssueService) ListIssues(ctx context.Context, filter IssueListFilter) (*IssuePage, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if filter.CategoryID != nil && !validID(*filter.CategoryID) {
		return &IssuePage{Issues: []domain.Issue{}, Page: page, PageSize: pageSize}, nil
	}

	issues, total, err := s.store.Issues().List(ctx, repository.IssueFilter{
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Levels:      filter.Levels,
		CategoryID:  filter.CategoryID,
		AreaID:      filter.AreaID,
		Source:      filter.Source,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list issues: %w", err))
	}
	return &IssuePage{Issues: issues, Page: page, PageSize: pageSize, Total: total}, nil
}

// Escalate raises the issue to a strictly higher level and appends an escalation
// record. The issue row stays locked until the record is written.
func (s *IssueService) Escalate(ctx context.Context, actorID, issueID string, input EscalateInput) (*domain.Issue, *domain.EscalationRecord, error) {
	if !validID(issueID) {
		return nil, nil, issueNotFound(issueID)
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, nil, apperrors.NewValidationError("reason is required", map[string]any{"field": "reason"})
	}
	if !domain.ValidLevel(input.TargetLevel) {
		return nil, nil, apperrors.NewValidationError("target_level must be between 1 and 4", map[string]any{"target_level": input.TargetLevel})
	}

	var (
		issue  *domain.Issue
		record *domain.EscalationRecord
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Issues().GetForUpdate(ctx, issueID)
		if err != nil {
			return lookupError("lock issue", issueID, err)
		}
		if !domain.CanTransition(current.Status, domain.IssueStatusEscalated) {
			return apperrors.NewConflict("issue is already resolved", map[string]any{"status": string(current.Status)})
		}
		if input.TargetLevel <= current.Level {
			return apperrors.NewValidationError("target_level must be greater than the current level", map[string]any{
				"current_level": current.Level,
				"target_level":  input.TargetLevel,
			})
		}

		fromLevel := current.Level
		current.Level = input.TargetLevel
		current.Status = domain.IssueStatusEscalated
		if err := tx.Issues().Update(ctx, current); err != nil {
			return fmt.Errorf("update issue: %w", err)
		}

		record = &domain.EscalationRecord{
			IssueID:     current.ID,
			FromLevel:   fromLevel,
			ToLevel:     input.TargetLevel,
			Reason:      reason,
			EscalatedBy: actorID,
		}
		if err := tx.Escalations().Create(ctx, record); err != nil {
			return fmt.Errorf("insert escalation: %w", err)
		}
		issue = current
		return nil
	})
	if err != nil {
		return nil, nil, txError("escalate issue", err)
	}

	s.metrics.RecordTransition("escalated")
	s.logger.Info("issue escalated",
		zap.String("issue_id", issue.ID),
		zap.Int("from_level", record.FromLevel),
		zap.Int("to_level", record.ToLevel),
	)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueEscalated,
		IssueID: issue.ID,
		ActorID: actorID,
		Payload: events.IssueEscalatedPayload{
			FromLevel: record.FromLevel,
			ToLevel:   record.ToLevel,
			Reason:    record.Reason,
		},
	})
	return issue, record, nil
}

// Resolve closes the issue with a single resolution record.
func (s *IssueService) Resolve(ctx context.Context, actorID, issueID string, input ResolveInput) (*domain.Issue, *domain.ResolutionRecord, error) {
	if !validID(issueID) {
		return nil, nil, issueNotFound(issueID)
	}
	text := strings.TrimSpace(input.Resolution)
	if text == "" {
		return nil, nil, apperrors.NewValidationError("resolution is required", map[string]any{"field": "resolution"})
	}
	if err := validateImpact(input); err != nil {
		return nil, nil, err
	}

	var (
		issue  *domain.Issue
		record *domain.ResolutionRecord
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Issues().GetForUpdate(ctx, issueID)
		if err != nil {
			return lookupError("lock issue", issueID, err)
		}
		if !domain.CanTransition(current.Status, domain.IssueStatusResolved) {
			return apperrors.NewConflict("issue is already resolved", map[string]any{"status": string(current.Status)})
		}

		current.Status = domain.IssueStatusResolved
		if err := tx.Issues().Update(ctx, current); err != nil {
			return fmt.Errorf("update issue: %w", err)
		}

		record = &domain.ResolutionRecord{
			IssueID:           current.ID,
			Resolution:        text,
			ResolvedBy:        actorID,
			DowntimePrevented: input.DowntimePrevented,
			DefectsReduced:    input.DefectsReduced,
			CostSavings:       input.CostSavings,
		}
		if err := tx.Resolutions().Create(ctx, record); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.NewConflict("issue is already resolved", nil)
			}
			return fmt.Errorf("insert resolution: %w", err)
		}
		issue = current
		return nil
	})
	if err != nil {
		return nil, nil, txError("resolve issue", err)
	}

	s.metrics.RecordTransition("resolved")
	s.logger.Info("issue resolved", zap.String("issue_id", issue.ID), zap.Int("level", issue.Level))
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueResolved,
		IssueID: issue.ID,
		ActorID: actorID,
		Payload: events.IssueResolvedPayload{Level: issue.Level, Resolution: record.Resolution},
	})
	return issue, record, nil
}

func validateImpact(input ResolveInput) error {
	if input.DowntimePrevented != nil && *input.DowntimePrevented < 0 {
		return apperrors.NewValidationError("downtime_prevented must not be negative", map[string]any{"downtime_prevented": *input.DowntimePrevented})
	}
	if input.DefectsReduced != nil && *input.DefectsReduced < 0 {
		return apperrors.NewValidationError("defects_reduced must not be negative", map[string]any{"defects_reduced": *input.DefectsReduced})
	}
	if input.CostSavings != nil && input.CostSavings.IsNegative() {
		return apperrors.NewValidationError("cost_savings must not be negative", map[string]any{"cost_savings": input.CostSavings.String()})
	}
	return nil
}

// DeleteIssue removes escalations, resolution, suggestion and then the issue,
// all in one transaction.
func (s *IssueService) DeleteIssue(ctx context.Context, actorID, issueID string) error {
	if !validID(issueID) {
		return issueNotFound(issueID)
	}

	var (
		issueNumber int64
		removed     int64
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		issue, err := tx.Issues().GetForUpdate(ctx, issueID)
		if err != nil {
			return lookupError("lock issue", issueID, err)
		}
		issueNumber = issue.IssueNumber

		escalations, err := tx.Escalations().DeleteByIssue(ctx, issueID)
		if err != nil {
			return fmt.Errorf("delete escalations: %w", err)
		}
		resolutions, err := tx.Resolutions().DeleteByIssue(ctx, issueID)
		if err != nil {
			return fmt.Errorf("delete resolution: %w", err)
		}
		suggestions, err := tx.Suggestions().DeleteByIssue(ctx, issueID)
		if err != nil {
			return fmt.Errorf("delete suggestion: %w", err)
		}
		if err := tx.Issues().Delete(ctx, issueID); err != nil {
			return fmt.Errorf("delete issue: %w", err)
		}
		removed = escalations + resolutions + suggestions
		return nil
	})
	if err != nil {
		return txError("delete issue", err)
	}

	s.metrics.RecordTransition("deleted")
	s.logger.Info("issue deleted",
		zap.String("issue_id", issueID),
		zap.String("actor_id", actorID),
		zap.Int64("child_records", removed),
	)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueDeleted,
		IssueID: issueID,
		ActorID: actorID,
		Payload: events.IssueDeletedPayload{IssueNumber: issueNumber},
	})
	return nil
}

// History returns the escalation trail and resolution of an issue.
func (s *IssueService) History(ctx context.Context, issueID string) (*domain.IssueHistory, error) {
	if !validID(issueID) {
		return nil, issueNotFound(issueID)
	}
	if _, err := s.store.Issues().GetByID(ctx, issueID); err != nil {
		return nil, lookupError("load issue", issueID, err)
	}

	escalations, err := s.store.Escalations().ListByIssue(ctx, issueID)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list escalations: %w", err))
	}
	resolution, err := s.store.Resolutions().GetByIssue(ctx, issueID)
	if errors.Is(err, pgx.ErrNoRows) {
		resolution, err = nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("load resolution: %w", err))
	}
	return &domain.IssueHistory{Escalations: escalations, Resolution: resolution}, nil
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	// Handler failures are logged by the dispatcher; the change is already committed.
	_ = s.dispatcher.Publish(ctx, event)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func issueNotFound(id string) error {
	return apperrors.NewNotFound("issue", map[string]any{"id": id})
}

// lookupError maps a missing row to NotFound and wraps anything else.
func lookupError(op, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return issueNotFound(id)
	}
	return apperrors.NewInternalError(fmt.Errorf("%s: %w", op, err))
}

// txError passes domain errors through and turns any other transaction failure into
// an internal error that keeps the cause for logging.
func txError(op string, err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return apperrors.NewInternalError(fmt.Errorf("%s: %w", op, err))
}
