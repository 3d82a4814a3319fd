package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/repository"
	"github.com/spec-kit/shopfloor-issues/internal/repository/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errStoreDown = errors.New("store unavailable")

// failingStore injects write failures into an otherwise working store, including
// inside transactions.
type failingStore struct {
	repository.Store
	failEscalationInsert bool
	failSuggestionInsert bool
	failSuggestionDelete bool
	failSearch           bool
	failReports          bool
}

func (f *failingStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return f.Store.WithinTx(ctx, func(tx repository.Store) error {
		wrapped := *f
		wrapped.Store = tx
		return fn(&wrapped)
	})
}

func (f *failingStore) Issues() repository.IssueRepository {
	if f.failSearch {
		return failingIssues{f.Store.Issues()}
	}
	return f.Store.Issues()
}

func (f *failingStore) Escalations() repository.EscalationRepository {
	if f.failEscalationInsert {
		return failingEscalations{f.Store.Escalations()}
	}
	return f.Store.Escalations()
}

func (f *failingStore) Suggestions() repository.SuggestionRepository {
	if f.failSuggestionInsert || f.failSuggestionDelete {
		return failingSuggestions{f.Store.Suggestions(), f.failSuggestionInsert, f.failSuggestionDelete}
	}
	return f.Store.Suggestions()
}

func (f *failingStore) Reports() repository.ReportRepository {
	if f.failReports {
		return failingReports{f.Store.Reports()}
	}
	return f.Store.Reports()
}

type failingIssues struct{ repository.IssueRepository }

func (failingIssues) SearchCandidates(context.Context, []string) ([]domain.Issue, error) {
	return nil, errStoreDown
}

type failingEscalations struct{ repository.EscalationRepository }

func (failingEscalations) Create(context.Context, *domain.EscalationRecord) error {
	return errStoreDown
}

type failingSuggestions struct {
	repository.SuggestionRepository
	failInsert bool
	failDelete bool
}

func (f failingSuggestions) Create(ctx context.Context, s *domain.AiSuggestion) error {
	if f.failInsert {
		return errStoreDown
	}
	return f.SuggestionRepository.Create(ctx, s)
}

func (f failingSuggestions) DeleteByIssue(ctx context.Context, issueID string) (int64, error) {
	if f.failDelete {
		return 0, errStoreDown
	}
	return f.SuggestionRepository.DeleteByIssue(ctx, issueID)
}

type failingReports struct{ repository.ReportRepository }

func (failingReports) IssueCount(context.Context) (int, error) {
	return 0, errStoreDown
}

func newTestIssueService(store repository.Store) *IssueService {
	return NewIssueService(IssueDependencies{Store: store})
}

func newActor() string {
	return uuid.NewString()
}

func newMemoryStore(opts ...memory.Option) *memory.Store {
	return memory.NewStore(opts...)
}

func repositoryFilterAll() repository.IssueFilter {
	return repository.IssueFilter{Limit: 1000}
}
