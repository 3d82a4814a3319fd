package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/repository"
)

type issueRepo struct{ s *Store }

func (r issueRepo) Create(_ context.Context, issue *domain.Issue) error {
	defer r.s.lock()()
	d := r.s.data
	d.nextNumber++
	now := r.s.now()
	issue.ID = uuid.NewString()
	issue.IssueNumber = d.nextNumber
	issue.CreatedAt = now
	issue.UpdatedAt = now
	d.issues[issue.ID] = *issue
	return nil
}

func (r issueRepo) Update(_ context.Context, issue *domain.Issue) error {
	defer r.s.lock()()
	current, ok := r.s.data.issues[issue.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.IssueNumber = current.IssueNumber
	issue.CreatedAt = current.CreatedAt
	issue.CreatedBy = current.CreatedBy
	issue.Source = current.Source
	issue.UpdatedAt = r.s.now()
	r.s.data.issues[issue.ID] = *issue
	return nil
}

func (r issueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	defer r.s.lock()()
	issue, ok := r.s.data.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &issue, nil
}

func (r issueRepo) GetForUpdate(ctx context.Context, id string) (*domain.Issue, error) {
	return r.GetByID(ctx, id)
}

func (r issueRepo) List(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, int, error) {
	defer r.s.lock()()
	matched := []domain.Issue{}
	for _, issue := range r.s.data.issues {
		if matchesFilter(issue, filter) {
			matched = append(matched, issue)
		}
	}
	sortNewestFirst(matched)

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Issue{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r issueRepo) SearchCandidates(_ context.Context, keywords []string) ([]domain.Issue, error) {
	defer r.s.lock()()
	result := []domain.Issue{}
	for _, issue := range r.s.data.issues {
		title := strings.ToLower(issue.Title)
		description := strings.ToLower(issue.Description)
		for _, kw := range keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(title, kw) || strings.Contains(description, kw) {
				result = append(result, issue)
				break
			}
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (r issueRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.data.issues[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.data.issues, id)
	return nil
}

func matchesFilter(issue domain.Issue, f repository.IssueFilter) bool {
	if len(f.Statuses) > 0 && !contains(f.Statuses, issue.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, issue.Priority) {
		return false
	}
	if len(f.Levels) > 0 && !contains(f.Levels, issue.Level) {
		return false
	}
	if f.CategoryID != nil && (issue.CategoryID == nil || *issue.CategoryID != *f.CategoryID) {
		return false
	}
	if f.AreaID != nil && (issue.AreaID == nil || *issue.AreaID != *f.AreaID) {
		return false
	}
	if f.Source != nil && issue.Source != *f.Source {
		return false
	}
	return inRange(issue.CreatedAt, domain.DateRange{From: f.CreatedFrom, To: f.CreatedTo})
}

func sortNewestFirst(issues []domain.Issue) {
	sort.Slice(issues, func(i, j int) bool {
		if !issues[i].CreatedAt.Equal(issues[j].CreatedAt) {
			return issues[i].CreatedAt.After(issues[j].CreatedAt)
		}
		return issues[i].IssueNumber > issues[j].IssueNumber
	})
}

type escalationRepo struct{ s *Store }

func (r escalationRepo) Create(_ context.Context, record *domain.EscalationRecord) error {
	defer r.s.lock()()
	if _, ok := r.s.data.issues[record.IssueID]; !ok {
		return fmt.Errorf("escalation references unknown issue %s", record.IssueID)
	}
	record.ID = uuid.NewString()
	record.EscalatedAt = r.s.now()
	r.s.data.escalations = append(r.s.data.escalations, *record)
	return nil
}

func (r escalationRepo) ListByIssue(_ context.Context, issueID string) ([]domain.EscalationRecord, error) {
	defer r.s.lock()()
	result := []domain.EscalationRecord{}
	for _, record := range r.s.data.escalations {
		if record.IssueID == issueID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (r escalationRepo) DeleteByIssue(_ context.Context, issueID string) (int64, error) {
	defer r.s.lock()()
	kept := r.s.data.escalations[:0:0]
	var removed int64
	for _, record := range r.s.data.escalations {
		if record.IssueID == issueID {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	r.s.data.escalations = kept
	return removed, nil
}

type resolutionRepo struct{ s *Store }

func (r resolutionRepo) Create(_ context.Context, record *domain.ResolutionRecord) error {
	defer r.s.lock()()
	if _, ok := r.s.data.issues[record.IssueID]; !ok {
		return fmt.Errorf("resolution references unknown issue %s", record.IssueID)
	}
	if _, exists := r.s.data.resolutions[record.IssueID]; exists {
		return uniqueViolation("issue_resolutions_issue_id_key")
	}
	record.ID = uuid.NewString()
	record.ResolvedAt = r.s.now()
	r.s.data.resolutions[record.IssueID] = *record
	return nil
}

func (r resolutionRepo) GetByIssue(_ context.Context, issueID string) (*domain.ResolutionRecord, error) {
	defer r.s.lock()()
	record, ok := r.s.data.resolutions[issueID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &record, nil
}

func (r resolutionRepo) DeleteByIssue(_ context.Context, issueID string) (int64, error) {
	defer r.s.lock()()
	if _, ok := r.s.data.resolutions[issueID]; !ok {
		return 0, nil
	}
	delete(r.s.data.resolutions, issueID)
	return 1, nil
}

type suggestionRepo struct{ s *Store }

func (r suggestionRepo) Create(_ context.Context, suggestion *domain.AiSuggestion) error {
	defer r.s.lock()()
	if _, ok := r.s.data.issues[suggestion.IssueID]; !ok {
		return fmt.Errorf("suggestion references unknown issue %s", suggestion.IssueID)
	}
	if _, exists := r.s.data.suggestions[suggestion.IssueID]; exists {
		return uniqueViolation("ai_suggestions_issue_id_key")
	}
	suggestion.ID = uuid.NewString()
	suggestion.CreatedAt = r.s.now()
	r.s.data.suggestions[suggestion.IssueID] = *suggestion
	return nil
}

func (r suggestionRepo) GetByIssue(_ context.Context, issueID string) (*domain.AiSuggestion, error) {
	defer r.s.lock()()
	suggestion, ok := r.s.data.suggestions[issueID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &suggestion, nil
}

func (r suggestionRepo) DeleteByIssue(_ context.Context, issueID string) (int64, error) {
	defer r.s.lock()()
	if _, ok := r.s.data.suggestions[issueID]; !ok {
		return 0, nil
	}
	delete(r.s.data.suggestions, issueID)
	return 1, nil
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) Create(_ context.Context, category *domain.Category) error {
	defer r.s.lock()()
	for _, existing := range r.s.data.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return uniqueViolation("categories_name_key")
		}
	}
	category.ID = uuid.NewString()
	category.CreatedAt = r.s.now()
	r.s.data.categories[category.ID] = *category
	return nil
}

func (r categoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	defer r.s.lock()()
	category, ok := r.s.data.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &category, nil
}

func (r categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	defer r.s.lock()()
	result := make([]domain.Category, 0, len(r.s.data.categories))
	for _, c := range r.s.data.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	for _, existing := range r.s.data.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return uniqueViolation("users_email_lower_idx")
		}
	}
	now := r.s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.data.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	defer r.s.lock()()
	user, ok := r.s.data.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, user := range r.s.data.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// uniqueViolation mirrors the error Postgres returns for duplicate keys.
func uniqueViolation(constraint string) error {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		ConstraintName: constraint,
	}
}
