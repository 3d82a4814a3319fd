package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// IssueFilter captures list parameters.
type IssueFilter struct {
	Statuses    []domain.IssueStatus
	Priorities  []domain.IssuePriority
	Levels      []int
	CategoryID  *string
	AreaID      *string
	Source      *domain.IssueSource
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]domain.Issue, int, error)
	// SearchCandidates returns issues whose title or description contains any keyword.
	SearchCandidates(ctx context.Context, keywords []string) ([]domain.Issue, error)
	Delete(ctx context.Context, id string) error
}

type issueRepository struct {
	db DBTX
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(db DBTX) IssueRepository {
	return &issueRepository{db: db}
}

const issueColumns = `id, issue_number, title, description, status, level, priority,
               category_id, area_id, source, created_by, created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, description, status, level, priority, category_id, area_id, source, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, issue_number, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Status,
		issue.Level,
		issue.Priority,
		issue.CategoryID,
		issue.AreaID,
		issue.Source,
		issue.CreatedBy,
	).Scan(&issue.ID, &issue.IssueNumber, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET title=$1, description=$2, status=$3, level=$4, priority=$5,
            category_id=$6, area_id=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Status,
		issue.Level,
		issue.Priority,
		issue.CategoryID,
		issue.AreaID,
		issue.ID,
	).Scan(&issue.UpdatedAt)
	return err
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	return scanIssue(r.db.QueryRow(ctx, query, id))
}

func (r *issueRepository) GetForUpdate(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1 FOR UPDATE`
	return scanIssue(r.db.QueryRow(ctx, query, id))
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, int, error) {
	where := newWhereBuilder()
	if len(filter.Statuses) > 0 {
		where.add("status = ANY(%s)", enumStrings(filter.Statuses))
	}
	if len(filter.Priorities) > 0 {
		where.add("priority = ANY(%s)", enumStrings(filter.Priorities))
	}
	if len(filter.Levels) > 0 {
		where.add("level = ANY(%s)", filter.Levels)
	}
	if filter.CategoryID != nil {
		where.add("category_id = %s", *filter.CategoryID)
	}
	if filter.AreaID != nil {
		where.add("area_id = %s", *filter.AreaID)
	}
	if filter.Source != nil {
		where.add("source = %s", string(*filter.Source))
	}
	where.addDateRange("created_at", domain.DateRange{From: filter.CreatedFrom, To: filter.CreatedTo})

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM issues WHERE `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY created_at DESC, issue_number DESC LIMIT %d OFFSET %d`,
		issueColumns, where.sql(), limit, offset)
	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	issues, err := scanIssues(rows)
	if err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (r *issueRepository) SearchCandidates(ctx context.Context, keywords []string) ([]domain.Issue, error) {
	if len(keywords) == 0 {
		return []domain.Issue{}, nil
	}
	patterns := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		patterns = append(patterns, "%"+kw+"%")
	}
	query := `SELECT ` + issueColumns + `
        FROM issues
        WHERE title ILIKE ANY($1) OR description ILIKE ANY($1)`
	rows, err := r.db.Query(ctx, query, patterns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	if err := row.Scan(
		&issue.ID,
		&issue.IssueNumber,
		&issue.Title,
		&issue.Description,
		&issue.Status,
		&issue.Level,
		&issue.Priority,
		&issue.CategoryID,
		&issue.AreaID,
		&issue.Source,
		&issue.CreatedBy,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	result := []domain.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
