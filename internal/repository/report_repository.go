package repository

import (
	"context"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// ReportRepository runs the aggregate queries behind analytics reports.
type ReportRepository interface {
	ResolutionStats(ctx context.Context, rng domain.DateRange) (domain.ResolutionStats, error)
	CategoryCounts(ctx context.Context, rng domain.DateRange) ([]domain.CategoryCount, error)
	EscalationCount(ctx context.Context, rng domain.DateRange) (int, error)
	IssueCount(ctx context.Context) (int, error)
	TransitionCounts(ctx context.Context, rng domain.DateRange) ([]domain.TransitionCount, error)
}

type reportRepository struct {
	db DBTX
}

// NewReportRepository builds repository.
func NewReportRepository(db DBTX) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) ResolutionStats(ctx context.Context, rng domain.DateRange) (domain.ResolutionStats, error) {
	where := newWhereBuilder()
	where.addDateRange("r.resolved_at", rng)
	query := `
        SELECT COUNT(*),
               COALESCE(AVG(EXTRACT(EPOCH FROM (r.resolved_at - i.created_at)) / 3600), 0)::float8,
               COALESCE(MIN(EXTRACT(EPOCH FROM (r.resolved_at - i.created_at)) / 3600), 0)::float8,
               COALESCE(MAX(EXTRACT(EPOCH FROM (r.resolved_at - i.created_at)) / 3600), 0)::float8
        FROM issue_resolutions r
        JOIN issues i ON i.id = r.issue_id
        WHERE ` + where.sql()
	var stats domain.ResolutionStats
	err := r.db.QueryRow(ctx, query, where.args...).Scan(
		&stats.TotalResolved,
		&stats.AvgHours,
		&stats.MinHours,
		&stats.MaxHours,
	)
	return stats, err
}

func (r *reportRepository) CategoryCounts(ctx context.Context, rng domain.DateRange) ([]domain.CategoryCount, error) {
	where := newWhereBuilder()
	where.addDateRange("i.created_at", rng)
	query := `
        SELECT c.id, COALESCE(c.name, 'Uncategorized'), COUNT(i.id)
        FROM issues i
        LEFT JOIN categories c ON c.id = i.category_id
        WHERE ` + where.sql() + `
        GROUP BY c.id, c.name
        ORDER BY COUNT(i.id) DESC`
	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.CategoryCount{}
	for rows.Next() {
		var count domain.CategoryCount
		if err := rows.Scan(&count.CategoryID, &count.CategoryName, &count.Count); err != nil {
			return nil, err
		}
		result = append(result, count)
	}
	return result, rows.Err()
}

func (r *reportRepository) EscalationCount(ctx context.Context, rng domain.DateRange) (int, error) {
	where := newWhereBuilder()
	where.addDateRange("escalated_at", rng)
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM issue_escalations WHERE `+where.sql(), where.args...).Scan(&total)
	return total, err
}

func (r *reportRepository) IssueCount(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM issues`).Scan(&total)
	return total, err
}

func (r *reportRepository) TransitionCounts(ctx context.Context, rng domain.DateRange) ([]domain.TransitionCount, error) {
	where := newWhereBuilder()
	where.addDateRange("escalated_at", rng)
	query := `
        SELECT from_level, to_level, COUNT(*)
        FROM issue_escalations
        WHERE ` + where.sql() + `
        GROUP BY from_level, to_level
        ORDER BY COUNT(*) DESC, from_level ASC, to_level ASC`
	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TransitionCount{}
	for rows.Next() {
		var tc domain.TransitionCount
		if err := rows.Scan(&tc.FromLevel, &tc.ToLevel, &tc.Count); err != nil {
			return nil, err
		}
		result = append(result, tc)
	}
	return result, rows.Err()
}
