package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// ResolutionRepository stores the closing record of an issue.
type ResolutionRepository interface {
	Create(ctx context.Context, record *domain.ResolutionRecord) error
	GetByIssue(ctx context.Context, issueID string) (*domain.ResolutionRecord, error)
	DeleteByIssue(ctx context.Context, issueID string) (int64, error)
}

type resolutionRepository struct {
	db DBTX
}

// NewResolutionRepository builds repository.
func NewResolutionRepository(db DBTX) ResolutionRepository {
	return &resolutionRepository{db: db}
}

func (r *resolutionRepository) Create(ctx context.Context, record *domain.ResolutionRecord) error {
	const query = `
        INSERT INTO issue_resolutions (issue_id, resolution, resolved_by, downtime_prevented, defects_reduced, cost_savings)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, resolved_at`
	var costSavings decimal.NullDecimal
	if record.CostSavings != nil {
		costSavings = decimal.NewNullDecimal(*record.CostSavings)
	}
	return r.db.QueryRow(ctx, query,
		record.IssueID,
		record.Resolution,
		record.ResolvedBy,
		record.DowntimePrevented,
		record.DefectsReduced,
		costSavings,
	).Scan(&record.ID, &record.ResolvedAt)
}

// GetByIssue returns pgx.ErrNoRows when the issue has not been resolved.
func (r *resolutionRepository) GetByIssue(ctx context.Context, issueID string) (*domain.ResolutionRecord, error) {
	const query = `
        SELECT id, issue_id, resolution, resolved_by, resolved_at, downtime_prevented, defects_reduced, cost_savings
        FROM issue_resolutions WHERE issue_id=$1`
	var (
		record      domain.ResolutionRecord
		costSavings decimal.NullDecimal
	)
	if err := r.db.QueryRow(ctx, query, issueID).Scan(
		&record.ID,
		&record.IssueID,
		&record.Resolution,
		&record.ResolvedBy,
		&record.ResolvedAt,
		&record.DowntimePrevented,
		&record.DefectsReduced,
		&costSavings,
	); err != nil {
		return nil, err
	}
	if costSavings.Valid {
		record.CostSavings = &costSavings.Decimal
	}
	return &record, nil
}

func (r *resolutionRepository) DeleteByIssue(ctx context.Context, issueID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM issue_resolutions WHERE issue_id=$1`, issueID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
