package repository

import (
	"context"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// EscalationRepository stores the append-only escalation trail.
type EscalationRepository interface {
	Create(ctx context.Context, record *domain.EscalationRecord) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.EscalationRecord, error)
	DeleteByIssue(ctx context.Context, issueID string) (int64, error)
}

type escalationRepository struct {
	db DBTX
}

// NewEscalationRepository builds repository.
func NewEscalationRepository(db DBTX) EscalationRepository {
	return &escalationRepository{db: db}
}

func (r *escalationRepository) Create(ctx context.Context, record *domain.EscalationRecord) error {
	const query = `
        INSERT INTO issue_escalations (issue_id, from_level, to_level, reason, escalated_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, escalated_at`
	return r.db.QueryRow(ctx, query,
		record.IssueID,
		record.FromLevel,
		record.ToLevel,
		record.Reason,
		record.EscalatedBy,
	).Scan(&record.ID, &record.EscalatedAt)
}

func (r *escalationRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.EscalationRecord, error) {
	const query = `
        SELECT id, issue_id, from_level, to_level, reason, escalated_by, escalated_at
        FROM issue_escalations WHERE issue_id=$1 ORDER BY escalated_at ASC, to_level ASC`
	rows, err := r.db.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.EscalationRecord{}
	for rows.Next() {
		var record domain.EscalationRecord
		if err := rows.Scan(
			&record.ID,
			&record.IssueID,
			&record.FromLevel,
			&record.ToLevel,
			&record.Reason,
			&record.EscalatedBy,
			&record.EscalatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *escalationRepository) DeleteByIssue(ctx context.Context, issueID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM issue_escalations WHERE issue_id=$1`, issueID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
