package repository

import (
	"context"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// SuggestionRepository stores the creation-time AI suggestion.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *domain.AiSuggestion) error
	GetByIssue(ctx context.Context, issueID string) (*domain.AiSuggestion, error)
	DeleteByIssue(ctx context.Context, issueID string) (int64, error)
}

type suggestionRepository struct {
	db DBTX
}

// NewSuggestionRepository builds repository.
func NewSuggestionRepository(db DBTX) SuggestionRepository {
	return &suggestionRepository{db: db}
}

func (r *suggestionRepository) Create(ctx context.Context, suggestion *domain.AiSuggestion) error {
	const query = `
        INSERT INTO ai_suggestions (issue_id, suggested_level, reason, confidence)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		suggestion.IssueID,
		suggestion.SuggestedLevel,
		suggestion.Reason,
		suggestion.Confidence,
	).Scan(&suggestion.ID, &suggestion.CreatedAt)
}

func (r *suggestionRepository) GetByIssue(ctx context.Context, issueID string) (*domain.AiSuggestion, error) {
	const query = `
        SELECT id, issue_id, suggested_level, reason, confidence, created_at
        FROM ai_suggestions WHERE issue_id=$1`
	var suggestion domain.AiSuggestion
	if err := r.db.QueryRow(ctx, query, issueID).Scan(
		&suggestion.ID,
		&suggestion.IssueID,
		&suggestion.SuggestedLevel,
		&suggestion.Reason,
		&suggestion.Confidence,
		&suggestion.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &suggestion, nil
}

func (r *suggestionRepository) DeleteByIssue(ctx context.Context, issueID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ai_suggestions WHERE issue_id=$1`, issueID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
