package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	CategoryID  *string              `json:"category_id"`
	AreaID      *string              `json:"area_id"`
	Priority    domain.IssuePriority `json:"priority"`
	Level       *int                 `json:"level"`
	Source      domain.IssueSource   `json:"source"`
}

// EscalateIssueRequest payload.
type EscalateIssueRequest struct {
	TargetLevel int    `json:"target_level"`
	Reason      string `json:"reason"`
}

// ResolveIssueRequest payload. cost_savings accepts a JSON number or string.
type ResolveIssueRequest struct {
	Resolution        string           `json:"resolution"`
	DowntimePrevented *float64         `json:"downtime_prevented"`
	DefectsReduced    *int             `json:"defects_reduced"`
	CostSavings       *decimal.Decimal `json:"cost_savings"`
}

// IssueResponse is the public view of an issue.
type IssueResponse struct {
	ID           string                `json:"id"`
	IssueNumber  int64                 `json:"issue_number"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Status       domain.IssueStatus    `json:"status"`
	Level        int                   `json:"level"`
	Priority     domain.IssuePriority  `json:"priority"`
	CategoryID   *string               `json:"category_id"`
	AreaID       *string               `json:"area_id"`
	Source       domain.IssueSource    `json:"source"`
	CreatedBy    string                `json:"created_by"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	AiSuggestion *AiSuggestionResponse `json:"ai_suggestion,omitempty"`
}

// AiSuggestionResponse view.
type AiSuggestionResponse struct {
	SuggestedLevel int       `json:"suggested_level"`
	Reason         string    `json:"reason"`
	Confidence     float64   `json:"confidence"`
	CreatedAt      time.Time `json:"created_at"`
}

// EscalationResponse view.
type EscalationResponse struct {
	ID          string    `json:"id"`
	IssueID     string    `json:"issue_id"`
	FromLevel   int       `json:"from_level"`
	ToLevel     int       `json:"to_level"`
	Reason      string    `json:"reason"`
	EscalatedBy string    `json:"escalated_by"`
	EscalatedAt time.Time `json:"escalated_at"`
}

// ResolutionResponse view.
type ResolutionResponse struct {
	ID                string           `json:"id"`
	IssueID           string           `json:"issue_id"`
	Resolution        string           `json:"resolution"`
	ResolvedBy        string           `json:"resolved_by"`
	ResolvedAt        time.Time        `json:"resolved_at"`
	DowntimePrevented *float64         `json:"downtime_prevented"`
	DefectsReduced    *int             `json:"defects_reduced"`
	CostSavings       *decimal.Decimal `json:"cost_savings"`
}

// EscalateIssueResponse body.
type EscalateIssueResponse struct {
	Issue      IssueResponse      `json:"issue"`
	Escalation EscalationResponse `json:"escalation"`
}

// ResolveIssueResponse body.
type ResolveIssueResponse struct {
	Issue      IssueResponse      `json:"issue"`
	Resolution ResolutionResponse `json:"resolution"`
}

// IssueHistoryResponse body.
type IssueHistoryResponse struct {
	Escalations []EscalationResponse `json:"escalations"`
	Resolution  *ResolutionResponse  `json:"resolution"`
}

// DeleteIssueResponse body.
type DeleteIssueResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}
