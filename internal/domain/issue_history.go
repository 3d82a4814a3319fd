package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscalationRecord is an immutable audit entry for a level change.
type EscalationRecord struct {
	ID          string
	IssueID     string
	FromLevel   int
	ToLevel     int
	Reason      string
	EscalatedBy string
	EscalatedAt time.Time
}

// ResolutionRecord closes an issue; at most one exists per issue.
type ResolutionRecord struct {
	ID                string
	IssueID           string
	Resolution        string
	ResolvedBy        string
	ResolvedAt        time.Time
	DowntimePrevented *float64
	DefectsReduced    *int
	CostSavings       *decimal.Decimal
}

// SuggestionConfidence is fixed; suggestions are rule based, not learned.
const SuggestionConfidence = 0.75

// AiSuggestion is written once when an issue is created.
type AiSuggestion struct {
	ID             string
	IssueID        string
	SuggestedLevel int
	Reason         string
	Confidence     float64
	CreatedAt      time.Time
}

// IssueHistory bundles the audit trail of an issue.
type IssueHistory struct {
	Escalations []EscalationRecord
	Resolution  *ResolutionRecord
}
