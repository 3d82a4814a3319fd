package domain

import "time"

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusOpen      IssueStatus = "OPEN"
	IssueStatusEscalated IssueStatus = "ESCALATED"
	IssueStatusResolved  IssueStatus = "RESOLVED"
)

// IssuePriority enumerates urgency.
type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "LOW"
	IssuePriorityMedium IssuePriority = "MEDIUM"
	IssuePriorityHigh   IssuePriority = "HIGH"
)

// IssueSource records where a report originated.
type IssueSource string

const (
	IssueSourceManual     IssueSource = "manual"
	IssueSourceGemba      IssueSource = "gemba"
	IssueSourceProduction IssueSource = "production"
)

// Tier bounds.
const (
	MinLevel = 1
	MaxLevel = 4
)

// Issue is the aggregate root for shopfloor problem reports.
type Issue struct {
	ID          string
	IssueNumber int64
	Title       string
	Description string
	Status      IssueStatus
	Level       int
	Priority    IssuePriority
	CategoryID  *string
	AreaID      *string
	Source      IssueSource
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Valid reports whether the priority is a known value.
func (p IssuePriority) Valid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh:
		return true
	}
	return false
}

// Valid reports whether the source is a known value.
func (s IssueSource) Valid() bool {
	switch s {
	case IssueSourceManual, IssueSourceGemba, IssueSourceProduction:
		return true
	}
	return false
}

// Valid reports whether the status is a known value.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusEscalated, IssueStatusResolved:
		return true
	}
	return false
}

// ValidLevel reports whether level is a known tier.
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

var allowedTransitions = map[IssueStatus][]IssueStatus{
	IssueStatusOpen:      {IssueStatusEscalated, IssueStatusResolved},
	IssueStatusEscalated: {IssueStatusEscalated, IssueStatusResolved},
	IssueStatusResolved:  {},
}

// CanTransition reports whether the lifecycle permits moving from current to next.
func CanTransition(current, next IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s IssueStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}
