package events

import (
	"time"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated   EventType = "issue_created"
	EventIssueEscalated EventType = "issue_escalated"
	EventIssueResolved  EventType = "issue_resolved"
	EventIssueDeleted   EventType = "issue_deleted"
)

// LifecycleEvents lists every event emitted by the issue lifecycle.
var LifecycleEvents = []EventType{EventIssueCreated, EventIssueEscalated, EventIssueResolved, EventIssueDeleted}

// Event represents a domain event emitted after a committed change.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	IssueID   string    `json:"issue_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	IssueNumber    int64                `json:"issue_number"`
	Title          string               `json:"title"`
	Level          int                  `json:"level"`
	Priority       domain.IssuePriority `json:"priority"`
	SuggestedLevel int                  `json:"suggested_level"`
}

// IssueEscalatedPayload payload.
type IssueEscalatedPayload struct {
	FromLevel int    `json:"from_level"`
	ToLevel   int    `json:"to_level"`
	Reason    string `json:"reason"`
}

// IssueResolvedPayload payload.
type IssueResolvedPayload struct {
	Level      int    `json:"level"`
	Resolution string `json:"resolution"`
}

// IssueDeletedPayload payload.
type IssueDeletedPayload struct {
	IssueNumber int64 `json:"issue_number"`
}
