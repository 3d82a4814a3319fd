package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/events"
)

// NotificationService turns lifecycle events into operator-facing log entries.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIssueCreated, n.handleIssueCreated)
	n.dispatcher.Subscribe(events.EventIssueEscalated, n.handleIssueEscalated)
	n.dispatcher.Subscribe(events.EventIssueResolved, n.handleIssueResolved)
	n.dispatcher.Subscribe(events.EventIssueDeleted, n.handleIssueDeleted)
}

func (n *NotificationService) handleIssueCreated(_ context.Context, event events.Event) error {
	n.logger.Info("IssueCreated", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	return nil
}

// Escalations that reach management are logged at warn so they stand out.
func (n *NotificationService) handleIssueEscalated(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("issue_id", event.IssueID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload),
	}
	if payload, ok := event.Payload.(events.IssueEscalatedPayload); ok && payload.ToLevel >= domain.RoleManager {
		n.logger.Warn("IssueEscalated", fields...)
		return nil
	}
	n.logger.Info("IssueEscalated", fields...)
	return nil
}

func (n *NotificationService) handleIssueResolved(_ context.Context, event events.Event) error {
	n.logger.Info("IssueResolved", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleIssueDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("IssueDeleted", zap.String("issue_id", event.IssueID), zap.String("actor_id", event.ActorID))
	return nil
}
