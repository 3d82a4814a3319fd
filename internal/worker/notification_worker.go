package worker

import (
	"context"

	"github.com/spec-kit/shopfloor-issues/internal/events"
	"github.com/spec-kit/shopfloor-issues/internal/service"
)

// ReportInvalidator drops cached reports.
type ReportInvalidator interface {
	InvalidateReports(ctx context.Context) error
}

// StartNotificationWorker registers notification handlers and, when reports is not
// nil, invalidates cached reports on every lifecycle change.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, reports ReportInvalidator) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if dispatcher == nil || reports == nil {
		return
	}
	for _, eventType := range events.LifecycleEvents {
		dispatcher.Subscribe(eventType, func(ctx context.Context, _ events.Event) error {
			return reports.InvalidateReports(ctx)
		})
	}
}
