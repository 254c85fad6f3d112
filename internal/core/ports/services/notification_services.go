package services

import (
	"context"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/akunara/akunara_backend/internal/dto"
)

// NotificationReaderSvc defines read operations for notification data
type NotificationReaderSvc interface {
	// ListNotifications retrieves the authenticated user's notifications
	// plus their unread count.
	ListNotifications(ctx context.Context, userID string, params dto.ListNotificationsParams) (*dto.ListNotificationsResponse, error)
}

// NotificationWriterSvc defines write operations for notification data
type NotificationWriterSvc interface {
	// NotifyRole fans one notification out to every active user holding
	// the role, suppressing duplicates created within the dedupe window.
	NotifyRole(ctx context.Context, role domain.Role, notifType domain.NotificationType, title, message string, priority domain.ApprovalPriority, data string) error

	// NotifyUser delivers one notification to a single user, with the same
	// dedupe suppression.
	NotifyUser(ctx context.Context, userID string, notifType domain.NotificationType, title, message string, priority domain.ApprovalPriority, data string) error

	// MarkRead marks one notification of the user as read.
	MarkRead(ctx context.Context, notificationID string, userID string) error

	// MarkAllRead marks all of the user's notifications as read.
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationSvcFacade combines all notification-related service interfaces
type NotificationSvcFacade interface {
	NotificationReaderSvc
	NotificationWriterSvc
}
