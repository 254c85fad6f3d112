package repositories

import (
	"context"
	"time"

	"github.com/akunara/akunara_backend/internal/core/domain"
)

// NotificationReader defines read operations for notification data
type NotificationReader interface {
	// ListNotificationsByUser retrieves notifications for a user, newest first.
	ListNotificationsByUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error)

	// CountUnreadByUser returns the number of unread notifications for a user.
	CountUnreadByUser(ctx context.Context, userID string) (int, error)

	// FindRecentSimilar retrieves the newest notification matching user,
	// type and title created after the cutoff, used for dedupe.
	FindRecentSimilar(ctx context.Context, userID string, notifType domain.NotificationType, title string, since time.Time) (*domain.Notification, error)
}

// NotificationWriter defines write operations for notification data
type NotificationWriter interface {
	// SaveNotification persists a new notification.
	SaveNotification(ctx context.Context, notification domain.Notification) error

	// MarkRead marks one notification of a user as read.
	MarkRead(ctx context.Context, notificationID string, userID string, readAt time.Time) error

	// MarkAllRead marks all of a user's notifications as read.
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) error
}

// NotificationRepositoryFacade combines all notification-related repository interfaces
type NotificationRepositoryFacade interface {
	NotificationReader
	NotificationWriter
}
