package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
	portssvc "github.com/akunara/akunara_backend/internal/core/ports/services"
	"github.com/akunara/akunara_backend/internal/dto"
	"github.com/akunara/akunara_backend/internal/middleware"
)

// dedupeWindow suppresses repeat notifications: an identical
// user/type/title combination within this window is not delivered again.
const dedupeWindow = time.Hour

// notificationService provides in-app notification delivery.
type notificationService struct {
	notificationRepo portsrepo.NotificationRepositoryFacade
	userRepo         portsrepo.UserRepositoryFacade
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo portsrepo.NotificationRepositoryFacade, userRepo portsrepo.UserRepositoryFacade) portssvc.NotificationSvcFacade {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

var _ portssvc.NotificationSvcFacade = (*notificationService)(nil)

// ListNotifications retrieves a user's notifications plus the unread count.
func (s *notificationService) ListNotifications(ctx context.Context, userID string, params dto.ListNotificationsParams) (*dto.ListNotificationsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	notifications, err := s.notificationRepo.ListNotificationsByUser(ctx, userID, limit, params.UnreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.notificationRepo.CountUnreadByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	resp := dto.ToListNotificationsResponse(notifications, unread)
	return &resp, nil
}

// NotifyUser delivers one notification to a single user, skipping the
// write when an identical one was created within the dedupe window.
func (s *notificationService) NotifyUser(ctx context.Context, userID string, notifType domain.NotificationType, title, message string, priority domain.ApprovalPriority, data string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	recent, err := s.notificationRepo.FindRecentSimilar(ctx, userID, notifType, title, now.Add(-dedupeWindow))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check for duplicate notification: %w", err)
	}
	if recent != nil {
		logger.Debug("Suppressing duplicate notification", "user_id", userID, "type", string(notifType))
		return nil
	}

	notification := domain.Notification{
		NotificationID: uuid.NewString(),
		UserID:         userID,
		Type:           notifType,
		Title:          title,
		Message:        message,
		Priority:       priority,
		Data:           data,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.notificationRepo.SaveNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// NotifyRole fans one notification out to every active user holding the role.
func (s *notificationService) NotifyRole(ctx context.Context, role domain.Role, notifType domain.NotificationType, title, message string, priority domain.ApprovalPriority, data string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	users, err := s.userRepo.FindUsersByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("failed to find users with role %s: %w", role, err)
	}
	if len(users) == 0 {
		logger.Warn("No active users hold role for notification", "role", string(role), "title", title)
		return nil
	}

	for _, user := range users {
		if err := s.NotifyUser(ctx, user.UserID, notifType, title, message, priority, data); err != nil {
			// Deliver to the remaining recipients even if one write fails.
			logger.Error("Failed to notify user", "error", err, "user_id", user.UserID)
		}
	}
	return nil
}

// MarkRead marks one notification of the user as read.
func (s *notificationService) MarkRead(ctx context.Context, notificationID string, userID string) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read.
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
