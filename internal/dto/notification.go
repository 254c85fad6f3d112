package dto

import (
	"time"

	"github.com/akunara/akunara_backend/internal/core/domain"
)

// NotificationResponse defines the data returned for a notification.
type NotificationResponse struct {
	NotificationID string                  `json:"notificationID"`
	Type           domain.NotificationType `json:"type"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	Priority       domain.ApprovalPriority `json:"priority"`
	Data           string                  `json:"data,omitempty"`
	IsRead         bool                    `json:"isRead"`
	ReadAt         *time.Time              `json:"readAt,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// ListNotificationsParams defines query parameters for listing
// notifications of the authenticated user.
type ListNotificationsParams struct {
	Limit      int  `form:"limit,default=20"`
	UnreadOnly bool `form:"unreadOnly,default=false"`
}

// ListNotificationsResponse wraps notifications plus the unread count.
type ListNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

// ToNotificationResponse converts a domain.Notification to its DTO.
func ToNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		NotificationID: n.NotificationID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		Priority:       n.Priority,
		Data:           n.Data,
		IsRead:         n.IsRead,
		ReadAt:         n.ReadAt,
		CreatedAt:      n.CreatedAt,
	}
}

// ToListNotificationsResponse converts a slice of domain notifications.
func ToListNotificationsResponse(notifications []domain.Notification, unreadCount int) ListNotificationsResponse {
	resp := ListNotificationsResponse{
		Notifications: make([]NotificationResponse, len(notifications)),
		UnreadCount:   unreadCount,
	}
	for i := range notifications {
		resp.Notifications[i] = ToNotificationResponse(&notifications[i])
	}
	return resp
}
