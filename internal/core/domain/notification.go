package domain

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotifyApprovalPending  NotificationType = "APPROVAL_PENDING"
	NotifyApprovalApproved NotificationType = "APPROVAL_APPROVED"
	NotifyApprovalRejected NotificationType = "APPROVAL_REJECTED"
)

// Notification is one in-app message delivered to a user.
type Notification struct {
	NotificationID string           `json:"notificationID"`
	UserID         string           `json:"userID"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Priority       ApprovalPriority `json:"priority"`
	Data           string           `json:"data,omitempty"` // JSON context payload
	IsRead         bool             `json:"isRead"`
	ReadAt         *time.Time       `json:"readAt,omitempty"`
	AuditFields
}
