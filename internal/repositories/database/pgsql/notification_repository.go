package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
)

const notificationColumns = `notification_id, user_id, type, title, message, priority, data, is_read, read_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxNotificationRepository struct {
	BaseRepository
}

// newPgxNotificationRepository creates a new repository for notification data.
func newPgxNotificationRepository(pool *pgxpool.Pool) portsrepo.NotificationRepositoryFacade {
	return &PgxNotificationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxNotificationRepository implements portsrepo.NotificationRepositoryFacade
var _ portsrepo.NotificationRepositoryFacade = (*PgxNotificationRepository)(nil)

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.NotificationID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.Priority,
		&n.Data,
		&n.IsRead,
		&n.ReadAt,
		&n.CreatedAt,
		&n.CreatedBy,
		&n.LastUpdatedAt,
		&n.LastUpdatedBy,
	)
	return n, err
}

// SaveNotification persists a new notification.
func (r *PgxNotificationRepository) SaveNotification(ctx context.Context, notification domain.Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.Pool.Exec(ctx, query,
		notification.NotificationID,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.Priority,
		notification.Data,
		notification.IsRead,
		notification.ReadAt,
		notification.CreatedAt,
		notification.CreatedBy,
		notification.LastUpdatedAt,
		notification.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert notification "+notification.NotificationID)
	}
	return nil
}

// ListNotificationsByUser retrieves the user's notifications, newest first.
func (r *PgxNotificationRepository) ListNotificationsByUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2;`

	rows, err := r.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, translateError(err, "failed to query notifications for user "+userID)
	}
	defer rows.Close()

	notifications := []domain.Notification{}
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan notification row")
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating notification rows")
	}
	return notifications, nil
}

// CountUnreadByUser returns the user's unread notification count.
func (r *PgxNotificationRepository) CountUnreadByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE;`
	var count int
	if err := r.Pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, translateError(err, "failed to count unread notifications for user "+userID)
	}
	return count, nil
}

// FindRecentSimilar reports whether the user already received an
// equivalent notification since the given time. Used for deduplication.
func (r *PgxNotificationRepository) FindRecentSimilar(ctx context.Context, userID string, notifType domain.NotificationType, title string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND type = $2 AND title = $3 AND created_at >= $4
		);
	`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, userID, notifType, title, since).Scan(&exists); err != nil {
		return false, translateError(err, "failed to check for similar notifications")
	}
	return exists, nil
}

// MarkRead marks one notification of the user as read.
func (r *PgxNotificationRepository) MarkRead(ctx context.Context, notificationID string, userID string, readAt time.Time) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE,
		    read_at = $3,
		    last_updated_at = $3,
		    last_updated_by = $2
		WHERE notification_id = $1 AND user_id = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, notificationID, userID, readAt)
	if err != nil {
		return translateError(err, "failed to mark notification read "+notificationID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkAllRead marks all of the user's unread notifications as read.
func (r *PgxNotificationRepository) MarkAllRead(ctx context.Context, userID string, readAt time.Time) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE,
		    read_at = $2,
		    last_updated_at = $2,
		    last_updated_by = $1
		WHERE user_id = $1 AND is_read = FALSE;
	`
	_, err := r.Pool.Exec(ctx, query, userID, readAt)
	if err != nil {
		return translateError(err, "failed to mark notifications read for user "+userID)
	}
	return nil
}
