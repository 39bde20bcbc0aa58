package repositories

import (
	"database/sql"
	"fmt"

	"aitoolshub/internal/models"
)

type NotificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	const q = `
		INSERT INTO notifications (user_id, type, message, action_url, data, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`
	var data any
	if len(n.Data) > 0 {
		data = []byte(n.Data)
	}
	if err := r.DB.QueryRow(q, n.UserID, n.Type, n.Message, n.ActionURL, data).
		Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("notification create: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByUserID(userID, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, user_id, type, message, action_url, data, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.Query(q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("notification list: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		var data sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.ActionURL, &data, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notification list scan: %w", err)
		}
		if data.Valid {
			n.Data = []byte(data.String)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) CountUnread(userID int) (int, error) {
	var c int
	const q = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`
	if err := r.DB.QueryRow(q, userID).Scan(&c); err != nil {
		return 0, fmt.Errorf("notification unread count: %w", err)
	}
	return c, nil
}

func (r *NotificationRepository) MarkRead(id int64, userID int) (bool, error) {
	const q = `
		UPDATE notifications
		SET read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL
	`
	res, err := r.DB.Exec(q, id, userID)
	if err != nil {
		return false, fmt.Errorf("notification mark read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *NotificationRepository) MarkAllRead(userID int) (int64, error) {
	const q = `UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`
	res, err := r.DB.Exec(q, userID)
	if err != nil {
		return 0, fmt.Errorf("notification mark all read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
