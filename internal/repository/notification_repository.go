package repository

import (
	"context"
	"database/sql"

	"github.com/saveplate/marketplace/internal/model"
)

// NotificationRepo persists per-user inbox entries.  Rows are written by
// the queue consumer; the HTTP layer only lists and marks them read.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notifColumns = `id, user_id, type, title, body, product_id, read_at, created_at`

func scanNotification(row interface{ Scan(...any) error }) (model.Notification, error) {
	var n model.Notification
	var productID sql.NullInt64
	var readAt sql.NullTime
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &productID, &readAt, &n.CreatedAt)
	if err != nil {
		return model.Notification{}, err
	}
	if productID.Valid {
		v := uint64(productID.Int64)
		n.ProductID = &v
	}
	if readAt.Valid {
		v := readAt.Time
		n.ReadAt = &v
	}
	return n, nil
}

// Create inserts an inbox entry.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	var productID any
	if n.ProductID != nil {
		productID = *n.ProductID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, body, product_id) VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Title, n.Body, productID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListForUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	const q = `SELECT ` + notifColumns + ` FROM notifications WHERE user_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead stamps one notification.  Ownership is part of the predicate
// so users cannot mark each other's entries.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE id = ? AND user_id = ? AND read_at IS NULL`,
		id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead stamps every unread notification of the user.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE user_id = ? AND read_at IS NULL`, userID)
	return err
}

// UnreadCount returns how many notifications the user has not read.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`, userID).Scan(&n)
	return n, err
}
