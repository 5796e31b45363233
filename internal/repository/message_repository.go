package repository

import (
	"context"
	"database/sql"

	"github.com/saveplate/marketplace/internal/model"
)

// MessageRepo persists chat messages.  Pages are windows over the
// newest-first ordering: offset 0 holds the most recent messages, and
// clients walk backwards in history by increasing the offset.  Within a
// page messages come back in ascending timestamp order, ready to render.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo returns a new MessageRepo bound to the given database.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageColumns = `id, conversation_id, sender_id, body, read_at, created_at`

func scanMessage(row interface{ Scan(...any) error }) (model.Message, error) {
	var m model.Message
	var readAt sql.NullTime
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &readAt, &m.CreatedAt)
	if err != nil {
		return model.Message{}, err
	}
	if readAt.Valid {
		v := readAt.Time
		m.ReadAt = &v
	}
	return m, nil
}

// Create appends a message and populates the generated ID and timestamp.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, body) VALUES (?, ?, ?)`,
		m.ConversationID, m.SenderID, m.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	got, err := scanMessage(r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, m.ID))
	if err != nil {
		return err
	}
	*m = got
	return nil
}

// ListPage returns one page of a conversation's history.  The window is
// taken over newest-first ordering (offset 0 = latest messages) and then
// reversed, so the returned slice ascends by timestamp.  A page shorter
// than limit means no older messages remain.
func (r *MessageRepo) ListPage(ctx context.Context, conversationID uint64, offset, limit int) ([]model.Message, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + messageColumns + ` FROM messages
 WHERE conversation_id = ? ORDER BY id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	page := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		page = append(page, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse the newest-first window into ascending order.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

// MarkRead stamps every unread message sent by the other party.  It is
// called whenever the reader fetches the latest page.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, readerID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_at = NOW()
 WHERE conversation_id = ? AND sender_id <> ? AND read_at IS NULL`,
		conversationID, readerID)
	return err
}

// UnreadCountForUser totals unread messages across all of the user's
// threads, for the badge shown next to the inbox.
func (r *MessageRepo) UnreadCountForUser(ctx context.Context, userID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM messages m
 JOIN conversations c ON c.id = m.conversation_id
 WHERE (c.buyer_id = ? OR c.seller_id = ?) AND m.sender_id <> ? AND m.read_at IS NULL`
	var n int64
	err := r.db.QueryRowContext(ctx, q, userID, userID, userID).Scan(&n)
	return n, err
}
