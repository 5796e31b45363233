package repository

import (
	"context"
	"database/sql"

	"github.com/saveplate/marketplace/internal/model"
)

// ConversationRepo manages buyer/seller message threads.  One thread
// exists per (product, buyer) pair and both participants address it by
// its ID; lookups always verify participation so handlers can map the
// sentinel error straight to 404 without leaking thread existence.
type ConversationRepo struct {
	db *sql.DB
}

// NewConversationRepo returns a new ConversationRepo bound to the given database.
func NewConversationRepo(db *sql.DB) *ConversationRepo { return &ConversationRepo{db: db} }

const convColumns = `id, product_id, buyer_id, seller_id, created_at, updated_at`

func scanConversation(row interface{ Scan(...any) error }) (model.Conversation, error) {
	var cv model.Conversation
	err := row.Scan(&cv.ID, &cv.ProductID, &cv.BuyerID, &cv.SellerID, &cv.CreatedAt, &cv.UpdatedAt)
	return cv, err
}

// GetOrCreate returns the thread for (product, buyer), creating it on
// first contact.  The seller is captured at creation time so the thread
// survives a later ownership change of the listing.
func (r *ConversationRepo) GetOrCreate(ctx context.Context, productID, buyerID, sellerID uint64) (model.Conversation, error) {
	const sel = `SELECT ` + convColumns + ` FROM conversations WHERE product_id = ? AND buyer_id = ? LIMIT 1`
	cv, err := scanConversation(r.db.QueryRowContext(ctx, sel, productID, buyerID))
	if err == nil {
		return cv, nil
	}
	if err != sql.ErrNoRows {
		return model.Conversation{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (product_id, buyer_id, seller_id) VALUES (?, ?, ?)`,
		productID, buyerID, sellerID)
	if err != nil {
		return model.Conversation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Conversation{}, err
	}
	return scanConversation(r.db.QueryRowContext(ctx,
		`SELECT `+convColumns+` FROM conversations WHERE id = ?`, id))
}

// GetForUser fetches a thread the user participates in, or
// ErrConversationNotFound.
func (r *ConversationRepo) GetForUser(ctx context.Context, id, userID uint64) (model.Conversation, error) {
	const q = `SELECT ` + convColumns + ` FROM conversations
 WHERE id = ? AND (buyer_id = ? OR seller_id = ?) LIMIT 1`
	cv, err := scanConversation(r.db.QueryRowContext(ctx, q, id, userID, userID))
	if err == sql.ErrNoRows {
		return model.Conversation{}, ErrConversationNotFound
	}
	return cv, err
}

// ConversationSummary is one row of the thread list: the thread itself
// plus the fields the list view renders without further requests.
type ConversationSummary struct {
	ID            uint64  `json:"id"`
	ProductID     uint64  `json:"product_id"`
	ProductTitle  string  `json:"product_title"`
	OtherUserID   uint64  `json:"other_user_id"`
	OtherUserName string  `json:"other_user_name"`
	LastMessage   *string `json:"last_message"`
	UpdatedAt     string  `json:"updated_at"`
	UnreadCount   int64   `json:"unread_count"`
}

// ListForUser returns the user's threads ordered by recency, each with
// the counterpart's name, the last message body and the number of
// messages the user has not read yet.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID uint64) ([]ConversationSummary, error) {
	const q = `SELECT c.id, c.product_id, p.title,
 CASE WHEN c.buyer_id = ? THEN c.seller_id ELSE c.buyer_id END,
 CASE WHEN c.buyer_id = ? THEN su.display_name ELSE bu.display_name END,
 (SELECT m.body FROM messages m WHERE m.conversation_id = c.id ORDER BY m.id DESC LIMIT 1),
 DATE_FORMAT(c.updated_at, '%Y-%m-%dT%H:%i:%sZ'),
 (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND m.sender_id <> ? AND m.read_at IS NULL)
 FROM conversations c
 JOIN products p ON p.id = c.product_id
 JOIN users bu ON bu.id = c.buyer_id
 JOIN users su ON su.id = c.seller_id
 WHERE c.buyer_id = ? OR c.seller_id = ?
 ORDER BY c.updated_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, userID, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ConversationSummary{}
	for rows.Next() {
		var s ConversationSummary
		if err := rows.Scan(&s.ID, &s.ProductID, &s.ProductTitle, &s.OtherUserID,
			&s.OtherUserName, &s.LastMessage, &s.UpdatedAt, &s.UnreadCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Touch bumps updated_at so the thread surfaces at the top of the list.
func (r *ConversationRepo) Touch(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = ?`, id)
	return err
}
