package repository

import (
	"context"
	"database/sql"

	"github.com/saveplate/marketplace/internal/model"
)

// GamificationRepo persists badges and the credit ledger.  Awarding is
// driven entirely by the queue consumer when completed-transaction
// events arrive; the HTTP layer only reads.
type GamificationRepo struct {
	db *sql.DB
}

// NewGamificationRepo returns a new GamificationRepo bound to the given database.
func NewGamificationRepo(db *sql.DB) *GamificationRepo { return &GamificationRepo{db: db} }

// AwardBadge grants a badge once.  It reports whether the badge was
// newly awarded; a duplicate award is a no-op with awarded=false.
func (r *GamificationRepo) AwardBadge(ctx context.Context, userID uint64, code string) (bool, error) {
	// INSERT IGNORE relies on the (user_id, code) unique key.
	res, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO badges (user_id, code) VALUES (?, ?)`, userID, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasBadge reports whether the user already holds the badge.
func (r *GamificationRepo) HasBadge(ctx context.Context, userID uint64, code string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM badges WHERE user_id = ? AND code = ?`, userID, code).Scan(&n)
	return n > 0, err
}

// ListBadges returns the user's badges in award order.
func (r *GamificationRepo) ListBadges(ctx context.Context, userID uint64) ([]model.Badge, error) {
	const q = `SELECT id, user_id, code, awarded_at FROM badges WHERE user_id = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Badge{}
	for rows.Next() {
		var b model.Badge
		if err := rows.Scan(&b.ID, &b.UserID, &b.Code, &b.AwardedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddCredits appends a signed entry to the user's ledger.
func (r *GamificationRepo) AddCredits(ctx context.Context, userID uint64, amount int32, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_entries (user_id, amount, reason) VALUES (?, ?, ?)`,
		userID, amount, reason)
	return err
}

// CreditBalance sums the user's ledger.
func (r *GamificationRepo) CreditBalance(ctx context.Context, userID uint64) (int64, error) {
	var n sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM credit_entries WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n.Int64, nil
}

// ListCreditHistory returns ledger entries, newest first.
func (r *GamificationRepo) ListCreditHistory(ctx context.Context, userID uint64, limit int) ([]model.CreditEntry, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, user_id, amount, reason, created_at FROM credit_entries
 WHERE user_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CreditEntry{}
	for rows.Next() {
		var e model.CreditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
