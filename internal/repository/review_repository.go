package repository

import (
	"context"
	"database/sql"

	"github.com/saveplate/marketplace/internal/model"
)

// ReviewRepo persists post-completion reviews and their moderation
// lifecycle.  A user may hold at most one non-rejected review per
// transaction; rejected ones do not block writing a replacement.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `id, transaction_id, author_id, subject_id, rating, comment, status, created_at`

func scanReview(row interface{ Scan(...any) error }) (model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.TransactionID, &rv.AuthorID, &rv.SubjectID,
		&rv.Rating, &rv.Comment, &rv.Status, &rv.CreatedAt)
	return rv, err
}

// Create inserts a review in APPROVED state.  ErrAlreadyReviewed is
// returned when the author already has a non-rejected review for the
// transaction.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	has, err := r.HasReviewed(ctx, rv.TransactionID, rv.AuthorID)
	if err != nil {
		return err
	}
	if has {
		return ErrAlreadyReviewed
	}
	const q = `INSERT INTO reviews (transaction_id, author_id, subject_id, rating, comment, status)
 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		rv.TransactionID, rv.AuthorID, rv.SubjectID, rv.Rating, rv.Comment, model.ReviewApproved)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	got, err := r.GetByID(ctx, rv.ID)
	if err != nil {
		return err
	}
	*rv = got
	return nil
}

// GetByID fetches one review or ErrReviewNotFound.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	rv, err := scanReview(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Review{}, ErrReviewNotFound
	}
	return rv, err
}

// HasReviewed reports whether the user holds a non-rejected review for
// the transaction.  Clients derive the "already reviewed" flag from it.
func (r *ReviewRepo) HasReviewed(ctx context.Context, transactionID, authorID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM reviews
 WHERE transaction_id = ? AND author_id = ? AND status <> 'REJECTED'`
	var n int64
	if err := r.db.QueryRowContext(ctx, q, transactionID, authorID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByTransaction returns every review attached to a transaction.
func (r *ReviewRepo) ListByTransaction(ctx context.Context, transactionID uint64) ([]model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE transaction_id = ? ORDER BY id ASC`
	return r.list(ctx, q, transactionID)
}

// ListForSubject returns the non-rejected reviews written about a user,
// newest first, as displayed on their public profile.
func (r *ReviewRepo) ListForSubject(ctx context.Context, subjectID uint64) ([]model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews
 WHERE subject_id = ? AND status <> 'REJECTED' ORDER BY id DESC`
	return r.list(ctx, q, subjectID)
}

// ListReported returns reviews awaiting admin moderation.
func (r *ReviewRepo) ListReported(ctx context.Context) ([]model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE status = 'REPORTED' ORDER BY id ASC`
	return r.list(ctx, q)
}

// SetStatus moves a review to the given moderation status.  Report uses
// it with REPORTED; admins resolve with APPROVED or REJECTED.
func (r *ReviewRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reviews SET status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// AverageForSubject returns the mean rating over non-rejected reviews of
// a user and how many there are.  Zero reviews yield (0, 0, nil).
func (r *ReviewRepo) AverageForSubject(ctx context.Context, subjectID uint64) (float64, int64, error) {
	const q = `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews
 WHERE subject_id = ? AND status <> 'REJECTED'`
	var avg float64
	var n int64
	err := r.db.QueryRowContext(ctx, q, subjectID).Scan(&avg, &n)
	return avg, n, err
}

func (r *ReviewRepo) list(ctx context.Context, q string, args ...any) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
