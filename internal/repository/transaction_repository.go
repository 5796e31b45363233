package repository

import (
	"context"
	"database/sql"

	"github.com/saveplate/marketplace/internal/model"
)

// TransactionRepo persists reservation-to-completion records.  Status
// transitions happen inside SQL transactions shared with ProductRepo so
// that a product's status and its current transaction never diverge.
// The latest row for a product is the authoritative current transaction.
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo returns a new TransactionRepo bound to the given database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const txColumns = `id, product_id, buyer_id, seller_id, status, amount_cents,
 service_fee_cents, payment_ref, paid_at, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (model.Transaction, error) {
	var t model.Transaction
	var ref sql.NullString
	var paidAt sql.NullTime
	err := row.Scan(&t.ID, &t.ProductID, &t.BuyerID, &t.SellerID, &t.Status, &t.AmountCents,
		&t.ServiceFeeCents, &ref, &paidAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	if ref.Valid {
		v := ref.String
		t.PaymentRef = &v
	}
	if paidAt.Valid {
		v := paidAt.Time
		t.PaidAt = &v
	}
	return t, nil
}

// CreateTx inserts a new RESERVED transaction within the scope of an
// existing SQL transaction and populates the generated ID plus defaults
// on the provided record.  The caller must commit or rollback.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	const q = `INSERT INTO transactions
 (product_id, buyer_id, seller_id, status, amount_cents, service_fee_cents)
 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		t.ProductID, t.BuyerID, t.SellerID, model.TxReserved, t.AmountCents, t.ServiceFeeCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT ` + txColumns + ` FROM transactions WHERE id = ?`
	got, err := scanTransaction(tx.QueryRowContext(ctx, sel, t.ID))
	if err != nil {
		return err
	}
	*t = got
	return nil
}

// GetByID fetches one transaction or ErrTransactionNotFound.
func (r *TransactionRepo) GetByID(ctx context.Context, id uint64) (model.Transaction, error) {
	const q = `SELECT ` + txColumns + ` FROM transactions WHERE id = ?`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Transaction{}, ErrTransactionNotFound
	}
	return t, err
}

// LatestByProduct returns the most recent transaction of a product, or
// ErrTransactionNotFound when the product has no lineage at all.
func (r *TransactionRepo) LatestByProduct(ctx context.Context, productID uint64) (model.Transaction, error) {
	const q = `SELECT ` + txColumns + ` FROM transactions WHERE product_id = ? ORDER BY id DESC LIMIT 1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, q, productID))
	if err == sql.ErrNoRows {
		return model.Transaction{}, ErrTransactionNotFound
	}
	return t, err
}

// ListByProduct returns the full lineage of a product, oldest first.
// Product detail responses embed it so clients can read the last entry
// as the current transaction.
func (r *TransactionRepo) ListByProduct(ctx context.Context, productID uint64) ([]model.Transaction, error) {
	const q = `SELECT ` + txColumns + ` FROM transactions WHERE product_id = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateStatusTx moves a transaction to the given status inside an
// existing SQL transaction.
func (r *TransactionRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE transactions SET status=? WHERE id=?`, status, id)
	return err
}

// MarkPaidTx records a satisfied payment: provider reference, paid_at
// and the PENDING status in one statement.
func (r *TransactionRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64, paymentRef string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status=?, payment_ref=?, paid_at=NOW() WHERE id=?`,
		model.TxPending, paymentRef, id)
	return err
}

// CountCompletedByUser counts completed transactions where the user took
// part on either side.  The badge rules in the queue consumer rely on it.
func (r *TransactionRepo) CountCompletedByUser(ctx context.Context, userID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM transactions WHERE status = 'COMPLETED' AND (buyer_id = ? OR seller_id = ?)`
	var n int64
	err := r.db.QueryRowContext(ctx, q, userID, userID).Scan(&n)
	return n, err
}

// ListByUser returns the transactions a user took part in, newest first,
// for the gamification history endpoint.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Transaction, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	const q = `SELECT ` + txColumns + ` FROM transactions
 WHERE buyer_id = ? OR seller_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
