package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/saveplate/marketplace/internal/model"
)

// ProductRepo provides CRUD operations for surplus-food listings.  All
// timestamp fields are assumed to be stored in UTC.  Ownership checks
// live here so that handlers can map ErrForbidden straight to 403.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning several repositories.
func (r *ProductRepo) DB() *sql.DB { return r.db }

const productColumns = `id, seller_id, title, description, price_cents, quantity,
 expires_at, pickup_address, latitude, longitude, status, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Title, &p.Description, &p.PriceCents, &p.Quantity,
		&p.ExpiresAt, &p.PickupAddress, &p.Latitude, &p.Longitude, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a new listing in ACTIVE state and populates the
// generated ID and timestamps on the provided record.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const q = `INSERT INTO products
 (seller_id, title, description, price_cents, quantity, expires_at, pickup_address, latitude, longitude, status)
 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.SellerID, p.Title, p.Description, p.PriceCents, p.Quantity,
		p.ExpiresAt, p.PickupAddress, p.Latitude, p.Longitude, model.ProductActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	got, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = got
	return nil
}

// GetByID fetches one product or ErrProductNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Product{}, ErrProductNotFound
	}
	return p, err
}

// Update rewrites the editable fields of a listing.  Only the seller may
// update, and only while no buyer is attached (status ACTIVE or EXPIRED).
func (r *ProductRepo) Update(ctx context.Context, sellerID uint64, p *model.Product) error {
	cur, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if cur.SellerID != sellerID {
		return ErrForbidden
	}
	if cur.Status != model.ProductActive && cur.Status != model.ProductExpired {
		return ErrConflict
	}
	const q = `UPDATE products SET title=?, description=?, price_cents=?, quantity=?,
 expires_at=?, pickup_address=?, latitude=?, longitude=?, status=? WHERE id=?`
	status := model.ProductActive
	if time.Now().UTC().After(p.ExpiresAt) {
		status = model.ProductExpired
	}
	_, err = r.db.ExecContext(ctx, q,
		p.Title, p.Description, p.PriceCents, p.Quantity,
		p.ExpiresAt, p.PickupAddress, p.Latitude, p.Longitude, status, p.ID)
	return err
}

// Delete removes a listing.  Only the seller may delete, and a listing
// with an active transaction cannot be removed (ErrConflict).
func (r *ProductRepo) Delete(ctx context.Context, sellerID, productID uint64) error {
	cur, err := r.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if cur.SellerID != sellerID {
		return ErrForbidden
	}
	if cur.Status == model.ProductReserved {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, productID)
	return err
}

// UpdateStatusTx flips a product's status inside an existing transaction.
// Lifecycle handlers use it to keep product and transaction state in
// lockstep within one commit.
func (r *ProductRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, productID uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE products SET status=? WHERE id=?`, status, productID)
	return err
}

// LockForUpdateTx reads a product row with FOR UPDATE so concurrent
// reservation attempts serialize on it.
func (r *ProductRepo) LockForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = ? FOR UPDATE`
	p, err := scanProduct(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Product{}, ErrProductNotFound
	}
	return p, err
}

// ListBySeller returns all listings of one seller, newest first.
func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE seller_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
