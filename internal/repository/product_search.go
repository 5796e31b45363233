package repository

import (
	"context"
	"strings"
)

// ProductSearchQuery defines filters & pagination for browsing listings.
// Lat/Lng/RadiusKm enable nearby search; they must be supplied together.
type ProductSearchQuery struct {
	Text     string  // matches title or description, case-insensitive
	FreeOnly bool    // only zero-price listings
	Lat      float64 // viewer latitude
	Lng      float64 // viewer longitude
	RadiusKm float64 // search radius in kilometres; 0 disables geo filtering
	Page     int
	PageSize int
}

// BrowseRow is the public shape of a listing in browse results.  Prices
// are duplicated in cents and currency units the way clients render them.
type BrowseRow struct {
	ID            uint64   `json:"id"`
	SellerID      uint64   `json:"seller_id"`
	SellerName    string   `json:"seller_name"`
	Title         string   `json:"title"`
	PriceCents    uint32   `json:"price_cents"`
	Price         float64  `json:"price"`
	Quantity      uint32   `json:"quantity"`
	ExpiresAt     string   `json:"expires_at"`
	PickupAddress string   `json:"pickup_address"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
}

// Browse returns ACTIVE, unexpired listings matching the query plus the
// total match count for pagination.  When a radius is given, rows are
// filtered and ordered by the haversine distance to the viewer;
// otherwise newest listings come first.
func (r *ProductRepo) Browse(ctx context.Context, q ProductSearchQuery) ([]BrowseRow, int64, error) {
	where := []string{"p.status = 'ACTIVE'", "p.expires_at > NOW()", "p.quantity > 0"}
	args := []any{}

	if q.Text != "" {
		where = append(where, "(LOWER(p.title) LIKE ? OR LOWER(p.description) LIKE ?)")
		pat := "%" + strings.ToLower(q.Text) + "%"
		args = append(args, pat, pat)
	}
	if q.FreeOnly {
		where = append(where, "p.price_cents = 0")
	}

	// Haversine distance in km, computed in SQL so the database can both
	// filter and order by it.
	distExpr := "NULL"
	geo := q.RadiusKm > 0
	if geo {
		distExpr = `(6371 * ACOS(LEAST(1.0,
 COS(RADIANS(?)) * COS(RADIANS(p.latitude)) * COS(RADIANS(p.longitude) - RADIANS(?)) +
 SIN(RADIANS(?)) * SIN(RADIANS(p.latitude)))))`
	}

	cond := strings.Join(where, " AND ")

	countQ := `SELECT COUNT(*) FROM products p WHERE ` + cond
	countArgs := append([]any{}, args...)
	if geo {
		countQ = `SELECT COUNT(*) FROM (SELECT ` + distExpr + ` AS distance_km FROM products p WHERE ` + cond + `) d WHERE d.distance_km <= ?`
		countArgs = append([]any{q.Lat, q.Lng, q.Lat}, countArgs...)
		countArgs = append(countArgs, q.RadiusKm)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	offset := (q.Page - 1) * q.PageSize

	sel := `SELECT p.id, p.seller_id, u.display_name, p.title, p.price_cents, p.quantity,
 DATE_FORMAT(p.expires_at, '%Y-%m-%dT%H:%i:%sZ'), p.pickup_address, p.latitude, p.longitude, ` + distExpr + ` AS distance_km
 FROM products p JOIN users u ON u.id = p.seller_id WHERE ` + cond
	selArgs := []any{}
	if geo {
		selArgs = append(selArgs, q.Lat, q.Lng, q.Lat)
	}
	selArgs = append(selArgs, args...)
	if geo {
		sel += ` HAVING distance_km <= ? ORDER BY distance_km ASC`
		selArgs = append(selArgs, q.RadiusKm)
	} else {
		sel += ` ORDER BY p.created_at DESC`
	}
	sel += ` LIMIT ? OFFSET ?`
	selArgs = append(selArgs, q.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, sel, selArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []BrowseRow{}
	for rows.Next() {
		var row BrowseRow
		var dist *float64
		if err := rows.Scan(&row.ID, &row.SellerID, &row.SellerName, &row.Title, &row.PriceCents,
			&row.Quantity, &row.ExpiresAt, &row.PickupAddress, &row.Latitude, &row.Longitude, &dist); err != nil {
			return nil, 0, err
		}
		row.Price = float64(row.PriceCents) / 100.0
		if geo {
			row.DistanceKm = dist
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}
