package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BrowseQuery narrows the public listing search.  Zero values mean
// "no filter"; geo filtering needs all three of Lat, Lng and RadiusKm.
type BrowseQuery struct {
	Text     string
	FreeOnly bool
	Lat      float64
	Lng      float64
	RadiusKm float64
	Page     int
	PageSize int
}

func (q BrowseQuery) values() url.Values {
	v := url.Values{}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if q.FreeOnly {
		v.Set("free", "true")
	}
	if q.RadiusKm > 0 {
		v.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
		v.Set("lng", strconv.FormatFloat(q.Lng, 'f', -1, 64))
		v.Set("radius_km", strconv.FormatFloat(q.RadiusKm, 'f', -1, 64))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// Browse lists active products matching the query.
func (c *Client) Browse(ctx context.Context, q BrowseQuery) ([]BrowseItem, int64, error) {
	var out struct {
		Items []BrowseItem `json:"items"`
		Total int64        `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/products", q.values(), nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

// ProductDetail fetches one listing with its transaction lineage and
// the lifecycle step computed for the caller.
func (c *Client) ProductDetail(ctx context.Context, productID uint64) (*ProductDetail, error) {
	var out ProductDetail
	if err := c.do(ctx, http.MethodGet, productPath(productID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentTransaction returns the lineage's last entry, or nil when the
// listing has never been reserved.
func (d *ProductDetail) CurrentTransaction() *Transaction {
	if len(d.Transactions) == 0 {
		return nil
	}
	return &d.Transactions[len(d.Transactions)-1]
}

// Offers reports whether the computed step includes the given action.
func (s Step) Offers(action string) bool {
	for _, a := range s.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// ProductInput is the create/update payload for a listing.
type ProductInput struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PriceCents    uint32    `json:"price_cents"`
	Quantity      uint32    `json:"quantity"`
	ExpiresAt     time.Time `json:"expires_at"`
	PickupAddress string    `json:"pickup_address"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodPost, "/api/v1/products", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, productID uint64, in ProductInput) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodPut, productPath(productID), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, productID uint64) error {
	return c.do(ctx, http.MethodDelete, productPath(productID), nil, nil, nil)
}

// Listing is one row of the seller dashboard: the product plus its
// current transaction when one exists.
type Listing struct {
	Product
	Transaction *Transaction `json:"transaction,omitempty"`
}

// MyListings returns the caller's own products regardless of status.
func (c *Client) MyListings(ctx context.Context) ([]Listing, error) {
	var out struct {
		Items []Listing `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/mine", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func productPath(id uint64) string {
	return fmt.Sprintf("/api/v1/products/%d", id)
}
