package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saveplate/marketplace/internal/lifecycle"
	"github.com/saveplate/marketplace/internal/model"
	"github.com/saveplate/marketplace/internal/repository"
)

// ProductHandler groups the repositories needed for listing CRUD and
// the public browse/detail endpoints.  All mutating methods assume JWT
// middleware already ran; Browse is public and sits behind the response
// cache instead.
type ProductHandler struct {
	Products *repository.ProductRepo
	Txs      *repository.TransactionRepo
	Reviews  *repository.ReviewRepo
}

// NewProductHandler constructs a ProductHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewProductHandler(p *repository.ProductRepo, t *repository.TransactionRepo, r *repository.ReviewRepo) *ProductHandler {
	if p == nil || t == nil || r == nil {
		panic("nil repository passed to NewProductHandler")
	}
	return &ProductHandler{Products: p, Txs: t, Reviews: r}
}

type productReq struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	PriceCents    uint32  `json:"price_cents"`
	Quantity      uint32  `json:"quantity"`
	ExpiresAt     string  `json:"expires_at"` // RFC 3339
	PickupAddress string  `json:"pickup_address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

// validate checks the request and returns a field-level errors map in
// the shape clients flatten into toasts.
func (r *productReq) validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(r.Title) == "" {
		fields["title"] = "title is required"
	}
	if r.Quantity == 0 {
		fields["quantity"] = "quantity must be at least 1"
	}
	if _, err := time.Parse(time.RFC3339, r.ExpiresAt); err != nil {
		fields["expires_at"] = "expires_at must be RFC 3339"
	}
	if strings.TrimSpace(r.PickupAddress) == "" {
		fields["pickup_address"] = "pickup address is required"
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		fields["latitude"] = "latitude out of range"
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		fields["longitude"] = "longitude out of range"
	}
	return fields
}

// Create handles POST /api/v1/products.
func (h *ProductHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if fields := req.validate(); len(fields) > 0 {
		return validationError(c, fields)
	}
	expires, _ := time.Parse(time.RFC3339, req.ExpiresAt)
	p := model.Product{
		SellerID:      userID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		Quantity:      req.Quantity,
		ExpiresAt:     expires.UTC(),
		PickupAddress: strings.TrimSpace(req.PickupAddress),
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
	if err := h.Products.Create(c.Request().Context(), &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	return c.JSON(http.StatusCreated, productJSON(&p))
}

// Update handles PUT /api/v1/products/:id.
func (h *ProductHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if fields := req.validate(); len(fields) > 0 {
		return validationError(c, fields)
	}
	expires, _ := time.Parse(time.RFC3339, req.ExpiresAt)
	p := model.Product{
		ID:            id,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		Quantity:      req.Quantity,
		ExpiresAt:     expires.UTC(),
		PickupAddress: strings.TrimSpace(req.PickupAddress),
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
	switch err := h.Products.Update(c.Request().Context(), userID, &p); err {
	case nil:
	case repository.ErrProductNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "product has an active reservation"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
	}
	got, err := h.Products.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reload product failed"})
	}
	return c.JSON(http.StatusOK, productJSON(&got))
}

// Delete handles DELETE /api/v1/products/:id.
func (h *ProductHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	switch err := h.Products.Delete(c.Request().Context(), userID, id); err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case repository.ErrProductNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "product has an active reservation"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete product failed"})
	}
}

// Browse handles GET /api/v1/products.  Query parameters: q, free,
// lat/lng/radius_km, page, page_size.  The route is public and cached.
func (h *ProductHandler) Browse(c echo.Context) error {
	q := repository.ProductSearchQuery{
		Text:     strings.TrimSpace(c.QueryParam("q")),
		FreeOnly: c.QueryParam("free") == "true" || c.QueryParam("free") == "1",
	}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	radius, radErr := strconv.ParseFloat(c.QueryParam("radius_km"), 64)
	if latErr == nil && lngErr == nil && radErr == nil && radius > 0 {
		q.Lat, q.Lng, q.RadiusKm = lat, lng, radius
	}
	rows, total, err := h.Products.Browse(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "browse failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rows, "total": total})
}

// MyListings handles GET /api/v1/products/mine.  Each listing carries
// its current transaction (when one exists) so a seller's dashboard can
// show which listings await confirmation or pickup.
func (h *ProductHandler) MyListings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	items, err := h.Products.ListBySeller(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list products failed"})
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		row := productJSON(&items[i])
		cur, err := h.Txs.LatestByProduct(ctx, items[i].ID)
		switch err {
		case nil:
			row["transaction"] = transactionJSON(&cur)
		case repository.ErrTransactionNotFound:
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load transactions failed"})
		}
		out = append(out, row)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Detail handles GET /api/v1/products/:id.  The response embeds the
// transaction lineage (clients read the last entry as the current
// transaction), the reviews of that transaction, and the lifecycle step
// for the viewer so the UI renders exactly one affordance.
func (h *ProductHandler) Detail(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx := c.Request().Context()
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load product failed"})
	}

	lineage, err := h.Txs.ListByProduct(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load transactions failed"})
	}
	var current *model.Transaction
	if len(lineage) > 0 {
		current = &lineage[len(lineage)-1]
	}

	hasReviewed := false
	var reviews []model.Review
	if current != nil && current.Status == model.TxCompleted {
		hasReviewed, err = h.Reviews.HasReviewed(ctx, current.ID, userID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
		}
		reviews, err = h.Reviews.ListByTransaction(ctx, current.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
		}
	}

	step := lifecycle.Evaluate(lifecycle.ViewFor(userID, &p, current, hasReviewed))
	actions := step.Actions
	if actions == nil {
		actions = []lifecycle.Action{}
	}

	txs := make([]echo.Map, 0, len(lineage))
	for i := range lineage {
		txs = append(txs, transactionJSON(&lineage[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"product":      productJSON(&p),
		"transactions": txs,
		"reviews":      reviews,
		"step": echo.Map{
			"stage":   step.Stage,
			"actions": actions,
		},
		"has_reviewed": hasReviewed,
	})
}

// productJSON renders a product for API responses.
func productJSON(p *model.Product) echo.Map {
	return echo.Map{
		"id":             p.ID,
		"seller_id":      p.SellerID,
		"title":          p.Title,
		"description":    p.Description,
		"price_cents":    p.PriceCents,
		"price":          float64(p.PriceCents) / 100.0,
		"quantity":       p.Quantity,
		"expires_at":     p.ExpiresAt.UTC().Format(time.RFC3339),
		"pickup_address": p.PickupAddress,
		"latitude":       p.Latitude,
		"longitude":      p.Longitude,
		"status":         p.Status,
		"created_at":     p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// transactionJSON renders a transaction for API responses.
func transactionJSON(t *model.Transaction) echo.Map {
	m := echo.Map{
		"id":                t.ID,
		"product_id":        t.ProductID,
		"buyer_id":          t.BuyerID,
		"seller_id":         t.SellerID,
		"status":            t.Status,
		"amount_cents":      t.AmountCents,
		"service_fee_cents": t.ServiceFeeCents,
		"created_at":        t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.PaymentRef != nil {
		m["payment_ref"] = *t.PaymentRef
	}
	if t.PaidAt != nil {
		m["paid_at"] = t.PaidAt.UTC().Format(time.RFC3339)
	}
	return m
}
