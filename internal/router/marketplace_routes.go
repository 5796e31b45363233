package router

import (
	"github.com/labstack/echo/v4"

	"github.com/saveplate/marketplace/internal/handler"
)

// RegisterMarketplace wires the listing and payment endpoints.  Browse
// is public so guests can explore the map before signing up; the cache
// middleware (when configured) is applied to the browse route only,
// since detail responses embed viewer-specific lifecycle state and
// must never be shared between users.
func RegisterMarketplace(e *echo.Echo, auth *echo.Group, p *handler.ProductHandler, pay *handler.PaymentHandler, browseCache ...echo.MiddlewareFunc) {
	e.GET("/api/v1/products", p.Browse, browseCache...)
	auth.GET("/products/:id", p.Detail)

	// Listing management for the authenticated seller.
	auth.POST("/products", p.Create)
	auth.PUT("/products/:id", p.Update)
	auth.DELETE("/products/:id", p.Delete)
	auth.GET("/products/mine", p.MyListings)

	// The transaction lifecycle.  Reserve addresses the product; every
	// later step addresses the transaction it created.
	auth.POST("/payments/reserve/:productID", pay.Reserve)
	auth.POST("/payments/reservations/:id/confirm", pay.Confirm)
	auth.POST("/payments/reservations/:id/cancel", pay.Cancel)
	auth.POST("/payments/transactions/:id/pay", pay.Pay)
	auth.POST("/payments/transactions/:id/generate-qr", pay.GenerateQR)
	auth.POST("/payments/transactions/:id/complete-by-qr", pay.CompleteByQR)
}
