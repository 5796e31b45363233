package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/saveplate/marketplace/internal/handler"    // import the handlers that implement business logic
	"github.com/saveplate/marketplace/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/saveplate/marketplace/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under
// /api/v1/auth, while protected endpoints live under /api/v1.  It returns
// the protected group so the other Register* functions can hang their
// routes off it without re-applying the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) *echo.Group {
	// Session bootstrap endpoints.  None of these carry a valid access
	// token yet, so they live outside the JWT middleware.
	g := e.Group("/api/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only mints a new
	// access token and leaves the stored refresh token untouched.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a bearer token (revoke every session) or a
	// JSON body with the refresh token to revoke one session, so it also
	// stays outside the protected group.
	g.POST("/logout", a.Logout)

	// Everything below requires a valid access token.  RequireRole rejects
	// requests whose JWT carries a missing or unknown role claim.
	auth := e.Group("/api/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	auth.GET("/me", a.Me)
	return auth
}
