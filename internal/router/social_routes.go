package router

import (
	"github.com/labstack/echo/v4"

	"github.com/saveplate/marketplace/internal/handler"
	"github.com/saveplate/marketplace/internal/middleware"
	"github.com/saveplate/marketplace/internal/model"
)

// RegisterSocial wires conversations, notifications, reviews and the
// gamification read endpoints.  All of these require a session, so they
// attach to the protected group returned by RegisterAuth.
func RegisterSocial(auth *echo.Group, cv *handler.ConversationHandler, n *handler.NotificationHandler, rv *handler.ReviewHandler, gm *handler.GamificationHandler) {
	// Conversations and messages.  Unread-count sits on its own route so
	// the client can poll it cheaply without loading conversation lists.
	auth.GET("/conversations", cv.List)
	auth.POST("/conversations", cv.Create)
	auth.GET("/conversations/:id/messages", cv.Messages)
	auth.POST("/conversations/:id/messages", cv.Send)
	auth.POST("/conversations/:id/read", cv.MarkRead)
	auth.GET("/messages/unread-count", cv.UnreadCount)

	auth.GET("/notifications", n.List)
	auth.POST("/notifications/:id/read", n.MarkRead)
	auth.POST("/notifications/read-all", n.MarkAllRead)

	auth.POST("/transactions/:id/reviews", rv.Create)
	auth.POST("/reviews/:id/report", rv.Report)
	auth.GET("/users/:id/reviews", rv.ListForUser)

	auth.GET("/users/:id/badges", gm.Badges)
	auth.GET("/users/:id/progress", gm.Progress)
	auth.GET("/users/me/credits", gm.Credits)
	auth.GET("/users/me/credits/history", gm.CreditHistory)
	auth.GET("/users/me/deals", gm.Deals)

	// Review moderation is admin-only.
	admin := auth.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/reviews/reported", rv.ListReported)
	admin.POST("/reviews/:id/moderate", rv.Moderate)
}
