package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saveplate/marketplace/internal/model"
	"github.com/saveplate/marketplace/internal/repository"
)

// GamificationHandler exposes the read side of badges and credits.
// All awarding happens in the queue consumer; these endpoints only
// report what a user has earned.
type GamificationHandler struct {
	Gamif   *repository.GamificationRepo
	Txs     *repository.TransactionRepo
	Reviews *repository.ReviewRepo
}

func NewGamificationHandler(g *repository.GamificationRepo, t *repository.TransactionRepo, r *repository.ReviewRepo) *GamificationHandler {
	if g == nil || t == nil || r == nil {
		panic("nil repository passed to NewGamificationHandler")
	}
	return &GamificationHandler{Gamif: g, Txs: t, Reviews: r}
}

// Badges handles GET /api/v1/users/:id/badges.
func (h *GamificationHandler) Badges(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	badges, err := h.Gamif.ListBadges(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list badges failed"})
	}
	out := make([]echo.Map, 0, len(badges))
	for i := range badges {
		out = append(out, badgeJSON(&badges[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Progress handles GET /api/v1/users/:id/progress: completed-deal
// count, badge count, credit balance and average rating in one payload
// so a profile page needs a single request.
func (h *GamificationHandler) Progress(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	completed, err := h.Txs.CountCompletedByUser(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count deals failed"})
	}
	badges, err := h.Gamif.ListBadges(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list badges failed"})
	}
	balance, err := h.Gamif.CreditBalance(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "credit balance failed"})
	}
	avg, reviews, err := h.Reviews.AverageForSubject(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "aggregate reviews failed"})
	}
	codes := make([]string, 0, len(badges))
	for i := range badges {
		codes = append(codes, badges[i].Code)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"completed_deals": completed,
		"badges":          codes,
		"credit_balance":  balance,
		"average_rating":  avg,
		"review_count":    reviews,
	})
}

// Deals handles GET /api/v1/users/me/deals: the caller's transaction
// history across both roles, newest first.
func (h *GamificationHandler) Deals(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Txs.ListByUser(c.Request().Context(), userID, 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list deals failed"})
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, transactionJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Credits handles GET /api/v1/users/me/credits for the caller.
func (h *GamificationHandler) Credits(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	balance, err := h.Gamif.CreditBalance(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "credit balance failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}

// CreditHistory handles GET /api/v1/users/me/credits/history.
func (h *GamificationHandler) CreditHistory(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.Gamif.ListCreditHistory(c.Request().Context(), userID, 100)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "credit history failed"})
	}
	out := make([]echo.Map, 0, len(entries))
	for i := range entries {
		out = append(out, echo.Map{
			"id":         entries[i].ID,
			"amount":     entries[i].Amount,
			"reason":     entries[i].Reason,
			"created_at": entries[i].CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func badgeJSON(b *model.Badge) echo.Map {
	return echo.Map{
		"id":         b.ID,
		"code":       b.Code,
		"awarded_at": b.AwardedAt.UTC().Format(time.RFC3339),
	}
}
