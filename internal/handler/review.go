package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saveplate/marketplace/internal/model"
	"github.com/saveplate/marketplace/internal/repository"
)

// ReviewHandler serves post-completion reviews and their moderation.
// Writing a review is a one-way transition: once a non-rejected review
// by the author exists for a transaction, further submissions conflict.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Txs     *repository.TransactionRepo
}

func NewReviewHandler(r *repository.ReviewRepo, t *repository.TransactionRepo) *ReviewHandler {
	if r == nil || t == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: r, Txs: t}
}

// Create handles POST /api/v1/transactions/:id/reviews.  Only a party
// of a COMPLETED transaction may review, and the subject is always the
// other party.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	txID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}
	var body struct {
		Rating  uint8  `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Rating < 1 || body.Rating > 5 {
		return validationError(c, map[string]string{"rating": "rating must be between 1 and 5"})
	}

	ctx := c.Request().Context()
	rec, err := h.Txs.GetByID(ctx, txID)
	if err != nil {
		if err == repository.ErrTransactionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load transaction failed"})
	}
	if userID != rec.BuyerID && userID != rec.SellerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if rec.Status != model.TxCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "transaction is not completed"})
	}
	subject := rec.SellerID
	if userID == rec.SellerID {
		subject = rec.BuyerID
	}
	rv := model.Review{
		TransactionID: rec.ID,
		AuthorID:      userID,
		SubjectID:     subject,
		Rating:        body.Rating,
		Comment:       strings.TrimSpace(body.Comment),
	}
	if err := h.Reviews.Create(ctx, &rv); err != nil {
		if err == repository.ErrAlreadyReviewed {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already reviewed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
	}
	return c.JSON(http.StatusCreated, reviewJSON(&rv))
}

// Report handles POST /api/v1/reviews/:id/report.  Only the review's
// subject may flag it; the review then waits for admin moderation.
func (h *ReviewHandler) Report(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	ctx := c.Request().Context()
	rv, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load review failed"})
	}
	if rv.SubjectID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if rv.Status == model.ReviewRejected {
		return c.JSON(http.StatusConflict, echo.Map{"error": "review already rejected"})
	}
	if err := h.Reviews.SetStatus(ctx, id, model.ReviewReported); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListForUser handles GET /api/v1/users/:id/reviews: the non-rejected
// reviews written about a user plus their average rating.
func (h *ReviewHandler) ListForUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	items, err := h.Reviews.ListForSubject(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reviews failed"})
	}
	avg, count, err := h.Reviews.AverageForSubject(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "aggregate reviews failed"})
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, reviewJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "average": avg, "count": count})
}

// ListReported handles GET /api/v1/admin/reviews/reported (admin only).
func (h *ReviewHandler) ListReported(c echo.Context) error {
	items, err := h.Reviews.ListReported(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reported failed"})
	}
	out := make([]echo.Map, 0, len(items))
	for i := range items {
		out = append(out, reviewJSON(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Moderate handles POST /api/v1/admin/reviews/:id/moderate (admin only).
// Body: {"approve": true|false}.
func (h *ReviewHandler) Moderate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var body struct {
		Approve bool `json:"approve"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := model.ReviewRejected
	if body.Approve {
		status = model.ReviewApproved
	}
	if err := h.Reviews.SetStatus(c.Request().Context(), id, status); err != nil {
		if err == repository.ErrReviewNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "moderate failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func reviewJSON(rv *model.Review) echo.Map {
	return echo.Map{
		"id":             rv.ID,
		"transaction_id": rv.TransactionID,
		"author_id":      rv.AuthorID,
		"subject_id":     rv.SubjectID,
		"rating":         rv.Rating,
		"comment":        rv.Comment,
		"status":         rv.Status,
		"created_at":     rv.CreatedAt.UTC().Format(time.RFC3339),
	}
}
