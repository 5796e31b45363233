package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saveplate/marketplace/internal/model"
	"github.com/saveplate/marketplace/internal/repository"
)

// ConversationHandler serves the messaging endpoints.  Message pages are
// windows over newest-first ordering so polling clients re-fetch offset
// 0 and paginate backwards with growing offsets; the repository returns
// each window in ascending timestamp order ready for rendering.
type ConversationHandler struct {
	Convs    *repository.ConversationRepo
	Msgs     *repository.MessageRepo
	Products *repository.ProductRepo
}

// NewConversationHandler constructs a ConversationHandler with the
// provided repositories.  All dependencies must be non-nil.
func NewConversationHandler(cv *repository.ConversationRepo, m *repository.MessageRepo, p *repository.ProductRepo) *ConversationHandler {
	if cv == nil || m == nil || p == nil {
		panic("nil repository passed to NewConversationHandler")
	}
	return &ConversationHandler{Convs: cv, Msgs: m, Products: p}
}

// List handles GET /api/v1/conversations.
func (h *ConversationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Convs.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list conversations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/v1/conversations.  Body: {"product_id": N}.
// The caller becomes the buyer side; contacting your own listing is
// rejected.  Reopening an existing thread returns it unchanged.
func (h *ConversationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ProductID uint64 `json:"product_id"`
	}
	if err := c.Bind(&body); err != nil || body.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}
	ctx := c.Request().Context()
	p, err := h.Products.GetByID(ctx, body.ProductID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load product failed"})
	}
	if p.SellerID == userID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot message your own listing"})
	}
	cv, err := h.Convs.GetOrCreate(ctx, p.ID, userID, p.SellerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create conversation failed"})
	}
	return c.JSON(http.StatusCreated, conversationJSON(&cv))
}

// Messages handles GET /api/v1/conversations/:id/messages?offset=&limit=.
// Offset 0 is the most recent page.  The response reports has_more so
// clients know when backward pagination is exhausted, and fetching
// offset 0 marks the other party's messages read.
func (h *ConversationHandler) Messages(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Convs.GetForUser(ctx, id, userID); err != nil {
		if err == repository.ErrConversationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load conversation failed"})
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	page, err := h.Msgs.ListPage(ctx, id, offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load messages failed"})
	}
	if offset == 0 {
		// Reading the latest page counts as reading the thread.
		_ = h.Msgs.MarkRead(ctx, id, userID)
	}
	out := make([]echo.Map, 0, len(page))
	for i := range page {
		out = append(out, messageJSON(&page[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":    out,
		"has_more": len(page) == limit,
	})
}

// Send handles POST /api/v1/conversations/:id/messages.
func (h *ConversationHandler) Send(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}
	var body struct {
		Body string `json:"body"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Body) == "" {
		return validationError(c, map[string]string{"body": "message body is required"})
	}
	ctx := c.Request().Context()
	if _, err := h.Convs.GetForUser(ctx, id, userID); err != nil {
		if err == repository.ErrConversationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load conversation failed"})
	}
	m := model.Message{ConversationID: id, SenderID: userID, Body: strings.TrimSpace(body.Body)}
	if err := h.Msgs.Create(ctx, &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send message failed"})
	}
	_ = h.Convs.Touch(ctx, id)
	return c.JSON(http.StatusCreated, messageJSON(&m))
}

// MarkRead handles POST /api/v1/conversations/:id/read.
func (h *ConversationHandler) MarkRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Convs.GetForUser(ctx, id, userID); err != nil {
		if err == repository.ErrConversationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load conversation failed"})
	}
	if err := h.Msgs.MarkRead(ctx, id, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark read failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// UnreadCount handles GET /api/v1/conversations/unread-count, polled by
// clients on their own interval for the inbox badge.
func (h *ConversationHandler) UnreadCount(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	n, err := h.Msgs.UnreadCountForUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

func conversationJSON(cv *model.Conversation) echo.Map {
	return echo.Map{
		"id":         cv.ID,
		"product_id": cv.ProductID,
		"buyer_id":   cv.BuyerID,
		"seller_id":  cv.SellerID,
		"created_at": cv.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at": cv.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func messageJSON(m *model.Message) echo.Map {
	out := echo.Map{
		"id":              m.ID,
		"conversation_id": m.ConversationID,
		"sender_id":       m.SenderID,
		"body":            m.Body,
		"created_at":      m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.ReadAt != nil {
		out["read_at"] = m.ReadAt.UTC().Format(time.RFC3339)
	}
	return out
}
