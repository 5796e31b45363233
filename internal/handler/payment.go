package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/saveplate/marketplace/internal/config"
	"github.com/saveplate/marketplace/internal/lifecycle"
	"github.com/saveplate/marketplace/internal/model"
	"github.com/saveplate/marketplace/internal/queue"
	"github.com/saveplate/marketplace/internal/repository"
	queue_publisher "github.com/saveplate/marketplace/internal/service"
	"github.com/saveplate/marketplace/internal/utils"
)

// PaymentHandler owns every transition of the reservation/payment/pickup
// lifecycle.  Each transition is validated against the lifecycle table
// for the requesting viewer, runs inside one SQL transaction that keeps
// the product and transaction rows in lockstep, and publishes a
// best-effort broker event after commit.  The server never trusts a
// client-supplied state: the step is recomputed from the database on
// every request.
type PaymentHandler struct {
	Cfg      config.Config
	Products *repository.ProductRepo
	Txs      *repository.TransactionRepo
	Users    *repository.UserRepo
	QR       *repository.QRStore
}

// NewPaymentHandler constructs a PaymentHandler.  All dependencies but
// QR must be non-nil; a nil QR store disables the pickup endpoints with
// 503 instead of panicking.
func NewPaymentHandler(cfg config.Config, p *repository.ProductRepo, t *repository.TransactionRepo, u *repository.UserRepo, qr *repository.QRStore) *PaymentHandler {
	if p == nil || t == nil || u == nil {
		panic("nil repository passed to NewPaymentHandler")
	}
	return &PaymentHandler{Cfg: cfg, Products: p, Txs: t, Users: u, QR: qr}
}

// Reserve handles POST /api/v1/payments/reserve/:productID.  It creates
// a RESERVED transaction for the caller and flips the product to
// RESERVED in the same commit.  The product row is locked FOR UPDATE so
// two concurrent buyers cannot both reserve the last portion.
func (h *PaymentHandler) Reserve(c echo.Context) error {
	buyerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, ok := pathID(c, "productID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Products.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p, err := h.Products.LockForUpdateTx(ctx, tx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load product failed"})
	}
	if p.SellerID == buyerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot reserve your own listing"})
	}
	if p.Status != model.ProductActive || time.Now().UTC().After(p.ExpiresAt) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "product is not reservable"})
	}

	fee := uint32(uint64(p.PriceCents) * uint64(h.Cfg.ServiceFeePct) / 100)
	rec := model.Transaction{
		ProductID:       p.ID,
		BuyerID:         buyerID,
		SellerID:        p.SellerID,
		AmountCents:     p.PriceCents,
		ServiceFeeCents: fee,
	}
	if err := h.Txs.CreateTx(ctx, tx, &rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}
	if err := h.Products.UpdateStatusTx(ctx, tx, p.ID, model.ProductReserved); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	h.publish(ctx, queue.KindReserved, &rec, &p, 0)
	return c.JSON(http.StatusCreated, transactionJSON(&rec))
}

// Confirm handles POST /api/v1/payments/reservations/:id/confirm.  Only
// the seller of a RESERVED transaction may confirm.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rec, p, errResp := h.loadPair(c, userID)
	if errResp != nil {
		return errResp(c)
	}
	step := h.stepFor(userID, &p, &rec)
	if !step.Allows(lifecycle.ActionConfirm) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "confirm not allowed in current state"})
	}

	ctx := c.Request().Context()
	if err := h.transition(ctx, &rec, model.TxConfirmed, p.Status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	h.publish(ctx, queue.KindConfirmed, &rec, &p, 0)
	return c.JSON(http.StatusOK, transactionJSON(&rec))
}

// Cancel handles POST /api/v1/payments/reservations/:id/cancel.  Either
// party may cancel while the lifecycle table offers them the action;
// the product becomes reservable again in the same commit.
func (h *PaymentHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rec, p, errResp := h.loadPair(c, userID)
	if errResp != nil {
		return errResp(c)
	}
	step := h.stepFor(userID, &p, &rec)
	if !step.Allows(lifecycle.ActionCancel) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancel not allowed in current state"})
	}

	ctx := c.Request().Context()
	if err := h.transition(ctx, &rec, model.TxCancelled, model.ProductActive); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	h.publish(ctx, queue.KindCancelled, &rec, &p, userID)
	return c.JSON(http.StatusOK, transactionJSON(&rec))
}

// Pay handles POST /api/v1/payments/transactions/:id/pay.  It returns
// the externally generated checkout link for a CONFIRMED paid item and
// moves the transaction to PENDING with the provider reference
// recorded.  Item price and service fee are both carried in the link.
func (h *PaymentHandler) Pay(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rec, p, errResp := h.loadPair(c, userID)
	if errResp != nil {
		return errResp(c)
	}
	step := h.stepFor(userID, &p, &rec)
	if !step.Allows(lifecycle.ActionPay) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "pay not allowed in current state"})
	}

	ctx := c.Request().Context()
	ref := uuid.NewString()
	total := uint64(rec.AmountCents) + uint64(rec.ServiceFeeCents)
	paymentURL := fmt.Sprintf("%s/checkout/%s?amount_cents=%d", h.Cfg.PaymentBaseURL, ref, total)

	tx, err := h.Products.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Txs.MarkPaidTx(ctx, tx, rec.ID, ref); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	rec.Status = model.TxPending
	rec.PaymentRef = &ref
	return c.JSON(http.StatusOK, echo.Map{
		"payment_url": paymentURL,
		"transaction": transactionJSON(&rec),
	})
}

// GenerateQR handles POST /api/v1/payments/transactions/:id/generate-qr.
// The buyer receives an opaque single-use token rendered as a URL under
// this service's public origin.  A CONFIRMED free item moves to PENDING
// here, since no payment step will ever do it.
func (h *PaymentHandler) GenerateQR(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rec, p, errResp := h.loadPair(c, userID)
	if errResp != nil {
		return errResp(c)
	}
	step := h.stepFor(userID, &p, &rec)
	if !step.Allows(lifecycle.ActionGenerateQR) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "qr not available in current state"})
	}

	ctx := c.Request().Context()
	if rec.Status == model.TxConfirmed {
		if err := h.transition(ctx, &rec, model.TxPending, p.Status); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update transaction failed"})
		}
	}
	token, err := h.QR.Issue(ctx, rec.ID)
	if err != nil {
		if err == repository.ErrQRUnavailable {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "qr store unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue qr failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"payload":    utils.BuildQRPayload(h.Cfg.PublicBaseURL, token),
		"expires_in": h.Cfg.QRTokenTTLMin * 60,
	})
}

// CompleteByQR handles POST /api/v1/payments/transactions/:id/complete-by-qr.
// The seller submits the raw scanned string.  Payloads outside this
// service's origin are rejected up front; a valid token must also
// resolve to the same transaction the seller is completing.
func (h *PaymentHandler) CompleteByQR(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rec, p, errResp := h.loadPair(c, userID)
	if errResp != nil {
		return errResp(c)
	}
	step := h.stepFor(userID, &p, &rec)
	if !step.Allows(lifecycle.ActionCompleteByQR) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "completion not allowed in current state"})
	}

	var body struct {
		Payload string `json:"payload"`
	}
	if err := c.Bind(&body); err != nil || body.Payload == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payload is required"})
	}
	token, ok := utils.ParseQRPayload(h.Cfg.PublicBaseURL, body.Payload)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unrecognized payload"})
	}

	ctx := c.Request().Context()
	txID, err := h.QR.Redeem(ctx, token)
	if err != nil {
		switch err {
		case repository.ErrQRNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "qr token expired or already used"})
		case repository.ErrQRUnavailable:
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "qr store unavailable"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "redeem qr failed"})
		}
	}
	if txID != rec.ID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "qr token belongs to another transaction"})
	}

	if err := h.transition(ctx, &rec, model.TxCompleted, model.ProductSold); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "complete failed"})
	}
	h.publish(ctx, queue.KindCompleted, &rec, &p, 0)
	return c.JSON(http.StatusOK, transactionJSON(&rec))
}

// ----- shared plumbing -----

// loadPair fetches the transaction at :id and its product, rejecting
// callers who are not a party to it.  The third return value, when
// non-nil, renders the error response.
func (h *PaymentHandler) loadPair(c echo.Context, userID uint64) (model.Transaction, model.Product, func(echo.Context) error) {
	fail := func(status int, msg string) func(echo.Context) error {
		return func(c echo.Context) error { return c.JSON(status, echo.Map{"error": msg}) }
	}
	id, ok := pathID(c, "id")
	if !ok {
		return model.Transaction{}, model.Product{}, fail(http.StatusBadRequest, "invalid transaction id")
	}
	ctx := c.Request().Context()
	rec, err := h.Txs.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrTransactionNotFound {
			return model.Transaction{}, model.Product{}, fail(http.StatusNotFound, "transaction not found")
		}
		return model.Transaction{}, model.Product{}, fail(http.StatusInternalServerError, "load transaction failed")
	}
	if userID != rec.BuyerID && userID != rec.SellerID {
		return model.Transaction{}, model.Product{}, fail(http.StatusForbidden, "forbidden")
	}
	p, err := h.Products.GetByID(ctx, rec.ProductID)
	if err != nil {
		return model.Transaction{}, model.Product{}, fail(http.StatusInternalServerError, "load product failed")
	}
	return rec, p, nil
}

// stepFor evaluates the lifecycle table for the requester.  Reviews
// play no part in transition validation, so hasReviewed is false here.
func (h *PaymentHandler) stepFor(userID uint64, p *model.Product, rec *model.Transaction) lifecycle.Step {
	return lifecycle.Evaluate(lifecycle.ViewFor(userID, p, rec, false))
}

// transition moves the transaction and the product to their new states
// inside one commit and mirrors the new status onto rec.
func (h *PaymentHandler) transition(ctx context.Context, rec *model.Transaction, txStatus, productStatus string) error {
	tx, err := h.Products.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Txs.UpdateStatusTx(ctx, tx, rec.ID, txStatus); err != nil {
		return err
	}
	if err := h.Products.UpdateStatusTx(ctx, tx, rec.ProductID, productStatus); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	rec.Status = txStatus
	return nil
}

// publish emits a lifecycle event, best effort.  Display names are
// looked up here so consumers never touch the users table.
func (h *PaymentHandler) publish(ctx context.Context, kind string, rec *model.Transaction, p *model.Product, cancelledBy uint64) {
	ev := queue.LifecycleEvent{
		Kind:          kind,
		TransactionID: rec.ID,
		ProductID:     p.ID,
		ProductTitle:  p.Title,
		BuyerID:       rec.BuyerID,
		SellerID:      rec.SellerID,
		AmountCents:   rec.AmountCents,
		CancelledBy:   cancelledBy,
	}
	if buyer, err := h.Users.GetByID(ctx, rec.BuyerID); err == nil {
		ev.BuyerName = buyer.DisplayName
	}
	if seller, err := h.Users.GetByID(ctx, rec.SellerID); err == nil {
		ev.SellerName = seller.DisplayName
	}
	_ = queue_publisher.PublishLifecycle(ctx, ev)
}
