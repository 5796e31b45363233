package client

import (
	"context"
	"fmt"
	"net/http"
)

// Reserve places a hold on a product and returns the new transaction.
func (c *Client) Reserve(ctx context.Context, productID uint64) (*Transaction, error) {
	var out Transaction
	path := fmt.Sprintf("/api/v1/payments/reserve/%d", productID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmReservation is the seller accepting a pending reservation.
func (c *Client) ConfirmReservation(ctx context.Context, txID uint64) (*Transaction, error) {
	return c.postTx(ctx, fmt.Sprintf("/api/v1/payments/reservations/%d/confirm", txID))
}

// CancelReservation aborts the deal from either side, where the
// lifecycle still allows it.
func (c *Client) CancelReservation(ctx context.Context, txID uint64) (*Transaction, error) {
	return c.postTx(ctx, fmt.Sprintf("/api/v1/payments/reservations/%d/cancel", txID))
}

// PaymentIntent is the response to Pay: the provider checkout link and
// the transaction as it now stands.
type PaymentIntent struct {
	PaymentURL  string      `json:"payment_url"`
	Transaction Transaction `json:"transaction"`
}

// Pay starts checkout for a paid item.
func (c *Client) Pay(ctx context.Context, txID uint64) (*PaymentIntent, error) {
	var out PaymentIntent
	path := fmt.Sprintf("/api/v1/payments/transactions/%d/pay", txID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QRCode is a pickup pass: Payload is the string to render as a QR
// image, ExpiresIn its remaining validity in seconds.
type QRCode struct {
	Payload   string `json:"payload"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateQR mints (or re-fetches) the buyer's pickup QR code.
func (c *Client) GenerateQR(ctx context.Context, txID uint64) (*QRCode, error) {
	var out QRCode
	path := fmt.Sprintf("/api/v1/payments/transactions/%d/generate-qr", txID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteByQR is the seller redeeming a scanned payload to close the
// deal at handoff.
func (c *Client) CompleteByQR(ctx context.Context, txID uint64, payload string) (*Transaction, error) {
	var out Transaction
	path := fmt.Sprintf("/api/v1/payments/transactions/%d/complete-by-qr", txID)
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"payload": payload}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postTx(ctx context.Context, path string) (*Transaction, error) {
	var out Transaction
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
