package client

import (
	"context"
	"fmt"
	"net/http"
)

// Badges lists a user's earned badges.
func (c *Client) Badges(ctx context.Context, userID uint64) ([]Badge, error) {
	var out struct {
		Items []Badge `json:"items"`
	}
	path := fmt.Sprintf("/api/v1/users/%d/badges", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// UserProgress is the profile summary: deals, badges, credits, rating.
func (c *Client) UserProgress(ctx context.Context, userID uint64) (*Progress, error) {
	var out Progress
	path := fmt.Sprintf("/api/v1/users/%d/progress", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreditBalance returns the caller's current credit balance.
func (c *Client) CreditBalance(ctx context.Context) (int64, error) {
	var out struct {
		Balance int64 `json:"balance"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me/credits", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// DealHistory returns the caller's past transactions, newest first.
func (c *Client) DealHistory(ctx context.Context) ([]Transaction, error) {
	var out struct {
		Items []Transaction `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me/deals", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreditHistory returns the caller's credit ledger, newest first.
func (c *Client) CreditHistory(ctx context.Context) ([]CreditEntry, error) {
	var out struct {
		Items []CreditEntry `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me/credits/history", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
