package client

import (
	"context"
	"fmt"
	"net/http"
)

// SubmitReview rates the other party of a completed transaction.
func (c *Client) SubmitReview(ctx context.Context, txID uint64, rating uint8, comment string) (*Review, error) {
	var out Review
	path := fmt.Sprintf("/api/v1/transactions/%d/reviews", txID)
	err := c.do(ctx, http.MethodPost, path, nil, map[string]any{
		"rating":  rating,
		"comment": comment,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportReview flags a review the caller is the subject of.
func (c *Client) ReportReview(ctx context.Context, reviewID uint64) error {
	path := fmt.Sprintf("/api/v1/reviews/%d/report", reviewID)
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

// UserReviews lists the reviews written about a user, with the running
// average and count.
func (c *Client) UserReviews(ctx context.Context, userID uint64) ([]Review, float64, int64, error) {
	var out struct {
		Items   []Review `json:"items"`
		Average float64  `json:"average"`
		Count   int64    `json:"count"`
	}
	path := fmt.Sprintf("/api/v1/users/%d/reviews", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, 0, 0, err
	}
	return out.Items, out.Average, out.Count, nil
}
