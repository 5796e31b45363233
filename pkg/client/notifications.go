package client

import (
	"context"
	"fmt"
	"net/http"
)

// Notifications lists the caller's notifications with the unread count.
func (c *Client) Notifications(ctx context.Context) ([]Notification, int64, error) {
	var out struct {
		Items  []Notification `json:"items"`
		Unread int64          `json:"unread"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/notifications", nil, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Unread, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uint64) error {
	path := fmt.Sprintf("/api/v1/notifications/%d/read", id)
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/notifications/read-all", nil, nil, nil)
}
