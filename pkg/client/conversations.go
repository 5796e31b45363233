package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Conversations lists the caller's inbox, most recently active first.
func (c *Client) Conversations(ctx context.Context) ([]ConversationSummary, error) {
	var out struct {
		Items []ConversationSummary `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// StartConversation opens (or returns the existing) thread about a
// product with its seller.
func (c *Client) StartConversation(ctx context.Context, productID uint64) (*Conversation, error) {
	var out Conversation
	err := c.do(ctx, http.MethodPost, "/api/v1/conversations", nil, map[string]uint64{
		"product_id": productID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MessagePage is one window of a conversation.  Items are in ascending
// time order; HasMore reports whether older messages exist beyond it.
type MessagePage struct {
	Items   []Message `json:"items"`
	HasMore bool      `json:"has_more"`
}

// Messages fetches a page of a conversation.  Offset 0 is the newest
// window; fetching it also marks the thread read server-side.
func (c *Client) Messages(ctx context.Context, conversationID uint64, offset, limit int) (*MessagePage, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out MessagePage
	path := fmt.Sprintf("/api/v1/conversations/%d/messages", conversationID)
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage appends to a conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID uint64, body string) (*Message, error) {
	var out Message
	path := fmt.Sprintf("/api/v1/conversations/%d/messages", conversationID)
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"body": body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkConversationRead marks every message in the thread as read.
func (c *Client) MarkConversationRead(ctx context.Context, conversationID uint64) error {
	path := fmt.Sprintf("/api/v1/conversations/%d/read", conversationID)
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

// UnreadCount is the global unread message counter shown in the nav.
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Unread int64 `json:"unread"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/messages/unread-count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Unread, nil
}
