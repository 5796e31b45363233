package client

import (
	"context"
	"net/http"
)

// Register creates an account and stores the returned token pair, so
// the client is signed in immediately.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", nil, map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.Tokens.SetTokens(out.Access.Token, out.Refresh.Token)
	return &out, nil
}

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.Tokens.SetTokens(out.Access.Token, out.Refresh.Token)
	return &out, nil
}

// Logout revokes the stored refresh token server-side and clears the
// local token store either way.
func (c *Client) Logout(ctx context.Context) error {
	refresh := c.Tokens.RefreshToken()
	defer c.Tokens.Clear()
	if refresh == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, map[string]string{
		"refresh_token": refresh,
	}, nil)
}

// Identity is the minimal claim set the server echoes back for the
// current session.
type Identity struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
}

// Me returns the identity behind the current access token.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
