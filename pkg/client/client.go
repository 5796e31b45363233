// Package client is a Go client for the marketplace API.  It owns the
// session tokens, transparently refreshes an expired access token once
// per request, and exposes typed calls for every endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired is the sentinel wrapped by SessionExpiredError, so
// callers can test with errors.Is without caring about the redirect.
var ErrSessionExpired = errors.New("session expired")

// SessionExpiredError is returned when a request failed with 401/403 and
// the follow-up refresh also failed.  RedirectURI points at the login
// page with the attempted path preserved, so the UI can send the user
// back where they were after signing in again.
type SessionExpiredError struct {
	RedirectURI string
}

func (e *SessionExpiredError) Error() string {
	return "session expired, sign in at " + e.RedirectURI
}

func (e *SessionExpiredError) Unwrap() error { return ErrSessionExpired }

// APIError is any non-validation error response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ValidationError carries the per-field messages of a rejected form
// submission.  Fields is keyed by input name; Error() flattens the map
// in stable order for logs.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// TokenStore holds the session tokens between requests.  The client
// only reads and writes through this interface, so an application can
// back it with whatever persistence it has.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string)
	SetTokens(access, refresh string)
	Clear()
}

// MemoryTokenStore is the default in-process TokenStore.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func (s *MemoryTokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *MemoryTokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *MemoryTokenStore) SetAccessToken(token string) {
	s.mu.Lock()
	s.access = token
	s.mu.Unlock()
}

func (s *MemoryTokenStore) SetTokens(access, refresh string) {
	s.mu.Lock()
	s.access, s.refresh = access, refresh
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	s.access, s.refresh = "", ""
	s.mu.Unlock()
}

// Client talks to one marketplace API origin.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenStore

	// Notifier, when set, receives the human-readable success messages
	// some endpoints return.  Errors never go through it.
	Notifier func(msg string)

	// refreshMu serializes the refresh call so concurrent 401s do not
	// burn the refresh token twice.
	refreshMu sync.Mutex
}

// New returns a Client for the given origin, e.g. "https://api.example.com".
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Tokens:  &MemoryTokenStore{},
	}
}

// authPath reports whether a path belongs to the auth surface.  Those
// requests never trigger a refresh-and-retry: a failed login should
// fail, not loop through the refresh endpoint.
func authPath(p string) bool {
	return strings.HasPrefix(p, "/api/v1/auth/")
}

// do performs one API request.  On 401/403 for a non-auth path it
// refreshes the access token exactly once and replays the original
// request exactly once; a second rejection is returned as-is.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) && !authPath(path) {
		drain(resp)
		if err := c.refreshAccess(ctx); err != nil {
			return &SessionExpiredError{RedirectURI: loginRedirect(path, query)}
		}
		resp, err = c.send(ctx, method, path, query, payload)
		if err != nil {
			return err
		}
	}
	return c.decode(resp, out)
}

// send builds and executes a single HTTP request.  The body is passed
// as bytes so a replay after refresh reuses the identical payload.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Response, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Tokens.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return c.HTTP.Do(req)
}

// refreshAccess exchanges the stored refresh token for a new access
// token.  The refresh token itself is not rotated here, so a burst of
// expired requests can all recover from the same stored token.
func (c *Client) refreshAccess(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	refresh := c.Tokens.RefreshToken()
	if refresh == "" {
		return ErrSessionExpired
	}
	payload, _ := json.Marshal(map[string]string{"refresh_token": refresh})
	resp, err := c.send(ctx, http.MethodPost, "/api/v1/auth/refresh-access", nil, payload)
	if err != nil {
		return err
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.decode(resp, &body); err != nil {
		return err
	}
	if body.AccessToken == "" {
		return ErrSessionExpired
	}
	c.Tokens.SetAccessToken(body.AccessToken)
	return nil
}

// decode consumes the response body: success payloads unmarshal into
// out, validation failures become *ValidationError, everything else
// becomes *APIError.
func (c *Client) decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if c.Notifier != nil {
			var m struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(raw, &m) == nil && m.Message != "" {
				c.Notifier(m.Message)
			}
		}
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	var ve struct {
		Errors map[string]string `json:"errors"`
	}
	if json.Unmarshal(raw, &ve) == nil && len(ve.Errors) > 0 {
		return &ValidationError{Fields: ve.Errors}
	}
	var ae struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(resp.StatusCode)
	if json.Unmarshal(raw, &ae) == nil && ae.Error != "" {
		msg = ae.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func loginRedirect(path string, query url.Values) string {
	next := path
	if len(query) > 0 {
		next += "?" + query.Encode()
	}
	return "/login?redirect=" + url.QueryEscape(next)
}

func drain(resp *http.Response) {
	_, err := io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		log.Printf("client: drain response: %v", err)
	}
	resp.Body.Close()
}
