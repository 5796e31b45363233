package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient wires a Client against an httptest server with a
// seeded token pair.
func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(srv.URL)
	c.Tokens.SetTokens("stale-access", "refresh-1")
	return c, srv
}

func TestRefreshAndRetryOnce(t *testing.T) {
	var meCalls, refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&meCalls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "token expired"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"user_id": 7, "role": "USER"})
	})
	mux.HandleFunc("/api/v1/auth/refresh-access", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refresh_token"])
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh-access"})
	})

	c, _ := newTestClient(t, mux)
	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), me.UserID)

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls), "exactly one refresh")
	assert.Equal(t, int32(2), atomic.LoadInt32(&meCalls), "original request replayed once")
	assert.Equal(t, "fresh-access", c.Tokens.AccessToken())
}

func TestNoSecondRefreshWhenReplayRejected(t *testing.T) {
	var meCalls, refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&meCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
	})
	mux.HandleFunc("/api/v1/auth/refresh-access", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh-access"})
	})

	c, _ := newTestClient(t, mux)
	_, err := c.Me(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&meCalls), "one replay, then give up")
}

func TestAuthEndpointsNeverTriggerRefresh(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	})
	mux.HandleFunc("/api/v1/auth/refresh-access", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh-access"})
	})

	c, _ := newTestClient(t, mux)
	_, err := c.Login(context.Background(), "a@b.c", "wrong")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid credentials", apiErr.Message)
	assert.Zero(t, atomic.LoadInt32(&refreshCalls), "failed login must not loop into refresh")
}

func TestSessionExpiredCarriesRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/v1/auth/refresh-access", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "refresh token revoked"})
	})

	c, _ := newTestClient(t, mux)
	_, err := c.Me(context.Background())

	require.True(t, errors.Is(err, ErrSessionExpired))
	var expired *SessionExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, "/login?redirect=%2Fapi%2Fv1%2Fme", expired.RedirectURI)
}

func TestValidationErrorsFlattened(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"errors": map[string]string{
			"email":    "already registered",
			"password": "too short",
		}})
	})

	c, _ := newTestClient(t, mux)
	_, err := c.Register(context.Background(), "a@b.c", "x", "Alice")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "already registered", ve.Fields["email"])
	assert.Equal(t, "validation failed: email: already registered; password: too short", ve.Error())
}

func TestNotifierReceivesSuccessMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "all caught up"})
	})

	c, _ := newTestClient(t, mux)
	var got []string
	c.Notifier = func(msg string) { got = append(got, msg) }

	require.NoError(t, c.MarkAllNotificationsRead(context.Background()))
	assert.Equal(t, []string{"all caught up"}, got)
}

func TestLoginStoresTokenPair(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"user":    map[string]any{"id": 3, "email": "a@b.c", "display_name": "Alice", "role": "USER"},
			"access":  map[string]any{"token": "acc-3"},
			"refresh": map[string]any{"token": "ref-3"},
		})
	})

	c, _ := newTestClient(t, mux)
	sess, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Alice", sess.User.DisplayName)
	assert.Equal(t, "acc-3", c.Tokens.AccessToken())
	assert.Equal(t, "ref-3", c.Tokens.RefreshToken())
}
