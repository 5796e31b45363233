package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// messageServer serves GET /api/v1/conversations/1/messages over an
// in-memory ascending history, windowed the way the API does: offset 0
// is the newest page, items within a page ascend, has_more reports
// whether the window filled up.
type messageServer struct {
	mu       sync.Mutex
	messages []Message
}

func (s *messageServer) append(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := uint64(len(s.messages) + 1)
		s.messages = append(s.messages, Message{
			ID:             id,
			ConversationID: 1,
			SenderID:       2,
			Body:           fmt.Sprintf("message %d", id),
			CreatedAt:      base.Add(time.Duration(id) * time.Minute),
		})
	}
}

func (s *messageServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = DefaultPageSize
	}
	hi := len(s.messages) - offset
	if hi < 0 {
		hi = 0
	}
	lo := hi - limit
	if lo < 0 {
		lo = 0
	}
	page := s.messages[lo:hi]
	json.NewEncoder(w).Encode(map[string]any{
		"items":    page,
		"has_more": len(page) == limit,
	})
}

func assertAscendingNoDup(t *testing.T, ms []Message) {
	t.Helper()
	seen := map[uint64]bool{}
	for i, m := range ms {
		require.False(t, seen[m.ID], "duplicate message %d", m.ID)
		seen[m.ID] = true
		if i > 0 {
			require.False(t, m.CreatedAt.Before(ms[i-1].CreatedAt), "out of order at %d", i)
		}
	}
}

func TestPollMergeAppendsUnseenOnly(t *testing.T) {
	srv := &messageServer{}
	srv.append(30)
	c, _ := newTestClient(t, srv)

	p := NewConversationPoller(c, 1, time.Minute, 20)
	require.NoError(t, p.pollOnce(context.Background()))

	local := p.Snapshot()
	require.Len(t, local, 20)
	assert.Equal(t, uint64(11), local[0].ID)
	assert.Equal(t, uint64(30), local[19].ID)

	// Three new messages arrive; the next poll re-fetches offset 0 and
	// must add exactly those three.
	srv.append(3)
	require.NoError(t, p.pollOnce(context.Background()))

	local = p.Snapshot()
	require.Len(t, local, 23)
	assert.Equal(t, uint64(33), local[len(local)-1].ID)
	assertAscendingNoDup(t, local)

	// A poll with nothing new changes nothing.
	require.NoError(t, p.pollOnce(context.Background()))
	assert.Len(t, p.Snapshot(), 23)
}

func TestLoadOlderPrependsAndStopsAtHistoryStart(t *testing.T) {
	srv := &messageServer{}
	srv.append(45)
	c, _ := newTestClient(t, srv)

	p := NewConversationPoller(c, 1, time.Minute, 20)
	require.NoError(t, p.pollOnce(context.Background()))
	require.Len(t, p.Snapshot(), 20)
	assert.True(t, p.HasMore())

	more, err := p.LoadOlder(context.Background())
	require.NoError(t, err)
	assert.True(t, more)
	local := p.Snapshot()
	require.Len(t, local, 40)
	assert.Equal(t, uint64(6), local[0].ID)
	assertAscendingNoDup(t, local)

	// The last page is short, which ends backward pagination.
	more, err = p.LoadOlder(context.Background())
	require.NoError(t, err)
	assert.False(t, more)
	local = p.Snapshot()
	require.Len(t, local, 45)
	assert.Equal(t, uint64(1), local[0].ID)
	assertAscendingNoDup(t, local)
	assert.False(t, p.HasMore())
}

func TestUpdateEventsAndScrollSignalling(t *testing.T) {
	srv := &messageServer{}
	srv.append(5)
	c, _ := newTestClient(t, srv)

	p := NewConversationPoller(c, 1, time.Minute, 20)
	var updates []Update
	p.OnUpdate = func(u Update) { updates = append(updates, u) }
	nearBottom := true
	p.NearBottom = func() bool { return nearBottom }

	// First population always scrolls.
	require.NoError(t, p.pollOnce(context.Background()))
	require.Len(t, updates, 1)
	assert.True(t, updates[0].ScrollToBottom)
	assert.Equal(t, 5, updates[0].Appended)

	// New message while at the tail: follow it.
	srv.append(1)
	require.NoError(t, p.pollOnce(context.Background()))
	require.Len(t, updates, 2)
	assert.True(t, updates[1].ScrollToBottom)

	// New message while scrolled up into history: do not yank.
	nearBottom = false
	srv.append(1)
	require.NoError(t, p.pollOnce(context.Background()))
	require.Len(t, updates, 3)
	assert.False(t, updates[2].ScrollToBottom)
	assert.Equal(t, 1, updates[2].Appended)

	// No change, no event.
	require.NoError(t, p.pollOnce(context.Background()))
	assert.Len(t, updates, 3)
}

func TestRunPollsOnInterval(t *testing.T) {
	srv := &messageServer{}
	srv.append(2)
	c, _ := newTestClient(t, srv)

	p := NewConversationPoller(c, 1, 10*time.Millisecond, 20)
	var mu sync.Mutex
	total := 0
	p.OnUpdate = func(u Update) {
		mu.Lock()
		total = len(u.Messages)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return total == 2
	}, time.Second, 5*time.Millisecond)

	srv.append(1)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return total == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
