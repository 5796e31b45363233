package client

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// DefaultPageSize is the message window requested when none is set.
const DefaultPageSize = 30

// Update describes one change to a polled conversation.  Messages is
// the full merged history in ascending time order; Appended and
// Prepended count what this update added at each end.  ScrollToBottom
// is set on the first population and when new messages arrive while
// the reader is near the bottom, so the UI can follow the tail without
// yanking someone who scrolled up to read history.
type Update struct {
	Messages       []Message
	Appended       int
	Prepended      int
	ScrollToBottom bool
}

// ConversationPoller keeps a local copy of one conversation fresh by
// re-fetching the newest page on a fixed interval and merging it in.
// Poll failures are logged and dropped; the next tick tries again.
type ConversationPoller struct {
	// OnUpdate receives every change.  It is called from the polling
	// goroutine, never concurrently with itself.
	OnUpdate func(Update)

	// NearBottom, when set, lets the UI report whether the reader is at
	// the tail.  Unset means always follow new messages.
	NearBottom func() bool

	client   *Client
	convID   uint64
	limit    int
	interval time.Duration

	mu       sync.Mutex
	messages []Message
	seen     map[uint64]struct{}
	hasMore  bool
	loaded   bool
}

// NewConversationPoller builds a poller for one conversation.  interval
// is how often the newest page is re-fetched; limit is the page size
// (DefaultPageSize when <= 0).
func NewConversationPoller(c *Client, conversationID uint64, interval time.Duration, limit int) *ConversationPoller {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return &ConversationPoller{
		client:   c,
		convID:   conversationID,
		limit:    limit,
		interval: interval,
		seen:     make(map[uint64]struct{}),
	}
}

// Run loads the newest page immediately, then re-fetches it every
// interval until the context is cancelled.  The initial load error is
// returned; later failures are logged and skipped.
func (p *ConversationPoller) Run(ctx context.Context) error {
	if err := p.pollOnce(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.pollOnce(ctx); err != nil {
				log.Printf("conversation %d poll: %v", p.convID, err)
			}
		}
	}
}

// pollOnce fetches the newest window and merges unseen messages in.
func (p *ConversationPoller) pollOnce(ctx context.Context) error {
	page, err := p.client.Messages(ctx, p.convID, 0, p.limit)
	if err != nil {
		return err
	}

	p.mu.Lock()
	first := !p.loaded
	if first {
		p.hasMore = page.HasMore
		p.loaded = true
	}
	appended := 0
	for _, m := range page.Items {
		if _, ok := p.seen[m.ID]; ok {
			continue
		}
		p.seen[m.ID] = struct{}{}
		p.messages = append(p.messages, m)
		appended++
	}
	if appended > 0 {
		sortMessages(p.messages)
	}
	snapshot := p.snapshotLocked()
	p.mu.Unlock()

	if first || appended > 0 {
		p.emit(Update{
			Messages:       snapshot,
			Appended:       appended,
			ScrollToBottom: first || (appended > 0 && p.nearBottom()),
		})
	}
	return nil
}

// LoadOlder fetches the page behind the local history and prepends it.
// It reports whether even older messages remain.
func (p *ConversationPoller) LoadOlder(ctx context.Context) (bool, error) {
	p.mu.Lock()
	offset := len(p.messages)
	p.mu.Unlock()

	page, err := p.client.Messages(ctx, p.convID, offset, p.limit)
	if err != nil {
		return p.HasMore(), err
	}

	p.mu.Lock()
	p.hasMore = page.HasMore
	prepended := 0
	for _, m := range page.Items {
		if _, ok := p.seen[m.ID]; ok {
			continue
		}
		p.seen[m.ID] = struct{}{}
		p.messages = append(p.messages, m)
		prepended++
	}
	if prepended > 0 {
		sortMessages(p.messages)
	}
	snapshot := p.snapshotLocked()
	hasMore := p.hasMore
	p.mu.Unlock()

	if prepended > 0 {
		p.emit(Update{Messages: snapshot, Prepended: prepended})
	}
	return hasMore, nil
}

// Snapshot returns a copy of the merged history in ascending order.
func (p *ConversationPoller) Snapshot() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// HasMore reports whether older pages remain beyond the local history.
func (p *ConversationPoller) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *ConversationPoller) snapshotLocked() []Message {
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

func (p *ConversationPoller) nearBottom() bool {
	if p.NearBottom == nil {
		return true
	}
	return p.NearBottom()
}

func (p *ConversationPoller) emit(u Update) {
	if p.OnUpdate != nil {
		p.OnUpdate(u)
	}
}

// sortMessages orders by timestamp, breaking ties by ID so two messages
// created in the same second keep a stable order.
func sortMessages(ms []Message) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].ID < ms[j].ID
		}
		return ms[i].CreatedAt.Before(ms[j].CreatedAt)
	})
}

// UnreadPoller keeps the nav's unread badge fresh.  Failures are
// logged and the previous count stands until the next tick.
type UnreadPoller struct {
	OnCount func(int64)

	client   *Client
	interval time.Duration
}

func NewUnreadPoller(c *Client, interval time.Duration) *UnreadPoller {
	return &UnreadPoller{client: c, interval: interval}
}

// Run polls immediately and then on every tick until the context is
// cancelled.
func (p *UnreadPoller) Run(ctx context.Context) error {
	p.poll(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *UnreadPoller) poll(ctx context.Context) {
	n, err := p.client.UnreadCount(ctx)
	if err != nil {
		log.Printf("unread poll: %v", err)
		return
	}
	if p.OnCount != nil {
		p.OnCount(n)
	}
}
