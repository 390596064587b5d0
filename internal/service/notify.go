package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fixmycity/fixmycity/internal/domain"
	"github.com/google/uuid"
)

const maxNotifications = 20

// NotificationCenter keeps a short, newest-first feed of notifications per
// client and wakes subscribers when a feed changes. It is safe for concurrent use.
type NotificationCenter struct {
	mu    sync.Mutex
	feeds map[string]*feed
}

type feed struct {
	items   []domain.Notification
	subs    map[int]chan struct{}
	nextSub int
}

// NewNotificationCenter creates an empty NotificationCenter.
func NewNotificationCenter() *NotificationCenter {
	return &NotificationCenter{feeds: make(map[string]*feed)}
}

// Notify implements domain.Notifier.
func (c *NotificationCenter) Notify(_ context.Context, clientID string, n domain.Notification) {
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	if n.Kind == "" {
		n.Kind = domain.NotifyInfo
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.feed(clientID)
	f.items = append([]domain.Notification{n}, f.items...)
	if len(f.items) > maxNotifications {
		f.items = f.items[:maxNotifications]
	}
	f.wake()

	slog.Debug("notification queued", "client", clientID, "kind", n.Kind, "title", n.Title)
}

// List returns the client's notifications, newest first.
func (c *NotificationCenter) List(clientID string) []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.feeds[clientID]
	if !ok {
		return nil
	}
	return slices.Clone(f.items)
}

// Dismiss removes one notification. It reports whether it was present.
func (c *NotificationCenter) Dismiss(clientID, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.feeds[clientID]
	if !ok {
		return false
	}
	i := slices.IndexFunc(f.items, func(n domain.Notification) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	f.items = slices.Delete(f.items, i, i+1)
	f.wake()
	return true
}

// Subscribe returns a channel that receives a value whenever the client's
// feed changes, and a function that ends the subscription.
func (c *NotificationCenter) Subscribe(clientID string) (<-chan struct{}, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.feed(clientID)
	id := f.nextSub
	f.nextSub++
	ch := make(chan struct{}, 1)
	f.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(f.subs, id)
	}
}

// Forget drops the client's feed unless someone is still subscribed to it.
func (c *NotificationCenter) Forget(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.feeds[clientID]; ok && len(f.subs) == 0 {
		delete(c.feeds, clientID)
	}
}

func (c *NotificationCenter) feed(clientID string) *feed {
	f, ok := c.feeds[clientID]
	if !ok {
		f = &feed{subs: make(map[int]chan struct{})}
		c.feeds[clientID] = f
	}
	return f
}

// wake signals subscribers without blocking; a pending signal already covers
// the change.
func (f *feed) wake() {
	for _, ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
