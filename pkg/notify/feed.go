// Package notify receives server push notifications, keeps the feed shown
// in the top bar and fans each arrival out as a toast and a refresh event.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexusforge/console/pkg/common/models"
)

// Feed is the in-memory notification list, newest first. It is not
// persisted and does not deduplicate.
type Feed struct {
	mu    sync.RWMutex
	items []models.Notification
	now   func() time.Time
}

func NewFeed() *Feed {
	return &Feed{now: time.Now}
}

// Push prepends n as unread and returns the stored entry.
func (f *Feed) Push(n models.Notification) models.Notification {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.Read = false
	n.ReceivedAt = f.now()

	f.mu.Lock()
	f.items = append([]models.Notification{n}, f.items...)
	f.mu.Unlock()
	return n
}

// MarkAllRead is what opening the panel does.
func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		f.items[i].Read = true
	}
}

func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
}

func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, item := range f.items {
		if !item.Read {
			n++
		}
	}
	return n
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

func (f *Feed) Items() []models.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]models.Notification(nil), f.items...)
}
