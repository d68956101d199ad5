package chrome

import (
	"context"

	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/notify"
	"github.com/nexusforge/console/pkg/session"
)

const guestName = "Guest"

type Logouter interface {
	Logout(ctx context.Context) error
}

type Topbar struct {
	sessions session.Reader
	feed     *notify.Feed
	auth     Logouter
}

func NewTopbar(sessions session.Reader, feed *notify.Feed, auth Logouter) *Topbar {
	return &Topbar{sessions: sessions, feed: feed, auth: auth}
}

// Username is the signed-in user's name, or "Guest".
func (t *Topbar) Username() string {
	s, ok := t.sessions.Get()
	if !ok || s.User.Name == "" {
		return guestName
	}
	return s.User.Name
}

func (t *Topbar) Email() string {
	s, ok := t.sessions.Get()
	if !ok {
		return ""
	}
	return s.User.Email
}

func (t *Topbar) UnreadCount() int {
	return t.feed.UnreadCount()
}

// OpenNotifications marks every entry read and returns the feed.
func (t *Topbar) OpenNotifications() []models.Notification {
	t.feed.MarkAllRead()
	return t.feed.Items()
}

func (t *Topbar) ClearNotifications() {
	t.feed.Clear()
}

func (t *Topbar) Logout(ctx context.Context) error {
	return t.auth.Logout(ctx)
}
