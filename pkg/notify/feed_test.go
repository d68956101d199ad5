package notify

import (
	"testing"

	"github.com/nexusforge/console/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedPrependsUnread(t *testing.T) {
	feed := NewFeed()
	feed.Push(models.Notification{Message: "first", Type: "info"})
	second := feed.Push(models.Notification{Message: "second", Type: "info", Read: true})

	items := feed.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Message)
	assert.Equal(t, "first", items[1].Message)
	assert.False(t, second.Read, "pushed entries always start unread")
	assert.NotEmpty(t, second.ID)
	assert.False(t, second.ReceivedAt.IsZero())
	assert.Equal(t, 2, feed.UnreadCount())
}

func TestFeedDoesNotDeduplicate(t *testing.T) {
	feed := NewFeed()
	n := models.Notification{Message: "same", Type: "info"}
	feed.Push(n)
	feed.Push(n)
	assert.Equal(t, 2, feed.Len())
}

func TestUnreadCountTracksReadFlags(t *testing.T) {
	feed := NewFeed()
	for i := 0; i < 3; i++ {
		feed.Push(models.Notification{Message: "m", Type: "info"})
	}
	assert.Equal(t, 3, feed.UnreadCount())

	feed.MarkAllRead()
	assert.Zero(t, feed.UnreadCount())

	feed.Push(models.Notification{Message: "late", Type: "info"})
	assert.Equal(t, 1, feed.UnreadCount())
	unread := 0
	for _, item := range feed.Items() {
		if !item.Read {
			unread++
		}
	}
	assert.Equal(t, unread, feed.UnreadCount())
}

func TestClearThenPush(t *testing.T) {
	feed := NewFeed()
	feed.Push(models.Notification{Message: "a", Type: "info"})
	feed.Push(models.Notification{Message: "b", Type: "info"})

	feed.Clear()
	assert.Zero(t, feed.Len())
	assert.Zero(t, feed.UnreadCount())

	feed.Push(models.Notification{Message: "c", Type: "info"})
	assert.Equal(t, 1, feed.Len())
}

func TestItemsIsACopy(t *testing.T) {
	feed := NewFeed()
	feed.Push(models.Notification{Message: "a", Type: "info"})

	items := feed.Items()
	items[0].Read = true
	assert.Equal(t, 1, feed.UnreadCount())
}

func TestDecode(t *testing.T) {
	n, err := decode([]byte(`{"message":"Factory X created","type":"info"}`))
	require.NoError(t, err)
	assert.Equal(t, "Factory X created", n.Message)

	_, err = decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
	_, err = decode([]byte(`{"type":"info"}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}
