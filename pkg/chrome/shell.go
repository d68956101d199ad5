package chrome

import (
	"context"
	"sync"

	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/notify"
)

// Shell is the top of the component tree. It owns the sidebar and exactly
// one notification channel.
type Shell struct {
	Sidebar *Sidebar
	Topbar  *Topbar

	channel *notify.Channel

	mu      sync.Mutex
	mounted bool
	done    chan error
}

func NewShell(sidebar *Sidebar, topbar *Topbar, channel *notify.Channel) *Shell {
	return &Shell{Sidebar: sidebar, Topbar: topbar, channel: channel}
}

// Mount loads the sidebar and starts the notification channel in the
// background.
func (s *Shell) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	s.done = make(chan error, 1)
	done := s.done
	s.mu.Unlock()

	s.Sidebar.Mount(ctx)

	go func() {
		err := s.channel.Run(ctx)
		if err != nil {
			logger.Log.WithError(err).Warn("Notification channel stopped")
		}
		done <- err
	}()
}

// ChannelDone yields the channel's exit error once it stops.
func (s *Shell) ChannelDone() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Shell) ChannelState() notify.State {
	return s.channel.State()
}

// Unmount closes the channel and the sidebar.
func (s *Shell) Unmount() {
	s.mu.Lock()
	mounted := s.mounted
	s.mounted = false
	s.mu.Unlock()
	if !mounted {
		return
	}

	s.channel.Close()
	s.Sidebar.Unmount()
}
