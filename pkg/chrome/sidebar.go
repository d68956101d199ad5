// Package chrome is the navigation frame around every screen: the sidebar
// factory list, the top bar and the shell that mounts both alongside the
// notification channel.
package chrome

import (
	"context"
	"sync"

	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/events"
)

type FactoryLister interface {
	ListFactories(ctx context.Context) ([]models.Factory, error)
}

// Sidebar lists factories and re-fetches whenever a factory event is
// published. Fetch failures are logged only.
type Sidebar struct {
	client   FactoryLister
	bus      *events.Bus
	onChange func([]models.Factory)

	mu          sync.RWMutex
	factories   []models.Factory
	started     uint64
	applied     uint64
	unsubscribe func()
	cancel      context.CancelFunc
	life        context.Context
	wg          sync.WaitGroup
}

// NewSidebar builds an unmounted sidebar. onChange, when set, receives the
// list after every successful fetch.
func NewSidebar(client FactoryLister, bus *events.Bus, onChange func([]models.Factory)) *Sidebar {
	return &Sidebar{client: client, bus: bus, onChange: onChange}
}

// Mount fetches the factory list and starts following factory events.
func (s *Sidebar) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.life != nil {
		s.mu.Unlock()
		return
	}
	s.life, s.cancel = context.WithCancel(context.Background())
	if s.bus != nil {
		s.unsubscribe = s.bus.Subscribe(events.ResourceFactory, s.handle)
	}
	s.mu.Unlock()

	s.refresh(ctx)
}

// Unmount stops following events and waits for refreshes in flight.
func (s *Sidebar) Unmount() {
	s.mu.Lock()
	unsubscribe, cancel := s.unsubscribe, s.cancel
	s.unsubscribe, s.cancel, s.life = nil, nil, nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Sidebar) Factories() []models.Factory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Factory(nil), s.factories...)
}

// handle runs on the publisher's goroutine, so the fetch is moved off it.
func (s *Sidebar) handle(e events.Event) {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	life := s.life
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		logger.WithField("action", e.Action).Debug("Sidebar refresh")
		s.refresh(life)
	}()
}

func (s *Sidebar) refresh(ctx context.Context) {
	s.mu.Lock()
	s.started++
	seq := s.started
	life := s.life
	s.mu.Unlock()

	if life != nil {
		scoped, cancel := context.WithCancel(ctx)
		stop := context.AfterFunc(life, cancel)
		defer func() {
			stop()
			cancel()
		}()
		ctx = scoped
	}

	list, err := s.client.ListFactories(ctx)
	if err != nil {
		logger.Log.WithError(err).Warn("Sidebar failed to load factories")
		return
	}

	s.mu.Lock()
	// A slower, older fetch must not overwrite a newer one.
	if seq < s.applied {
		s.mu.Unlock()
		return
	}
	s.applied = seq
	s.factories = list
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(append([]models.Factory(nil), list...))
	}
}
