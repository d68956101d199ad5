// Package events is the in-process bus components use to tell each other
// that a resource collection changed on the server.
package events

import (
	"sync"
)

type Resource string

const (
	ResourceFactory   Resource = "factory"
	ResourceAlgorithm Resource = "algorithm"
	ResourceModel     Resource = "model"
	ResourceModelFile Resource = "model_file"
)

var AllResources = []Resource{ResourceFactory, ResourceAlgorithm, ResourceModel, ResourceModelFile}

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	// ActionRemote marks a change announced by the server push channel.
	ActionRemote Action = "remote"
)

type Event struct {
	Resource Resource
	Action   Action
	ID       int64
}

type Handler func(Event)

type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[Resource]map[uint64]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Resource]map[uint64]Handler)}
}

// Subscribe registers h for events about r. The returned function removes
// the subscription and is safe to call more than once.
func (b *Bus) Subscribe(r Resource, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	if b.subs[r] == nil {
		b.subs[r] = make(map[uint64]Handler)
	}
	b.subs[r][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[r], id)
		})
	}
}

// Publish delivers e synchronously to the handlers subscribed when the call
// starts. Handlers must not block.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Resource]))
	for _, h := range b.subs[e.Resource] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

func (b *Bus) Subscribers(r Resource) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[r])
}
