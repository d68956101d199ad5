package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesOnlyMatchingResource(t *testing.T) {
	bus := NewBus()

	var factoryEvents, modelEvents []Event
	bus.Subscribe(ResourceFactory, func(e Event) { factoryEvents = append(factoryEvents, e) })
	bus.Subscribe(ResourceModel, func(e Event) { modelEvents = append(modelEvents, e) })

	bus.Publish(Event{Resource: ResourceFactory, Action: ActionCreated, ID: 1})

	assert.Equal(t, []Event{{Resource: ResourceFactory, Action: ActionCreated, ID: 1}}, factoryEvents)
	assert.Empty(t, modelEvents)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsubscribe := bus.Subscribe(ResourceFactory, func(Event) { calls++ })
	bus.Publish(Event{Resource: ResourceFactory})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Resource: ResourceFactory})

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Subscribers(ResourceFactory))
}

func TestHandlerMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()

	var unsubscribe func()
	calls := 0
	unsubscribe = bus.Subscribe(ResourceAlgorithm, func(Event) {
		calls++
		unsubscribe()
	})

	bus.Publish(Event{Resource: ResourceAlgorithm})
	bus.Publish(Event{Resource: ResourceAlgorithm})
	assert.Equal(t, 1, calls)
}
