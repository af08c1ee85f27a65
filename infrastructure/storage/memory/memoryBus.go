package memory_storage

import (
	"context"
	"sync"

	"gitlab.faza.io/order-project/storefront-service/infrastructure/storage"
)

// Bus delivers change events synchronously on the publishing goroutine,
// handlers run outside the bus lock and may publish again
type Bus struct {
	handlers *storage.Handlers
}

func NewBus() *Bus {
	return &Bus{handlers: storage.NewHandlers()}
}

func (bus *Bus) Publish(ctx context.Context, event storage.ChangeEvent) error {
	bus.handlers.Dispatch(event)
	return nil
}

func (bus *Bus) Subscribe(ctx context.Context, key string, handler storage.ChangeHandler) (func(), error) {
	id := bus.handlers.Add(key, handler)
	var once sync.Once
	return func() {
		once.Do(func() { bus.handlers.Remove(key, id) })
	}, nil
}

// Subscribers counts the handlers of key
func (bus *Bus) Subscribers(key string) int {
	return bus.handlers.Len(key)
}

// Total counts the handlers of every key
func (bus *Bus) Total() int {
	return bus.handlers.Total()
}
