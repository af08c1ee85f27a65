package memory_storage

import (
	"context"
	"sync"

	"gitlab.faza.io/order-project/storefront-service/infrastructure/storage"
)

// Storage is a process local key/value store, the zero value is not usable
type Storage struct {
	mutex   sync.RWMutex
	values  map[string]string
	failure error
}

func NewStorage() *Storage {
	return &Storage{values: make(map[string]string, 8)}
}

// Fail makes every following Get, Set and Remove return err until it is
// called again with nil
func (store *Storage) Fail(err error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.failure = err
}

func (store *Storage) Get(ctx context.Context, key string) (string, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	if store.failure != nil {
		return "", store.failure
	}

	value, ok := store.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (store *Storage) Set(ctx context.Context, key, value string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.failure != nil {
		return store.failure
	}
	store.values[key] = value
	return nil
}

func (store *Storage) Remove(ctx context.Context, key string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.failure != nil {
		return store.failure
	}
	delete(store.values, key)
	return nil
}

// Keys lists the stored keys in no particular order
func (store *Storage) Keys() []string {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	keys := make([]string, 0, len(store.values))
	for key := range store.values {
		keys = append(keys, key)
	}
	return keys
}
