package storage

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("storage key not found")

// IStorage is a durable string key/value store, Get returns ErrNotFound
// for absent keys
type IStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// ChangeEvent announces a write to Key made by the context Origin
type ChangeEvent struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

type ChangeHandler func(event ChangeEvent)

// INotifier delivers change events of a key to every subscriber, including
// the publisher itself; subscribers filter their own origin
type INotifier interface {
	Publish(ctx context.Context, event ChangeEvent) error
	Subscribe(ctx context.Context, key string, handler ChangeHandler) (unsubscribe func(), err error)
}
