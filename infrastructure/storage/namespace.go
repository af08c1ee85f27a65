package storage

import (
	"context"
	"strings"
)

const namespaceSeparator string = ":"

type iNamespaceStorage struct {
	storage IStorage
	prefix  string
}

// Namespace prefixes every key with ns, an empty ns returns storage as is
func Namespace(storage IStorage, ns string) IStorage {
	if ns == "" {
		return storage
	}
	return iNamespaceStorage{storage: storage, prefix: ns + namespaceSeparator}
}

func (ns iNamespaceStorage) Get(ctx context.Context, key string) (string, error) {
	return ns.storage.Get(ctx, ns.prefix+key)
}

func (ns iNamespaceStorage) Set(ctx context.Context, key, value string) error {
	return ns.storage.Set(ctx, ns.prefix+key, value)
}

func (ns iNamespaceStorage) Remove(ctx context.Context, key string) error {
	return ns.storage.Remove(ctx, ns.prefix+key)
}

type iNamespaceNotifier struct {
	notifier INotifier
	prefix   string
}

// NamespaceNotifier scopes event keys the same way Namespace scopes storage
// keys, handlers observe the unprefixed key
func NamespaceNotifier(notifier INotifier, ns string) INotifier {
	if ns == "" {
		return notifier
	}
	return iNamespaceNotifier{notifier: notifier, prefix: ns + namespaceSeparator}
}

func (ns iNamespaceNotifier) Publish(ctx context.Context, event ChangeEvent) error {
	event.Key = ns.prefix + event.Key
	return ns.notifier.Publish(ctx, event)
}

func (ns iNamespaceNotifier) Subscribe(ctx context.Context, key string, handler ChangeHandler) (func(), error) {
	return ns.notifier.Subscribe(ctx, ns.prefix+key, func(event ChangeEvent) {
		event.Key = strings.TrimPrefix(event.Key, ns.prefix)
		handler(event)
	})
}
