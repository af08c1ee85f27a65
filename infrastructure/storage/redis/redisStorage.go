package redis_storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/storage"
)

const changesSuffix string = ":changes"

func NewRedisClient(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

type iRedisStorageImpl struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStorage stores every key under prefix, an empty prefix keeps keys as is
func NewRedisStorage(client redis.UniversalClient, prefix string) storage.IStorage {
	return &iRedisStorageImpl{client: client, prefix: prefix}
}

func (store iRedisStorageImpl) key(key string) string {
	if store.prefix == "" {
		return key
	}
	return store.prefix + ":" + key
}

func (store iRedisStorageImpl) Get(ctx context.Context, key string) (string, error) {
	value, err := store.client.Get(ctx, store.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}
		return "", errors.Wrap(err, "redis get failed")
	}
	return value, nil
}

func (store iRedisStorageImpl) Set(ctx context.Context, key, value string) error {
	if err := store.client.Set(ctx, store.key(key), value, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set failed")
	}
	return nil
}

func (store iRedisStorageImpl) Remove(ctx context.Context, key string) error {
	if err := store.client.Del(ctx, store.key(key)).Err(); err != nil {
		return errors.Wrap(err, "redis del failed")
	}
	return nil
}

type iRedisNotifierImpl struct {
	client   redis.UniversalClient
	channel  string
	logger   applog.Logger
	handlers *storage.Handlers

	mutex  sync.Mutex
	pubsub *redis.PubSub
}

// NewRedisNotifier publishes every change event on the channel <prefix>:changes.
// All subscriptions of the notifier share one redis connection, which is open
// while at least one handler is subscribed.
func NewRedisNotifier(client redis.UniversalClient, prefix string, logger applog.Logger) storage.INotifier {
	if logger == nil {
		logger = applog.NewNopLogger()
	}
	return &iRedisNotifierImpl{
		client:   client,
		channel:  prefix + changesSuffix,
		logger:   logger,
		handlers: storage.NewHandlers(),
	}
}

func (notifier *iRedisNotifierImpl) Publish(ctx context.Context, event storage.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal change event failed")
	}
	if err := notifier.client.Publish(ctx, notifier.channel, payload).Err(); err != nil {
		return errors.Wrap(err, "redis publish failed")
	}
	return nil
}

// Subscribe opens the shared subscription on first use and waits for redis
// to confirm it, events published after it returns reach handler
func (notifier *iRedisNotifierImpl) Subscribe(ctx context.Context, key string, handler storage.ChangeHandler) (func(), error) {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()

	if notifier.pubsub == nil {
		pubsub := notifier.client.Subscribe(ctx, notifier.channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return nil, errors.Wrap(err, "redis subscribe failed")
		}
		notifier.pubsub = pubsub
		go notifier.receive(pubsub)
	}

	id := notifier.handlers.Add(key, handler)
	var once sync.Once
	return func() {
		once.Do(func() { notifier.unsubscribe(key, id) })
	}, nil
}

func (notifier *iRedisNotifierImpl) unsubscribe(key string, id uint64) {
	notifier.mutex.Lock()
	var pubsub *redis.PubSub
	if notifier.handlers.Remove(key, id) == 0 {
		pubsub, notifier.pubsub = notifier.pubsub, nil
	}
	notifier.mutex.Unlock()

	if pubsub != nil {
		if err := pubsub.Close(); err != nil {
			notifier.logger.Debug("close change subscription failed",
				"fn", "unsubscribe",
				"channel", notifier.channel,
				"error", err)
		}
	}
}

// receive decodes the shared channel once and hands each event to the
// handlers of its key, it returns when pubsub is closed
func (notifier *iRedisNotifierImpl) receive(pubsub *redis.PubSub) {
	for message := range pubsub.Channel() {
		var event storage.ChangeEvent
		if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
			notifier.logger.Warn("drop malformed change event",
				"fn", "receive",
				"channel", notifier.channel,
				"error", err)
			continue
		}
		notifier.handlers.Dispatch(event)
	}
}
