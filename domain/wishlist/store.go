package wishlist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/metrics"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/storage"
)

const StorageKey string = "wishlist"

const resyncTimeout = 5 * time.Second

const (
	opAdd    string = "add"
	opRemove string = "remove"
	opClear  string = "clear"
)

// Snapshot is the read model handed to listeners
type Snapshot struct {
	Items []entities.WishlistItem `json:"items"`
	Count int                     `json:"count"`
}

func (snapshot Snapshot) ItemIds() []int64 {
	ids := make([]int64, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		ids = append(ids, item.Id)
	}
	return ids
}

type Option func(store *Store)

func WithLogger(logger applog.Logger) Option {
	return func(store *Store) {
		if logger != nil {
			store.logger = logger
		}
	}
}

func WithKey(key string) Option {
	return func(store *Store) {
		store.key = key
	}
}

// WithContextId fixes the origin id written on change events, a random one
// is generated otherwise
func WithContextId(contextId string) Option {
	return func(store *Store) {
		store.contextId = contextId
	}
}

// Store is a deduplicated set of liked products kept in insertion order.
// In memory state is authoritative, persistence failures are logged only.
type Store struct {
	mutex     sync.RWMutex
	storage   storage.IStorage
	notifier  storage.INotifier
	logger    applog.Logger
	key       string
	contextId string

	items        []entities.WishlistItem
	// generation counts local mutations, a resync read that raced one is dropped
	generation   uint64
	listeners    map[uint64]func(Snapshot)
	nextListener uint64
	unsubscribe  func()
	initialized  bool
}

// NewStore creates an uninitialized store, notifier may be nil when no other
// context shares the storage
func NewStore(storage storage.IStorage, notifier storage.INotifier, opts ...Option) *Store {
	store := &Store{
		storage:   storage,
		notifier:  notifier,
		logger:    applog.NewNopLogger(),
		key:       StorageKey,
		listeners: make(map[uint64]func(Snapshot), 2),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.contextId == "" {
		store.contextId = uuid.NewString()
	}
	return store
}

func (store *Store) ContextId() string {
	return store.contextId
}

// Init reads the persisted set and starts listening for writes of other
// contexts, calling it again is a no-op
func (store *Store) Init(ctx context.Context) {
	store.mutex.Lock()
	if store.initialized {
		store.mutex.Unlock()
		return
	}
	store.initialized = true
	store.items = store.load(ctx)
	store.mutex.Unlock()

	if store.notifier == nil {
		return
	}

	unsubscribe, err := store.notifier.Subscribe(ctx, store.key, store.onExternalChange)
	if err != nil {
		store.logger.FromContext(ctx).Warn("subscribe to wishlist changes failed",
			"fn", "Init",
			"contextId", store.contextId,
			"error", err)
		return
	}

	store.mutex.Lock()
	store.unsubscribe = unsubscribe
	store.mutex.Unlock()
}

// Dispose stops listening for external changes and drops all listeners
func (store *Store) Dispose() {
	store.mutex.Lock()
	unsubscribe := store.unsubscribe
	store.unsubscribe = nil
	store.listeners = make(map[uint64]func(Snapshot), 2)
	store.mutex.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (store *Store) IsLiked(productId int64) bool {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.indexOf(productId) >= 0
}

func (store *Store) Add(ctx context.Context, item entities.WishlistItem) {
	store.mutate(ctx, func() (string, bool) {
		if store.indexOf(item.Id) >= 0 {
			return opAdd, false
		}
		store.items = append(store.items, item)
		return opAdd, true
	})
}

func (store *Store) Remove(ctx context.Context, productId int64) {
	store.mutate(ctx, func() (string, bool) {
		index := store.indexOf(productId)
		if index < 0 {
			return opRemove, false
		}
		store.items = append(store.items[:index:index], store.items[index+1:]...)
		return opRemove, true
	})
}

// ToggleLike adds an absent item or removes a present one and reports
// whether the item is liked afterwards
func (store *Store) ToggleLike(ctx context.Context, item entities.WishlistItem) bool {
	var liked bool
	store.mutate(ctx, func() (string, bool) {
		if index := store.indexOf(item.Id); index >= 0 {
			store.items = append(store.items[:index:index], store.items[index+1:]...)
			return opRemove, true
		}
		store.items = append(store.items, item)
		liked = true
		return opAdd, true
	})
	return liked
}

func (store *Store) Clear(ctx context.Context) {
	store.mutate(ctx, func() (string, bool) {
		store.items = nil
		return opClear, true
	})
}

func (store *Store) Items() []entities.WishlistItem {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.copyItems()
}

func (store *Store) ItemIds() []int64 {
	return store.Snapshot().ItemIds()
}

func (store *Store) Count() int {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return len(store.items)
}

func (store *Store) Snapshot() Snapshot {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.snapshotLocked()
}

// Subscribe registers listener for every state change, local or external
func (store *Store) Subscribe(listener func(Snapshot)) (cancel func()) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.nextListener++
	id := store.nextListener
	store.listeners[id] = listener
	return func() {
		store.mutex.Lock()
		defer store.mutex.Unlock()
		delete(store.listeners, id)
	}
}

// mutate applies change under the lock, then persists the full set and
// announces it when change reports a modification
func (store *Store) mutate(ctx context.Context, change func() (op string, changed bool)) {
	store.mutex.Lock()
	op, changed := change()
	if !changed {
		store.mutex.Unlock()
		return
	}
	store.generation++
	store.persist(ctx)
	snapshot := store.snapshotLocked()
	listeners := store.listenersLocked()
	store.mutex.Unlock()

	metrics.WishlistMutations.WithLabelValues(op).Inc()
	store.publish(ctx)
	for _, listener := range listeners {
		listener(snapshot)
	}
}

func (store *Store) persist(ctx context.Context) {
	items := store.items
	if items == nil {
		items = []entities.WishlistItem{}
	}

	serialized, err := json.Marshal(items)
	if err == nil {
		err = store.storage.Set(ctx, store.key, string(serialized))
	}
	if err != nil {
		metrics.WishlistPersistFailures.Inc()
		store.logger.FromContext(ctx).Warn("persist wishlist failed",
			"fn", "persist",
			"key", store.key,
			"count", len(items),
			"error", err)
	}
}

func (store *Store) publish(ctx context.Context) {
	if store.notifier == nil {
		return
	}
	event := storage.ChangeEvent{Key: store.key, Origin: store.contextId}
	if err := store.notifier.Publish(ctx, event); err != nil {
		store.logger.FromContext(ctx).Debug("publish wishlist change failed",
			"fn", "publish",
			"key", store.key,
			"error", err)
	}
}

// load never fails, missing or unreadable data yields an empty set
func (store *Store) load(ctx context.Context) []entities.WishlistItem {
	items, err := store.read(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			metrics.WishlistPersistFailures.Inc()
			store.logger.FromContext(ctx).Warn("load wishlist failed, starting empty",
				"fn", "load",
				"key", store.key,
				"error", err)
		}
		return nil
	}
	return items
}

func (store *Store) read(ctx context.Context) ([]entities.WishlistItem, error) {
	serialized, err := store.storage.Get(ctx, store.key)
	if err != nil {
		return nil, err
	}

	var items []entities.WishlistItem
	if err := json.Unmarshal([]byte(serialized), &items); err != nil {
		return nil, errors.Wrap(err, "decode wishlist failed")
	}
	return dedupe(items), nil
}

func (store *Store) onExternalChange(event storage.ChangeEvent) {
	if event.Origin == store.contextId || event.Key != store.key {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()

	store.mutex.RLock()
	generation := store.generation
	store.mutex.RUnlock()

	items, err := store.read(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		metrics.WishlistPersistFailures.Inc()
		store.logger.Warn("resync wishlist failed, keeping current state",
			"fn", "onExternalChange",
			"origin", event.Origin,
			"error", err)
		return
	}

	store.mutex.Lock()
	if store.generation != generation {
		// the local write persisted after this read and already won
		store.mutex.Unlock()
		store.logger.Debug("drop stale wishlist resync",
			"fn", "onExternalChange",
			"origin", event.Origin)
		return
	}
	store.items = items
	snapshot := store.snapshotLocked()
	listeners := store.listenersLocked()
	store.mutex.Unlock()

	metrics.WishlistResyncs.Inc()
	store.logger.Debug("wishlist resynced from external change",
		"fn", "onExternalChange",
		"origin", event.Origin,
		"count", snapshot.Count)

	for _, listener := range listeners {
		listener(snapshot)
	}
}

func (store *Store) indexOf(productId int64) int {
	for i, item := range store.items {
		if item.Id == productId {
			return i
		}
	}
	return -1
}

func (store *Store) copyItems() []entities.WishlistItem {
	items := make([]entities.WishlistItem, len(store.items))
	copy(items, store.items)
	return items
}

func (store *Store) snapshotLocked() Snapshot {
	return Snapshot{Items: store.copyItems(), Count: len(store.items)}
}

func (store *Store) listenersLocked() []func(Snapshot) {
	listeners := make([]func(Snapshot), 0, len(store.listeners))
	for _, listener := range store.listeners {
		listeners = append(listeners, listener)
	}
	return listeners
}

func dedupe(items []entities.WishlistItem) []entities.WishlistItem {
	seen := make(map[int64]struct{}, len(items))
	result := make([]entities.WishlistItem, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Id]; ok {
			continue
		}
		seen[item.Id] = struct{}{}
		result = append(result, item)
	}
	return result
}
