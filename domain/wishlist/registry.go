package wishlist

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/storage"
)

const guestNamespace string = "guest"

const (
	DefaultIdleTTL   = 30 * time.Minute
	DefaultMaxStores = 10000
)

// Limits bounds the stores a registry keeps alive. A store unused for IdleTTL
// is disposed, and once MaxStores are held the least recently used one is.
type Limits struct {
	IdleTTL   time.Duration
	MaxStores int
	Clock     func() time.Time
}

type registryEntry struct {
	store *Store
	used  time.Time
}

// StoreRegistry hands out one initialized store per user, every store shares
// the registry context id so writes of this process are recognised as its own
type StoreRegistry struct {
	mutex     sync.Mutex
	storage   storage.IStorage
	notifier  storage.INotifier
	logger    applog.Logger
	key       string
	contextId string
	limits    Limits
	stores    map[string]*registryEntry
}

func NewStoreRegistry(storage storage.IStorage, notifier storage.INotifier, logger applog.Logger, opts ...Option) *StoreRegistry {
	if logger == nil {
		logger = applog.NewNopLogger()
	}

	defaults := &Store{key: StorageKey}
	for _, opt := range opts {
		opt(defaults)
	}
	if defaults.contextId == "" {
		defaults.contextId = uuid.NewString()
	}

	registry := &StoreRegistry{
		storage:   storage,
		notifier:  notifier,
		logger:    logger,
		key:       defaults.key,
		contextId: defaults.contextId,
		stores:    make(map[string]*registryEntry, 16),
	}
	return registry.WithLimits(Limits{})
}

// WithLimits replaces the eviction limits, zero values select the defaults.
// Call it before the registry is shared.
func (registry *StoreRegistry) WithLimits(limits Limits) *StoreRegistry {
	if limits.IdleTTL <= 0 {
		limits.IdleTTL = DefaultIdleTTL
	}
	if limits.MaxStores <= 0 {
		limits.MaxStores = DefaultMaxStores
	}
	if limits.Clock == nil {
		limits.Clock = time.Now
	}
	registry.limits = limits
	return registry
}

func namespaceOf(userId string) string {
	if userId == "" {
		return guestNamespace
	}
	return "user:" + userId
}

// Get returns the store of userId, an empty userId selects the guest store
func (registry *StoreRegistry) Get(ctx context.Context, userId string) *Store {
	ns := namespaceOf(userId)

	registry.mutex.Lock()
	now := registry.limits.Clock()
	if entry, ok := registry.stores[ns]; ok && now.Sub(entry.used) <= registry.limits.IdleTTL {
		entry.used = now
		registry.mutex.Unlock()
		return entry.store
	}

	evicted := registry.evictLocked(now)
	var notifier storage.INotifier
	if registry.notifier != nil {
		notifier = storage.NamespaceNotifier(registry.notifier, ns)
	}
	store := NewStore(storage.Namespace(registry.storage, ns), notifier,
		WithLogger(registry.logger),
		WithKey(registry.key),
		WithContextId(registry.contextId))
	// the subscription outlives the request that created the store
	store.Init(context.WithoutCancel(ctx))
	registry.stores[ns] = &registryEntry{store: store, used: now}
	held := len(registry.stores)
	registry.mutex.Unlock()

	for _, stale := range evicted {
		stale.Dispose()
	}

	registry.logger.FromContext(ctx).Debug("wishlist store initialized",
		"fn", "Get",
		"namespace", ns,
		"count", store.Count(),
		"held", held,
		"evicted", len(evicted))
	return store
}

// evictLocked removes idle stores, then the least recently used ones until a
// new store fits, and returns them for disposal outside the lock
func (registry *StoreRegistry) evictLocked(now time.Time) []*Store {
	evicted := make([]*Store, 0, 1)
	for ns, entry := range registry.stores {
		if now.Sub(entry.used) > registry.limits.IdleTTL {
			evicted = append(evicted, entry.store)
			delete(registry.stores, ns)
		}
	}

	for len(registry.stores) >= registry.limits.MaxStores {
		var oldest string
		var oldestUsed time.Time
		for ns, entry := range registry.stores {
			if oldest == "" || entry.used.Before(oldestUsed) {
				oldest, oldestUsed = ns, entry.used
			}
		}
		evicted = append(evicted, registry.stores[oldest].store)
		delete(registry.stores, oldest)
	}
	return evicted
}

// Len counts the stores currently held
func (registry *StoreRegistry) Len() int {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	return len(registry.stores)
}

// Close disposes every store handed out so far
func (registry *StoreRegistry) Close() {
	registry.mutex.Lock()
	stores := registry.stores
	registry.stores = make(map[string]*registryEntry, 16)
	registry.mutex.Unlock()

	for _, entry := range stores {
		entry.store.Dispose()
	}
}
