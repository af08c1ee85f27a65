package wishlist

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/storage"
	memory_storage "gitlab.faza.io/order-project/storefront-service/infrastructure/storage/memory"
)

func item(id int64) entities.WishlistItem {
	return entities.WishlistItem{
		Id:     id,
		Name:   "Product",
		UrlKey: "product",
		Price:  decimal.NewFromInt(10 * id),
	}
}

// racingStorage runs onGet once, after the value was read and before it is
// returned
type racingStorage struct {
	storage.IStorage
	onGet func()
}

func (racing *racingStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := racing.IStorage.Get(ctx, key)
	if hook := racing.onGet; hook != nil {
		racing.onGet = nil
		hook()
	}
	return value, err
}

func newInitStore(t *testing.T, backend storage.IStorage, notifier storage.INotifier) *Store {
	store := NewStore(backend, notifier)
	store.Init(context.Background())
	t.Cleanup(store.Dispose)
	return store
}

func TestStore_AddIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newInitStore(t, memory_storage.NewStorage(), nil)

	store.Add(ctx, item(1))
	store.Add(ctx, item(1))
	store.Add(ctx, item(2))

	assert.Equal(t, 2, store.Count())
	assert.Equal(t, []int64{1, 2}, store.ItemIds())
	assert.True(t, store.IsLiked(1))
	assert.False(t, store.IsLiked(3))
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	store := newInitStore(t, backend, nil)

	store.Remove(ctx, 9)
	assert.Equal(t, 0, store.Count())
	assert.Empty(t, backend.Keys())

	store.Add(ctx, item(1))
	store.Add(ctx, item(2))
	store.Add(ctx, item(3))
	store.Remove(ctx, 2)
	assert.Equal(t, []int64{1, 3}, store.ItemIds())
}

func TestStore_ToggleTwiceRestores(t *testing.T) {
	ctx := context.Background()
	store := newInitStore(t, memory_storage.NewStorage(), nil)
	store.Add(ctx, item(1))

	assert.True(t, store.ToggleLike(ctx, item(2)))
	assert.False(t, store.ToggleLike(ctx, item(2)))
	assert.Equal(t, []int64{1}, store.ItemIds())

	assert.False(t, store.ToggleLike(ctx, item(1)))
	assert.True(t, store.ToggleLike(ctx, item(1)))
	assert.Equal(t, []int64{1}, store.ItemIds())
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	sequences := map[string]func(store *Store){
		"empty":   func(store *Store) {},
		"cleared": func(store *Store) { store.Add(ctx, item(1)); store.Clear(ctx) },
		"mixed": func(store *Store) {
			store.Add(ctx, item(1))
			store.Add(ctx, item(2))
			store.ToggleLike(ctx, item(3))
			store.Remove(ctx, 1)
			store.Add(ctx, item(4))
		},
	}

	for name, sequence := range sequences {
		t.Run(name, func(t *testing.T) {
			backend := memory_storage.NewStorage()
			first := newInitStore(t, backend, nil)
			sequence(first)

			second := newInitStore(t, backend, nil)
			assert.ElementsMatch(t, first.ItemIds(), second.ItemIds())
			assert.Equal(t, first.Count(), second.Count())
		})
	}
}

func TestStore_PersistsUnderKey(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	store := newInitStore(t, backend, nil)

	store.Add(ctx, item(5))
	value, err := backend.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":5,"name":"Product","url_key":"product","image":"","price":"50"}]`, value)

	store.Clear(ctx)
	value, err = backend.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)
}

func TestStore_InitToleratesBadData(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"corrupt":    `{not json`,
		"wrong type": `{"id":1}`,
		"null":       `null`,
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			backend := memory_storage.NewStorage()
			require.NoError(t, backend.Set(ctx, StorageKey, value))
			store := newInitStore(t, backend, nil)
			assert.Equal(t, 0, store.Count())
			assert.NotNil(t, store.Items())
		})
	}
}

func TestStore_InitDedupes(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	require.NoError(t, backend.Set(ctx, StorageKey, `[{"id":1},{"id":2},{"id":1}]`))

	store := newInitStore(t, backend, nil)
	assert.Equal(t, []int64{1, 2}, store.ItemIds())
}

func TestStore_StorageFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	backend.Fail(errors.New("quota exceeded"))

	store := newInitStore(t, backend, nil)
	store.Add(ctx, item(1))
	store.Add(ctx, item(2))
	assert.Equal(t, []int64{1, 2}, store.ItemIds())

	backend.Fail(nil)
	store.Remove(ctx, 1)
	value, err := backend.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Contains(t, value, `"id":2`)
}

func TestStore_CrossContextResync(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	bus := memory_storage.NewBus()

	tabA := newInitStore(t, backend, bus)
	tabB := newInitStore(t, backend, bus)
	require.NotEqual(t, tabA.ContextId(), tabB.ContextId())

	var notified []Snapshot
	tabB.Subscribe(func(snapshot Snapshot) { notified = append(notified, snapshot) })

	tabA.Add(ctx, item(1))
	assert.Equal(t, []int64{1}, tabB.ItemIds())
	require.Len(t, notified, 1)
	assert.Equal(t, 1, notified[0].Count)

	tabB.ToggleLike(ctx, item(2))
	assert.Equal(t, []int64{1, 2}, tabA.ItemIds())

	tabA.Clear(ctx)
	assert.Equal(t, 0, tabB.Count())
}

func TestStore_OwnWritesDoNotResync(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	bus := memory_storage.NewBus()
	store := newInitStore(t, backend, bus)

	var notified int
	store.Subscribe(func(snapshot Snapshot) { notified++ })

	// a stale value written behind the store's back must not be re-read on own events
	store.Add(ctx, item(1))
	require.NoError(t, backend.Set(ctx, StorageKey, `[]`))
	store.Add(ctx, item(2))

	assert.Equal(t, []int64{1, 2}, store.ItemIds())
	assert.Equal(t, 2, notified)
}

func TestStore_ResyncKeepsStateOnReadFailure(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	bus := memory_storage.NewBus()
	tabA := newInitStore(t, backend, bus)
	tabB := newInitStore(t, backend, bus)

	tabA.Add(ctx, item(1))
	backend.Fail(errors.New("storage disabled"))
	tabA.Add(ctx, item(2))

	assert.Equal(t, []int64{1}, tabB.ItemIds())
	assert.Equal(t, []int64{1, 2}, tabA.ItemIds())
}

func TestStore_DisposeUnsubscribes(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	bus := memory_storage.NewBus()

	tabA := newInitStore(t, backend, bus)
	tabB := NewStore(backend, bus)
	tabB.Init(ctx)
	tabB.Init(ctx)
	assert.Equal(t, 2, bus.Subscribers(StorageKey))

	tabB.Dispose()
	assert.Equal(t, 1, bus.Subscribers(StorageKey))

	tabA.Add(ctx, item(1))
	assert.Equal(t, 0, tabB.Count())
}

func TestStore_SubscribeCancel(t *testing.T) {
	ctx := context.Background()
	store := newInitStore(t, memory_storage.NewStorage(), nil)

	var snapshots []Snapshot
	cancel := store.Subscribe(func(snapshot Snapshot) { snapshots = append(snapshots, snapshot) })
	store.Add(ctx, item(1))
	store.Add(ctx, item(1))
	cancel()
	store.Add(ctx, item(2))

	require.Len(t, snapshots, 1)
	assert.Equal(t, []int64{1}, snapshots[0].ItemIds())
}

func TestStoreRegistry(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	bus := memory_storage.NewBus()

	processA := NewStoreRegistry(backend, bus, nil)
	processB := NewStoreRegistry(backend, bus, nil)
	defer processA.Close()
	defer processB.Close()

	alice := processA.Get(ctx, "1")
	assert.Same(t, alice, processA.Get(ctx, "1"))

	alice.Add(ctx, item(7))
	processA.Get(ctx, "2").Add(ctx, item(8))
	processA.Get(ctx, "").Add(ctx, item(9))

	assert.Equal(t, []int64{7}, processB.Get(ctx, "1").ItemIds())
	assert.Equal(t, []int64{8}, processB.Get(ctx, "2").ItemIds())
	assert.Equal(t, []int64{9}, processB.Get(ctx, "").ItemIds())

	processB.Get(ctx, "1").Remove(ctx, 7)
	assert.Equal(t, 0, alice.Count())
	assert.ElementsMatch(t, []string{"user:1:wishlist", "user:2:wishlist", "guest:wishlist"}, backend.Keys())

	processA.Close()
	assert.Equal(t, 1, bus.Subscribers("user:1:wishlist"))
}

func TestStore_ResyncLosesToConcurrentLocalWrite(t *testing.T) {
	ctx := context.Background()
	backend := memory_storage.NewStorage()
	bus := memory_storage.NewBus()
	racing := &racingStorage{IStorage: backend}

	tabA := newInitStore(t, backend, bus)
	tabB := newInitStore(t, racing, bus)
	racing.onGet = func() { tabB.Add(ctx, item(2)) }

	tabA.Add(ctx, item(1))

	assert.Equal(t, []int64{2}, tabB.ItemIds())
	value, err := backend.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2,"name":"Product","url_key":"product","image":"","price":"20"}]`, value)
	assert.Equal(t, []int64{2}, tabA.ItemIds())
}

func TestStoreRegistry_EvictsIdleStores(t *testing.T) {
	ctx := context.Background()
	bus := memory_storage.NewBus()
	current := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	registry := NewStoreRegistry(memory_storage.NewStorage(), bus, nil).
		WithLimits(Limits{IdleTTL: time.Minute, Clock: func() time.Time { return current }})
	defer registry.Close()

	first := registry.Get(ctx, "1")
	first.Add(ctx, item(1))
	registry.Get(ctx, "2")
	assert.Equal(t, 2, registry.Len())

	current = current.Add(30 * time.Second)
	assert.Same(t, first, registry.Get(ctx, "1"))

	current = current.Add(45 * time.Second)
	registry.Get(ctx, "3")
	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, 0, bus.Subscribers("user:2:wishlist"))

	current = current.Add(2 * time.Minute)
	reloaded := registry.Get(ctx, "1")
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, []int64{1}, reloaded.ItemIds())
	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, 1, bus.Total())
}

func TestStoreRegistry_BoundedByMaxStores(t *testing.T) {
	ctx := context.Background()
	bus := memory_storage.NewBus()
	current := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	registry := NewStoreRegistry(memory_storage.NewStorage(), bus, nil).
		WithLimits(Limits{MaxStores: 100, Clock: func() time.Time {
			current = current.Add(time.Millisecond)
			return current
		}})
	defer registry.Close()

	for i := 0; i < 5000; i++ {
		registry.Get(ctx, fmt.Sprint(i))
	}
	assert.Equal(t, 100, registry.Len())
	assert.Equal(t, 100, bus.Total())
	assert.Equal(t, 1, bus.Subscribers("user:4999:wishlist"))
	assert.Equal(t, 0, bus.Subscribers("user:0:wishlist"))
}
