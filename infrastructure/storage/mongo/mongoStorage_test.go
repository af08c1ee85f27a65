package mongo_storage

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/storage"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoConfig_Uri(t *testing.T) {
	assert.Equal(t, "mongodb://localhost:27017", MongoConfig{Host: "localhost", Port: 27017}.uri())
	assert.Equal(t, "mongodb://admin:p%40ss@db:27018",
		MongoConfig{Host: "db", Port: 27018, Username: "admin", Password: "p@ss"}.uri())
}

func TestMongoStorage(t *testing.T) {
	host := os.Getenv("STOREFRONT_TEST_MONGO_HOST")
	if host == "" {
		t.Skip("STOREFRONT_TEST_MONGO_HOST not set")
	}
	port, err := strconv.Atoi(os.Getenv("STOREFRONT_TEST_MONGO_PORT"))
	if err != nil {
		port = 27017
	}

	ctx := context.Background()
	client, err := NewMongoClient(ctx, MongoConfig{
		Host:        host,
		Port:        port,
		Username:    os.Getenv("STOREFRONT_TEST_MONGO_USER"),
		Password:    os.Getenv("STOREFRONT_TEST_MONGO_PASS"),
		ConnTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(ctx) }()

	collection := "kv_" + uuid.NewString()
	defer func() { _ = client.Database("storefrontTest").Collection(collection).Drop(ctx) }()
	store := NewMongoStorage(client, "storefrontTest", collection, 3*time.Second, 3*time.Second)

	_, err = store.Get(ctx, "wishlist")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Set(ctx, "wishlist", `[]`))
	require.NoError(t, store.Set(ctx, "wishlist", `[{"id":3}]`))
	value, err := store.Get(ctx, "wishlist")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":3}]`, value)

	count, err := client.Database("storefrontTest").Collection(collection).CountDocuments(ctx, bson.D{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, store.Remove(ctx, "wishlist"))
	_, err = store.Get(ctx, "wishlist")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
