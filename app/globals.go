package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gitlab.faza.io/order-project/storefront-service/configs"
	"gitlab.faza.io/order-project/storefront-service/domain/orders"
	"gitlab.faza.io/order-project/storefront-service/domain/wishlist"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	storefront_service "gitlab.faza.io/order-project/storefront-service/infrastructure/services/storefront"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/storage"
	memory_storage "gitlab.faza.io/order-project/storefront-service/infrastructure/storage/memory"
	mongo_storage "gitlab.faza.io/order-project/storefront-service/infrastructure/storage/mongo"
	redis_storage "gitlab.faza.io/order-project/storefront-service/infrastructure/storage/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var Globals struct {
	Config            *configs.Config
	ZapLogger         *zap.Logger
	Logger            applog.Logger
	MongoDriver       *mongo.Client
	RedisClient       *redis.Client
	WishlistStorage   storage.IStorage
	WishlistNotifier  storage.INotifier
	StorefrontService storefront_service.IStorefrontService
	OrderService      orders.IOrderService
	Wishlists         *wishlist.StoreRegistry
}

func logger() applog.Logger {
	if Globals.Logger == nil {
		return applog.NewNopLogger()
	}
	return Globals.Logger
}

func MongoConfigOf(config configs.Config) mongo_storage.MongoConfig {
	return mongo_storage.MongoConfig{
		Host:            config.Mongo.Host,
		Port:            config.Mongo.Port,
		Username:        config.Mongo.User,
		Password:        config.Mongo.Pass,
		ConnTimeout:     time.Duration(config.Mongo.ConnectionTimeout) * time.Second,
		ReadTimeout:     time.Duration(config.Mongo.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(config.Mongo.WriteTimeout) * time.Second,
		MaxConnIdleTime: time.Duration(config.Mongo.MaxConnIdleTime) * time.Second,
		MaxPoolSize:     uint64(config.Mongo.MaxPoolSize),
		MinPoolSize:     uint64(config.Mongo.MinPoolSize),
		WriteConcernW:   config.Mongo.WriteConcernW,
		WriteConcernJ:   config.Mongo.WriteConcernJ,
		RetryWrites:     config.Mongo.RetryWrite,
	}
}

func SetupMongoDriver(ctx context.Context, config configs.Config) (*mongo.Client, error) {
	mongoDriver, err := mongo_storage.NewMongoClient(ctx, MongoConfigOf(config))
	if err != nil {
		logger().Error("mongo_storage.NewMongoClient failed",
			"fn", "SetupMongoDriver",
			"host", config.Mongo.Host,
			"error", err)
		return nil, errors.Wrap(err, "mongo_storage.NewMongoClient init failed")
	}
	return mongoDriver, nil
}

func SetupRedisClient(ctx context.Context, config configs.Config) (*redis.Client, error) {
	client := redis_storage.NewRedisClient(config.Redis.Address, config.Redis.Password, config.Redis.DB)
	if err := client.Ping(ctx).Err(); err != nil {
		logger().Error("redis ping failed",
			"fn", "SetupRedisClient",
			"address", config.Redis.Address,
			"error", err)
		_ = client.Close()
		return nil, errors.Wrap(err, "redis client init failed")
	}
	return client, nil
}

// SetupWishlistStorage builds the wishlist backend selected by the config.
// The mongo backend announces changes through redis when an address is
// configured, through the in process bus otherwise.
func SetupWishlistStorage(ctx context.Context, config configs.Config) (storage.IStorage, storage.INotifier, error) {
	switch config.Wishlist.Backend {
	case configs.BackendMemory, "":
		return memory_storage.NewStorage(), memory_storage.NewBus(), nil

	case configs.BackendRedis:
		client, err := SetupRedisClient(ctx, config)
		if err != nil {
			return nil, nil, err
		}
		Globals.RedisClient = client
		return redis_storage.NewRedisStorage(client, config.Wishlist.ChannelPrefix),
			redis_storage.NewRedisNotifier(client, config.Wishlist.ChannelPrefix, logger()), nil

	case configs.BackendMongo:
		mongoDriver, err := SetupMongoDriver(ctx, config)
		if err != nil {
			return nil, nil, err
		}
		Globals.MongoDriver = mongoDriver
		backend := mongo_storage.NewMongoStorage(mongoDriver, config.Mongo.Database, config.Mongo.Collection,
			time.Duration(config.Mongo.ReadTimeout)*time.Second, time.Duration(config.Mongo.WriteTimeout)*time.Second)

		if config.Redis.Address == "" {
			return backend, memory_storage.NewBus(), nil
		}
		client, err := SetupRedisClient(ctx, config)
		if err != nil {
			return nil, nil, err
		}
		Globals.RedisClient = client
		return backend, redis_storage.NewRedisNotifier(client, config.Wishlist.ChannelPrefix, logger()), nil
	}
	return nil, nil, errors.Errorf("unknown wishlist backend %q", config.Wishlist.Backend)
}

func SetupStorefrontService(config configs.Config) storefront_service.IStorefrontService {
	if config.StorefrontAPI.MockEnabled {
		logger().Info("storefront api mock enabled", "fn", "SetupStorefrontService")
		return storefront_service.NewStorefrontServiceMock()
	}
	return storefront_service.NewStorefrontService(config.StorefrontAPI.BaseURL,
		time.Duration(config.StorefrontAPI.Timeout)*time.Second, logger())
}

func SetupWishlists(config configs.Config) *wishlist.StoreRegistry {
	opts := make([]wishlist.Option, 0, 1)
	if config.Wishlist.Key != "" {
		opts = append(opts, wishlist.WithKey(config.Wishlist.Key))
	}
	return wishlist.NewStoreRegistry(Globals.WishlistStorage, Globals.WishlistNotifier, logger(), opts...).
		WithLimits(wishlist.Limits{
			IdleTTL:   time.Duration(config.Wishlist.IdleTTL) * time.Second,
			MaxStores: config.Wishlist.MaxStores,
		})
}

// Close releases the storage connections opened by the setup functions
func Close(ctx context.Context) {
	if Globals.Wishlists != nil {
		Globals.Wishlists.Close()
	}
	if Globals.RedisClient != nil {
		if err := Globals.RedisClient.Close(); err != nil {
			logger().Warn("redis close failed", "fn", "Close", "error", err)
		}
	}
	if Globals.MongoDriver != nil {
		if err := Globals.MongoDriver.Disconnect(ctx); err != nil {
			logger().Warn("mongo disconnect failed", "fn", "Close", "error", err)
		}
	}
}
