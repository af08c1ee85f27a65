package mongo_storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type MongoConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	ConnTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxConnIdleTime time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	WriteConcernW   string
	WriteConcernJ   bool
	RetryWrites     bool
}

func (conf MongoConfig) uri() string {
	if conf.Username == "" {
		return fmt.Sprintf("mongodb://%s:%d", conf.Host, conf.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%d", url.QueryEscape(conf.Username),
		url.QueryEscape(conf.Password), conf.Host, conf.Port)
}

// NewMongoClient connects and pings the server within ConnTimeout
func NewMongoClient(ctx context.Context, conf MongoConfig) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(conf.uri()).
		SetRetryWrites(conf.RetryWrites)

	if conf.ConnTimeout > 0 {
		clientOptions.SetConnectTimeout(conf.ConnTimeout)
	}
	if conf.MaxConnIdleTime > 0 {
		clientOptions.SetMaxConnIdleTime(conf.MaxConnIdleTime)
	}
	if conf.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(conf.MaxPoolSize)
	}
	if conf.MinPoolSize > 0 {
		clientOptions.SetMinPoolSize(conf.MinPoolSize)
	}

	concern := &writeconcern.WriteConcern{Journal: &conf.WriteConcernJ}
	if conf.WriteConcernW == "majority" || conf.WriteConcernW == "" {
		concern.W = "majority"
	} else {
		var w int
		if _, err := fmt.Sscanf(conf.WriteConcernW, "%d", &w); err != nil {
			return nil, errors.Errorf("invalid write concern %q", conf.WriteConcernW)
		}
		concern.W = w
	}
	clientOptions.SetWriteConcern(concern)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect failed")
	}

	pingCtx := ctx
	if conf.ConnTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, conf.ConnTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo ping failed")
	}
	return client, nil
}

type document struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type iMongoStorageImpl struct {
	collection   *mongo.Collection
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewMongoStorage keeps one document per key in the collection
func NewMongoStorage(client *mongo.Client, database, collection string, readTimeout, writeTimeout time.Duration) storage.IStorage {
	return &iMongoStorageImpl{
		collection:   client.Database(database).Collection(collection),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (store iMongoStorageImpl) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := withTimeout(ctx, store.readTimeout)
	defer cancel()

	var doc document
	if err := store.collection.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", storage.ErrNotFound
		}
		return "", errors.Wrap(err, "mongo find failed")
	}
	return doc.Value, nil
}

func (store iMongoStorageImpl) Set(ctx context.Context, key, value string) error {
	ctx, cancel := withTimeout(ctx, store.writeTimeout)
	defer cancel()

	opt := options.Update()
	opt.SetUpsert(true)
	_, err := store.collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: key}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "value", Value: value},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}}, opt)
	if err != nil {
		return errors.Wrap(err, "mongo upsert failed")
	}
	return nil
}

func (store iMongoStorageImpl) Remove(ctx context.Context, key string) error {
	ctx, cancel := withTimeout(ctx, store.writeTimeout)
	defer cancel()

	if _, err := store.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}}); err != nil {
		return errors.Wrap(err, "mongo delete failed")
	}
	return nil
}
