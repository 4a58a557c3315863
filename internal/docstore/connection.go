package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions sizes the client pool and bounds how long connecting may take.
// Zero values leave the driver defaults in place.
type MongoOptions struct {
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

func (o MongoOptions) validate() error {
	if o.MaxPoolSize > 0 && o.MinPoolSize > o.MaxPoolSize {
		return fmt.Errorf("mongo min pool size %d exceeds max %d", o.MinPoolSize, o.MaxPoolSize)
	}
	if o.ConnectTimeout < 0 || o.ServerSelectionTimeout < 0 {
		return errors.New("mongo timeouts must not be negative")
	}
	return nil
}

func (o MongoOptions) clientOptions(uri string) *options.ClientOptions {
	opts := options.Client().ApplyURI(uri)
	if o.ConnectTimeout > 0 {
		opts.SetConnectTimeout(o.ConnectTimeout)
	}
	if o.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(o.ServerSelectionTimeout)
	}
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		opts.SetMinPoolSize(o.MinPoolSize)
	}
	return opts
}

// ConnectMongoDB opens a client for uri, checks the server answers and
// returns the named database.
func ConnectMongoDB(ctx context.Context, uri, database string, opts MongoOptions) (*mongo.Database, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, opts.clientOptions(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongo at %s: %w", database, err)
	}
	return client.Database(database), nil
}
