package repo

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

// MongoConnector owns the process-wide Mongo client. The client is created on
// the first Database call and reused afterwards; indexes are ensured once per
// connector, independently of the connection.
type MongoConnector struct {
	uri    string
	dbName string

	client  atomic.Pointer[mongo.Client]
	conn    initOnce
	indexes initOnce

	dial          func(ctx context.Context, uri string) (*mongo.Client, error)
	ensureIndexes func(ctx context.Context, db *mongo.Database) error
}

func NewMongoConnector(uri, dbName string) *MongoConnector {
	return &MongoConnector{
		uri:           uri,
		dbName:        dbName,
		dial:          dialMongo,
		ensureIndexes: ensureMongoIndexes,
	}
}

func (c *MongoConnector) Database(ctx context.Context) (*mongo.Database, error) {
	if c.uri == "" {
		return nil, fmt.Errorf("%w: missing MONGODB_URI", model.ErrConfiguration)
	}

	err := c.conn.Do(ctx, func(ctx context.Context) error {
		client, err := c.dial(ctx, c.uri)
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		c.client.Store(client)
		slog.Info("mongo connected", "db", c.dbName)
		return nil
	})
	if err != nil {
		return nil, err
	}

	db := c.client.Load().Database(c.dbName)

	err = c.indexes.Do(ctx, func(ctx context.Context) error {
		if err := c.ensureIndexes(ctx, db); err != nil {
			return fmt.Errorf("mongo ensure indexes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (c *MongoConnector) Close(ctx context.Context) error {
	client := c.client.Load()
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func dialMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(templatesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "templateId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(logsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "phone", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}
