package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string // defaults to "tessera"
	Collection string // defaults to "snapshots"
}

// MongoStore keeps one document per key: {_id, data, expires_at, updated_at}.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	ExpiresAt time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "tessera"
	}
	if cfg.Collection == "" {
		cfg.Collection = "snapshots"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Get returns the document's data, or a miss if absent or expired.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if expired(doc.ExpiresAt) {
		_, _ = s.coll.DeleteOne(ctx, bson.M{"_id": key})
		return nil, false, nil
	}
	return doc.Data, true, nil
}

// Set upserts the document for key.
func (s *MongoStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	doc := mongoDoc{
		Key:       key,
		Data:      data,
		ExpiresAt: expiry(ttl),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

// Delete removes the document for key.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
