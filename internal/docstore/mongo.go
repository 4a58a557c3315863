package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (m *MongoStore) ListAll(ctx context.Context, collection string, sort SortSpec, out any) error {
	opts := options.Find()
	if sort.Field != "" {
		dir := 1
		if sort.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: sort.Field, Value: dir}})
	}

	cursor, err := m.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

func (m *MongoStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := primitive.NewObjectID().Hex()
	fields[IDField] = id

	if _, err := m.db.Collection(collection).InsertOne(ctx, fields); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return id, nil
}

func (m *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	filter := bson.M{IDField: id}
	update := bson.M{"$set": bson.M(fields)}

	result, err := m.db.Collection(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateIndexes adds the sort index the order listing relies on.
func (m *MongoStore) CreateIndexes(ctx context.Context, collection, field string) error {
	index := mongo.IndexModel{Keys: bson.D{{Key: field, Value: -1}}}
	if _, err := m.db.Collection(collection).Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
