package repository

import (
	"context"
	"errors"
	"time"

	"nocarchive-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// normalizeValue rewrites BSON container and timestamp types into plain Go
// values so callers never see driver types.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.M:
		return normalizeDoc(map[string]interface{}(t))
	case map[string]interface{}:
		return normalizeDoc(t)
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case primitive.DateTime:
		return t.Time()
	default:
		return v
	}
}

func normalizeDoc(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

// MongoDocumentStore implements the DocumentStore interface on MongoDB
// collections. Document IDs are stored as _id; one mirror document per
// flight keeps every document well under the size ceiling.
type MongoDocumentStore struct {
	db *mongo.Database
}

// NewMongoDocumentStore creates a new MongoDB document store
func NewMongoDocumentStore(db *mongo.Database) repository.DocumentStore {
	// Day-grouped lookups on the flights mirror.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dayIndex := mongo.IndexModel{
		Keys: bson.M{"day": 1},
	}
	db.Collection(repository.CollectionDailyFlights).Indexes().CreateOne(ctx, dayIndex)

	return &MongoDocumentStore{
		db: db,
	}
}

// Put creates or overwrites one document
func (s *MongoDocumentStore) Put(ctx context.Context, collection, docID string, data map[string]interface{}) error {
	doc := bson.M{}
	for k, v := range data {
		doc[k] = v
	}
	doc["updated_at"] = time.Now()

	opts := options.Update().SetUpsert(true)
	_, err := s.db.Collection(collection).UpdateOne(
		ctx,
		bson.M{"_id": docID},
		bson.M{"$set": doc},
		opts,
	)
	return err
}

// Get returns one document, nil when absent
func (s *MongoDocumentStore) Get(ctx context.Context, collection, docID string) (map[string]interface{}, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": docID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return normalizeDoc(doc), nil
}

// Stream invokes fn for every document of the collection
func (s *MongoDocumentStore) Stream(ctx context.Context, collection string, fn func(docID string, data map[string]interface{}) error) error {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		docID, _ := doc["_id"].(string)
		delete(doc, "_id")
		if err := fn(docID, normalizeDoc(doc)); err != nil {
			return err
		}
	}
	return cursor.Err()
}
