// Package mongo stores events as documents in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/PredictChain/server/internal/domain/events"
)

// Connect dials MongoDB and pings the primary before returning.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Store is an events.Store over one collection. Event ids are ULIDs, so
// sorting by _id yields insertion order.
type Store struct {
	coll *mongo.Collection
}

var _ events.Store = (*Store)(nil)

func NewStore(client *mongo.Client, database, collection string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("mongo store: client is nil")
	}
	return &Store{coll: client.Database(database).Collection(collection)}, nil
}

// EnsureIndexes creates the index backing approval-filtered listings.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "is_approved", Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("is_approved_id"),
	})
	if err != nil {
		return fmt.Errorf("create events index: %w", err)
	}
	return nil
}

func toBSON(filter events.Filter) bson.D {
	query := bson.D{}
	if filter.ID != "" {
		query = append(query, bson.E{Key: "_id", Value: filter.ID})
	}
	if filter.Approved != nil {
		query = append(query, bson.E{Key: "is_approved", Value: *filter.Approved})
	}
	return query
}

var insertionOrder = bson.D{{Key: "_id", Value: 1}}

func (s *Store) Find(ctx context.Context, filter events.Filter, opts events.FindOptions) ([]events.Document, error) {
	findOpts := options.Find().SetSort(insertionOrder)
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := s.coll.Find(ctx, toBSON(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	docs := make([]events.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return docs, nil
}

func (s *Store) Count(ctx context.Context, filter events.Filter) (int64, error) {
	total, err := s.coll.CountDocuments(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return total, nil
}

func (s *Store) FindOne(ctx context.Context, filter events.Filter) (*events.Document, error) {
	res := s.coll.FindOne(ctx, toBSON(filter), options.FindOne().SetSort(insertionOrder))
	return decodeOne(res, "find event")
}

func (s *Store) InsertOne(ctx context.Context, doc events.Document) error {
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert event %s: %w", doc.ID, events.ErrConflict)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) UpdateOne(ctx context.Context, filter events.Filter, update events.Update) (*events.Document, error) {
	if filter.ID == "" {
		return nil, fmt.Errorf("update event: id filter required")
	}
	set := bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_approved", Value: update.IsApproved},
		{Key: "event_public_key", Value: update.EventPublicKey},
	}}}
	res := s.coll.FindOneAndUpdate(ctx, toBSON(filter), set,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	return decodeOne(res, "update event")
}

func (s *Store) DeleteOne(ctx context.Context, filter events.Filter) (*events.Document, error) {
	if filter.ID == "" {
		return nil, fmt.Errorf("delete event: id filter required")
	}
	return decodeOne(s.coll.FindOneAndDelete(ctx, toBSON(filter)), "delete event")
}

// ReplaceAll is not atomic: readers may briefly observe an empty collection.
func (s *Store) ReplaceAll(ctx context.Context, docs []events.Document) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}
	batch := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		batch = append(batch, doc)
	}
	if _, err := s.coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func decodeOne(res *mongo.SingleResult, op string) (*events.Document, error) {
	var doc events.Document
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &doc, nil
}
