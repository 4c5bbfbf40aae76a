// Package mongostore keeps form schemas in a MongoDB collection, one
// document per form id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/store"
)

// DefaultCollection is used when Connect is not given a collection name.
const DefaultCollection = "formflow_forms"

// Collection is the subset of *mongo.Collection the store relies on.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// Document is the persisted shape of a form.
type Document struct {
	ID        int64     `bson:"_id"`
	Revision  string    `bson:"revision"`
	Body      string    `bson:"body"`
	CreatedAt time.Time `bson:"created_at,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Option customises a Store.
type Option func(*Store)

// WithLogger routes store diagnostics to logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store implements store.Store on a Mongo collection.
type Store struct {
	coll   Collection
	client *mongo.Client
	logger *zap.Logger
	now    func() time.Time
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Lister = (*Store)(nil)
)

// Connect dials uri, verifies the connection and binds the store to
// database.collection.
func Connect(ctx context.Context, uri, database, collection string, opts ...Option) (*Store, error) {
	if database == "" {
		return nil, errors.New("mongostore: database name is required")
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := New(client.Database(database).Collection(collection), opts...)
	s.client = client
	return s, nil
}

// New wraps an existing collection.
func New(coll Collection, opts ...Option) *Store {
	s := &Store{
		coll:   coll,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, id int64) (schema.Schema, bool, error) {
	if err := store.CheckID(id); err != nil {
		return schema.Schema{}, false, err
	}

	var doc Document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return schema.Schema{}, false, nil
	}
	if err != nil {
		return schema.Schema{}, false, fmt.Errorf("mongostore: load form %d: %w", id, err)
	}

	form, err := store.Unmarshal([]byte(doc.Body))
	if err != nil {
		return schema.Schema{}, false, fmt.Errorf("mongostore: form %d revision %s: %w", id, doc.Revision, err)
	}
	return form, true, nil
}

// Save implements store.Store using an upsert keyed by id.
func (s *Store) Save(ctx context.Context, id int64, form schema.Schema) error {
	if err := store.CheckID(id); err != nil {
		return err
	}
	blob, err := store.Marshal(form)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	revision := uuid.New().String()
	update := bson.M{
		"$set": bson.M{
			"revision":   revision,
			"body":       string(blob),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("mongostore: save form %d: %w", id, err)
	}
	s.logger.Debug("form saved", zap.Int64("form_id", id), zap.String("revision", revision))
	return nil
}

// IDs implements store.Lister.
func (s *Store) IDs(ctx context.Context) ([]int64, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: list forms: %w", err)
	}
	var docs []struct {
		ID int64 `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: list forms: %w", err)
	}
	ids := make([]int64, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// Close disconnects the client opened by Connect. Stores built with New
// leave the caller's client untouched.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
