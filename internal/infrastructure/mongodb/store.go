// Package mongodb implements the domain repositories on MongoDB.
//
// Connections are obtained through the Conn cache and model structs carry
// bson tags for serialization. Collection names and indexes are managed in
// one place so the data layout is visible at a glance.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aifinder/aifinder-api/internal/domain/repository"
)

// Collection name constants.
const (
	ColUsers         = "users"
	ColTools         = "ai_tools"
	ColPendingOrders = "pending_orders"
)

// Store wraps one database handle. The tools catalog and the user data live
// in separate deployments, so the container builds two stores.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore binds a store to a database on an already connected client and
// makes sure its indexes exist.
func NewStore(ctx context.Context, client *mongo.Client, dbName string, log *logrus.Logger) *Store {
	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		log.WithError(err).Warn("ensure indexes failed")
	}
	return s
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{ColUsers, bson.D{{Key: "clerk_id", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "email", Value: 1}}, false},
		{ColUsers, bson.D{{Key: "liked_tools", Value: 1}}, false},

		{ColTools, bson.D{{Key: "title", Value: 1}}, true},
		{ColTools, bson.D{{Key: "category", Value: 1}}, false},

		{ColPendingOrders, bson.D{{Key: "clerk_id", Value: 1}}, false},
		{ColPendingOrders, bson.D{{Key: "created_at", Value: -1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}

// wrapError maps driver errors onto the repository sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// findOne decodes a single document, mapping a miss to ErrNotFound.
func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.D) (*T, error) {
	var result T
	if err := col.FindOne(ctx, filter).Decode(&result); err != nil {
		return nil, wrapError(err)
	}
	return &result, nil
}

// findMany decodes every matching document.
func findMany[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if results == nil {
		results = []*T{}
	}
	return results, nil
}

func insertOne(ctx context.Context, col *mongo.Collection, doc interface{}) error {
	_, err := col.InsertOne(ctx, doc)
	return wrapError(err)
}
