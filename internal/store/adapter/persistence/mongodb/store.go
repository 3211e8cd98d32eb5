// Package mongodb implements the DocumentStore port on top of a MongoDB
// database. Collection paths map one-to-one to MongoDB collection names, so a
// tenant-scoped path like "tenants/t1/autobuses" is its own collection and
// tenant isolation holds at the namespace level.
package mongodb

import (
	"context"

	"fleetstore/internal/shared/contextkeys"
	"fleetstore/internal/shared/errors"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/domain/model"
	"fleetstore/internal/store/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the MongoDB-backed DocumentStore.
type Store struct {
	db  *mongo.Database
	log logger.Logger
}

// NewStore wraps an already-connected database handle.
func NewStore(db *mongo.Database, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{db: db, log: log.WithComponent("mongodb")}
}

var _ repository.DocumentStore = (*Store)(nil)

func (s *Store) collection(path string) *mongo.Collection {
	return s.db.Collection(path)
}

// Set writes doc at id, replacing any existing document (upsert).
func (s *Store) Set(ctx context.Context, path, id string, doc map[string]interface{}) error {
	replacement := make(bson.M, len(doc)+1)
	for k, v := range doc {
		replacement[k] = v
	}
	replacement[model.FieldID] = id

	_, err := s.collection(path).ReplaceOne(ctx, bson.M{model.FieldID: id}, replacement, options.Replace().SetUpsert(true))
	return err
}

// Get fetches the raw document at id, soft-deleted or not.
func (s *Store) Get(ctx context.Context, path, id string) (map[string]interface{}, error) {
	var doc bson.M
	err := s.collection(path).FindOne(ctx, bson.M{model.FieldID: id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Patch merges fields into the document at id via $set. The document must
// exist.
func (s *Store) Patch(ctx context.Context, path, id string, fields map[string]interface{}) error {
	res, err := s.collection(path).UpdateOne(ctx, bson.M{model.FieldID: id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.ErrDocumentNotFound
	}
	return nil
}

// Delete physically removes the document at id. Deleting a missing id is a
// no-op.
func (s *Store) Delete(ctx context.Context, path, id string) error {
	_, err := s.collection(path).DeleteOne(ctx, bson.M{model.FieldID: id})
	return err
}

// Query runs a filtered, ordered, cursor-resumable find. The _id ascending
// tiebreak is always appended to the sort so the order is total and cursor
// pages neither skip nor repeat documents.
func (s *Store) Query(ctx context.Context, q repository.Query) ([]map[string]interface{}, error) {
	filter := buildFilter(q.Filters)
	if q.StartAfter != nil {
		filter = mergeAnd(filter, buildCursorFilter(q.Orders, q.StartAfter.Doc))
	}

	opts := options.Find().SetSort(buildSort(q.Orders))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.collection(q.Path).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []map[string]interface{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			s.log.WithFields(map[string]interface{}{
				"path":   q.Path,
				"tenant": contextkeys.TenantIDFromContext(ctx),
			}).Errorf("documento ilegible: %v", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, cur.Err()
}
