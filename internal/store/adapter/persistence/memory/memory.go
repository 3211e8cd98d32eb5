// Package memory provides an in-process DocumentStore. It backs the service
// tests and local development; query semantics (filter operators, ordering
// with _id tiebreak, cursor continuation) mirror the MongoDB adapter.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fleetstore/internal/shared/errors"
	"fleetstore/internal/store/domain/model"
	"fleetstore/internal/store/domain/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is a thread-safe in-memory DocumentStore.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
	failures    map[string]error
	ops         int
	lastQuery   *repository.Query
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]interface{}),
		failures:    make(map[string]error),
	}
}

// FailPath makes every subsequent operation on path return err. Pass nil to
// clear. Used to simulate backend faults (e.g. a degraded audit backend).
func (s *Store) FailPath(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, path)
		return
	}
	s.failures[path] = err
}

// Ops returns how many backend operations have been executed. Lets tests
// verify that guarded calls performed no I/O.
func (s *Store) Ops() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ops
}

// LastQuery returns the most recent query executed, for assertions on what a
// service actually sent to the backend.
func (s *Store) LastQuery() *repository.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastQuery
}

// Set implements repository.DocumentStore.
func (s *Store) Set(ctx context.Context, path, id string, doc map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	if err := s.failures[path]; err != nil {
		return err
	}
	if s.collections[path] == nil {
		s.collections[path] = make(map[string]map[string]interface{})
	}
	stored := copyDoc(doc)
	stored[model.FieldID] = id
	s.collections[path][id] = stored
	return nil
}

// Get implements repository.DocumentStore.
func (s *Store) Get(ctx context.Context, path, id string) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	if err := s.failures[path]; err != nil {
		return nil, err
	}
	doc, ok := s.collections[path][id]
	if !ok {
		return nil, errors.ErrDocumentNotFound
	}
	return copyDoc(doc), nil
}

// Patch implements repository.DocumentStore.
func (s *Store) Patch(ctx context.Context, path, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	if err := s.failures[path]; err != nil {
		return err
	}
	doc, ok := s.collections[path][id]
	if !ok {
		return errors.ErrDocumentNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	doc[model.FieldID] = id
	return nil
}

// Delete implements repository.DocumentStore. Deleting a missing id is a
// no-op.
func (s *Store) Delete(ctx context.Context, path, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	if err := s.failures[path]; err != nil {
		return err
	}
	delete(s.collections[path], id)
	return nil
}

// Query implements repository.DocumentStore.
func (s *Store) Query(ctx context.Context, q repository.Query) ([]map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	captured := q
	s.lastQuery = &captured
	if err := s.failures[q.Path]; err != nil {
		return nil, err
	}

	var matched []map[string]interface{}
	for _, doc := range s.collections[q.Path] {
		if matchesAll(doc, q.Filters) {
			matched = append(matched, copyDoc(doc))
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return compareByOrders(matched[i], matched[j], q.Orders) < 0
	})

	if q.StartAfter != nil {
		matched = afterCursor(matched, q.StartAfter, q.Orders)
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func matchesAll(doc map[string]interface{}, filters []model.Filter) bool {
	for _, f := range filters {
		if !matches(doc, f) {
			return false
		}
	}
	return true
}

func matches(doc map[string]interface{}, f model.Filter) bool {
	val := doc[f.FieldPath]
	switch f.Op {
	case model.OperatorEqual:
		return equalValues(val, f.Value)
	case model.OperatorNotEqual:
		return !equalValues(val, f.Value)
	case model.OperatorLessThan, model.OperatorLessThanOrEqual,
		model.OperatorGreaterThan, model.OperatorGreaterThanOrEqual:
		cmp, ok := compareValues(val, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case model.OperatorLessThan:
			return cmp < 0
		case model.OperatorLessThanOrEqual:
			return cmp <= 0
		case model.OperatorGreaterThan:
			return cmp > 0
		default:
			return cmp >= 0
		}
	case model.OperatorArrayContains:
		for _, elem := range toSlice(val) {
			if equalValues(elem, f.Value) {
				return true
			}
		}
		return false
	case model.OperatorArrayContainsAny:
		elems := toSlice(val)
		for _, wanted := range toSlice(f.Value) {
			for _, elem := range elems {
				if equalValues(elem, wanted) {
					return true
				}
			}
		}
		return false
	case model.OperatorIn:
		for _, wanted := range toSlice(f.Value) {
			if equalValues(val, wanted) {
				return true
			}
		}
		return false
	case model.OperatorNotIn:
		for _, wanted := range toSlice(f.Value) {
			if equalValues(val, wanted) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareByOrders orders docs by the query orderings, then by _id ascending
// so the total order is stable for cursor pagination.
func compareByOrders(a, b map[string]interface{}, orders []model.Order) int {
	for _, o := range orders {
		cmp, ok := compareValues(a[o.FieldPath], b[o.FieldPath])
		if !ok || cmp == 0 {
			continue
		}
		if strings.EqualFold(o.Direction, model.Descending) {
			return -cmp
		}
		return cmp
	}
	cmp, _ := compareValues(a[model.FieldID], b[model.FieldID])
	return cmp
}

// afterCursor drops every doc at or before the cursor position in the sorted
// sequence.
func afterCursor(docs []map[string]interface{}, cursor *model.Cursor, orders []model.Order) []map[string]interface{} {
	for i, doc := range docs {
		if compareByOrders(cursor.Doc, doc, orders) < 0 {
			return docs[i:]
		}
	}
	return nil
}

func equalValues(a, b interface{}) bool {
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return false
}

// compareValues compares two scalar values after normalization. The second
// return is false when the values are not mutually comparable.
func compareValues(a, b interface{}) (int, bool) {
	na, nb := normalize(a), normalize(b)

	// Cursors that round-tripped through JSON carry timestamps as RFC3339
	// strings; fold them back when compared against a time value.
	if _, ok := na.(time.Time); ok {
		nb = parseTimeString(nb)
	}
	if _, ok := nb.(time.Time); ok {
		na = parseTimeString(na)
	}

	switch va := na.(type) {
	case nil:
		if nb == nil {
			return 0, true
		}
		return -1, true
	case float64:
		vb, ok := nb.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case va < vb:
			return -1, true
		case va > vb:
			return 1, true
		default:
			return 0, true
		}
	case string:
		vb, ok := nb.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case bool:
		vb, ok := nb.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case va == vb:
			return 0, true
		case !va:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		vb, ok := nb.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case va.Before(vb):
			return -1, true
		case va.After(vb):
			return 1, true
		default:
			return 0, true
		}
	default:
		if nb == nil {
			return 1, true
		}
		return 0, false
	}
}

// normalize folds the numeric and temporal types that reach the store
// (Go natives, bson primitives, JSON-decoded cursors) into comparable forms.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	default:
		return v
	}
}

func parseTimeString(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return v
}

func toSlice(v interface{}) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		return t
	case primitive.A:
		return t
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}

func copyDoc(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
