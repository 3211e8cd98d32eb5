package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fleetstore/internal/shared/errors"
	"fleetstore/internal/store/domain/model"
	"fleetstore/internal/store/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const camino = "tenants/t1/autobuses"

func TestSetGetRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, camino, "a1", map[string]interface{}{"codigo": "BUS-1"}))

	doc, err := s.Get(ctx, camino, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", doc[model.FieldID])
	assert.Equal(t, "BUS-1", doc["codigo"])
}

func TestGetMissingReturnsSentinel(t *testing.T) {
	s := NewStore()
	_, err := s.Get(context.Background(), camino, "nope")
	assert.ErrorIs(t, err, errors.ErrDocumentNotFound)
}

func TestPatchMergesFields(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, camino, "a1", map[string]interface{}{"a": 1, "b": 2}))

	require.NoError(t, s.Patch(ctx, camino, "a1", map[string]interface{}{"b": 3}))

	doc, err := s.Get(ctx, camino, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, doc["a"])
	assert.Equal(t, 3, doc["b"])
}

func TestPatchMissingReturnsSentinel(t *testing.T) {
	s := NewStore()
	err := s.Patch(context.Background(), camino, "nope", map[string]interface{}{"a": 1})
	assert.ErrorIs(t, err, errors.ErrDocumentNotFound)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s := NewStore()
	assert.NoError(t, s.Delete(context.Background(), camino, "nope"))
}

func TestQueryFilterOperators(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, camino, "a1", map[string]interface{}{"km": 100, "estado": "activo", "tags": []string{"urbano", "diesel"}}))
	require.NoError(t, s.Set(ctx, camino, "a2", map[string]interface{}{"km": 250, "estado": "taller", "tags": []string{"urbano"}}))
	require.NoError(t, s.Set(ctx, camino, "a3", map[string]interface{}{"km": 400, "estado": "activo", "tags": []string{"interurbano"}}))

	tests := []struct {
		name   string
		filter model.Filter
		want   []string
	}{
		{"equal", model.Filter{FieldPath: "estado", Op: model.OperatorEqual, Value: "activo"}, []string{"a1", "a3"}},
		{"not equal", model.Filter{FieldPath: "estado", Op: model.OperatorNotEqual, Value: "activo"}, []string{"a2"}},
		{"less than", model.Filter{FieldPath: "km", Op: model.OperatorLessThan, Value: 250}, []string{"a1"}},
		{"lte", model.Filter{FieldPath: "km", Op: model.OperatorLessThanOrEqual, Value: 250}, []string{"a1", "a2"}},
		{"greater than", model.Filter{FieldPath: "km", Op: model.OperatorGreaterThan, Value: 250}, []string{"a3"}},
		{"gte", model.Filter{FieldPath: "km", Op: model.OperatorGreaterThanOrEqual, Value: 250}, []string{"a2", "a3"}},
		{"array contains", model.Filter{FieldPath: "tags", Op: model.OperatorArrayContains, Value: "diesel"}, []string{"a1"}},
		{"array contains any", model.Filter{FieldPath: "tags", Op: model.OperatorArrayContainsAny, Value: []string{"diesel", "interurbano"}}, []string{"a1", "a3"}},
		{"in", model.Filter{FieldPath: "estado", Op: model.OperatorIn, Value: []string{"taller", "baja"}}, []string{"a2"}},
		{"not in", model.Filter{FieldPath: "estado", Op: model.OperatorNotIn, Value: []string{"taller", "baja"}}, []string{"a1", "a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := s.Query(ctx, repository.Query{Path: camino, Filters: []model.Filter{tt.filter}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(docs))
		})
	}
}

func TestQueryOrderAndLimit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, camino, "a1", map[string]interface{}{"km": 300}))
	require.NoError(t, s.Set(ctx, camino, "a2", map[string]interface{}{"km": 100}))
	require.NoError(t, s.Set(ctx, camino, "a3", map[string]interface{}{"km": 200}))

	docs, err := s.Query(ctx, repository.Query{
		Path:   camino,
		Orders: []model.Order{{FieldPath: "km", Direction: model.Descending}},
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a3"}, ids(docs))
}

func TestQueryCursorContinuation(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("a%d", i)
		require.NoError(t, s.Set(ctx, camino, id, map[string]interface{}{"km": i * 10}))
	}

	orders := []model.Order{{FieldPath: "km"}}
	primera, err := s.Query(ctx, repository.Query{Path: camino, Orders: orders, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "a2"}, ids(primera))

	segunda, err := s.Query(ctx, repository.Query{
		Path:       camino,
		Orders:     orders,
		Limit:      10,
		StartAfter: model.NewCursor(primera[len(primera)-1]),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a4", "a5"}, ids(segunda))
}

func TestQueryOrdersByTime(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Set(ctx, camino, "viejo", map[string]interface{}{"createdAt": base}))
	require.NoError(t, s.Set(ctx, camino, "nuevo", map[string]interface{}{"createdAt": base.Add(time.Hour)}))

	docs, err := s.Query(ctx, repository.Query{
		Path:   camino,
		Orders: []model.Order{{FieldPath: "createdAt", Direction: model.Descending}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"nuevo", "viejo"}, ids(docs))
}

func TestFailPathInjectsErrors(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := fmt.Errorf("backend caído")
	s.FailPath(camino, boom)

	assert.ErrorIs(t, s.Set(ctx, camino, "a1", map[string]interface{}{}), boom)
	_, err := s.Query(ctx, repository.Query{Path: camino})
	assert.ErrorIs(t, err, boom)

	s.FailPath(camino, nil)
	assert.NoError(t, s.Set(ctx, camino, "a1", map[string]interface{}{}))
}

func TestOpsCounter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.Equal(t, 0, s.Ops())

	_ = s.Set(ctx, camino, "a1", map[string]interface{}{})
	_, _ = s.Get(ctx, camino, "a1")
	assert.Equal(t, 2, s.Ops())
}

func ids(docs []map[string]interface{}) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d[model.FieldID].(string))
	}
	return out
}
