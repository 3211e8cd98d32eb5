package mongodb

import (
	"strings"

	"fleetstore/internal/store/domain/model"

	"go.mongodb.org/mongo-driver/bson"
)

// buildFilter translates the portable filter list into a MongoDB filter
// document. Multiple filters combine with $and.
func buildFilter(filters []model.Filter) bson.M {
	if len(filters) == 0 {
		return bson.M{}
	}
	clauses := make([]bson.M, 0, len(filters))
	for _, f := range filters {
		clauses = append(clauses, singleFilter(f))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return bson.M{"$and": clauses}
}

func singleFilter(f model.Filter) bson.M {
	switch f.Op {
	case model.OperatorEqual:
		return bson.M{f.FieldPath: f.Value}
	case model.OperatorNotEqual:
		return bson.M{f.FieldPath: bson.M{"$ne": f.Value}}
	case model.OperatorLessThan:
		return bson.M{f.FieldPath: bson.M{"$lt": f.Value}}
	case model.OperatorLessThanOrEqual:
		return bson.M{f.FieldPath: bson.M{"$lte": f.Value}}
	case model.OperatorGreaterThan:
		return bson.M{f.FieldPath: bson.M{"$gt": f.Value}}
	case model.OperatorGreaterThanOrEqual:
		return bson.M{f.FieldPath: bson.M{"$gte": f.Value}}
	case model.OperatorArrayContains:
		return bson.M{f.FieldPath: bson.M{"$elemMatch": bson.M{"$eq": f.Value}}}
	case model.OperatorArrayContainsAny:
		return bson.M{f.FieldPath: bson.M{"$in": f.Value}}
	case model.OperatorIn:
		return bson.M{f.FieldPath: bson.M{"$in": f.Value}}
	case model.OperatorNotIn:
		return bson.M{f.FieldPath: bson.M{"$nin": f.Value}}
	default:
		return bson.M{f.FieldPath: f.Value}
	}
}

// effectiveOrders is the caller's sort with the _id ascending tiebreak
// appended, unless the caller already sorts by _id.
func effectiveOrders(orders []model.Order) []model.Order {
	for _, o := range orders {
		if o.FieldPath == model.FieldID {
			return orders
		}
	}
	out := make([]model.Order, 0, len(orders)+1)
	out = append(out, orders...)
	return append(out, model.Order{FieldPath: model.FieldID, Direction: model.Ascending})
}

// descending folds the direction case, so "desc"/"DESC" sort the same here
// and in the memory store.
func descending(o model.Order) bool {
	return strings.EqualFold(o.Direction, model.Descending)
}

// buildSort translates orders into a MongoDB sort document, tiebreak included.
func buildSort(orders []model.Order) bson.D {
	sort := bson.D{}
	for _, o := range effectiveOrders(orders) {
		dir := 1
		if descending(o) {
			dir = -1
		}
		sort = append(sort, bson.E{Key: o.FieldPath, Value: dir})
	}
	return sort
}

// buildCursorFilter builds the strictly-after condition for a cursor document
// under the effective sort. For orders (f1..fn) it is the disjunction of
// "equal on f1..f(i-1) and strictly past on fi", which is the tuple comparison
// MongoDB cannot express directly.
func buildCursorFilter(orders []model.Order, cursorDoc map[string]interface{}) bson.M {
	eff := effectiveOrders(orders)

	branches := make([]bson.M, 0, len(eff))
	for i, o := range eff {
		branch := make(bson.M, i+1)
		for _, prev := range eff[:i] {
			branch[prev.FieldPath] = cursorDoc[prev.FieldPath]
		}
		op := "$gt"
		if descending(o) {
			op = "$lt"
		}
		branch[o.FieldPath] = bson.M{op: cursorDoc[o.FieldPath]}
		branches = append(branches, branch)
	}
	if len(branches) == 1 {
		return branches[0]
	}
	return bson.M{"$or": branches}
}

// mergeAnd combines two filter documents with $and, flattening any existing
// top-level $and of the first.
func mergeAnd(a, b bson.M) bson.M {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	if existing, ok := a["$and"].([]bson.M); ok {
		return bson.M{"$and": append(existing, b)}
	}
	return bson.M{"$and": []bson.M{a, b}}
}
