package model

import (
	"encoding/base64"
	"encoding/json"
)

// Filter is a single where clause: field, operator, value.
type Filter struct {
	FieldPath string      `json:"fieldPath"`
	Op        string      `json:"op"`
	Value     interface{} `json:"value"`
}

// Order is a single ordering clause.
type Order struct {
	FieldPath string `json:"fieldPath"`
	Direction string `json:"direction,omitempty"`
}

const (
	// Ascending orders smallest first. The default when a direction is empty.
	Ascending = "asc"
	// Descending orders largest first.
	Descending = "desc"
)

// Comparison and containment operators accepted in Filter.Op. They mirror the
// backend's native query operators.
const (
	OperatorEqual              = "=="
	OperatorNotEqual           = "!="
	OperatorLessThan           = "<"
	OperatorLessThanOrEqual    = "<="
	OperatorGreaterThan        = ">"
	OperatorGreaterThanOrEqual = ">="
	OperatorArrayContains      = "array-contains"
	OperatorArrayContainsAny   = "array-contains-any"
	OperatorIn                 = "in"
	OperatorNotIn              = "not-in"
)

// ListOptions shapes a paginated list call.
type ListOptions struct {
	Filters        []Filter `json:"filters,omitempty"`
	OrderBy        []Order  `json:"orderBy,omitempty"`
	PageSize       int      `json:"pageSize,omitempty"`
	StartAfter     *Cursor  `json:"startAfter,omitempty"`
	IncludeDeleted bool     `json:"includeDeleted,omitempty"`
}

// SearchOptions shapes a term-search call.
type SearchOptions struct {
	// Field is the precomputed token array to match against. Defaults to
	// "searchTerms".
	Field          string `json:"field,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	IncludeDeleted bool   `json:"includeDeleted,omitempty"`
}

// ListPage is one page of list results. LastDoc is the opaque continuation
// cursor for the next page; nil when the page is empty.
type ListPage[T any] struct {
	Items   []T     `json:"items"`
	LastDoc *Cursor `json:"lastDoc,omitempty"`
	HasMore bool    `json:"hasMore"`
}

// Cursor is an opaque pagination cursor: a snapshot of the last document of a
// page. Callers pass it back untouched via ListOptions.StartAfter; only the
// storage adapters look inside.
type Cursor struct {
	Doc map[string]interface{} `json:"doc"`
}

// NewCursor builds a cursor from a raw document snapshot.
func NewCursor(doc map[string]interface{}) *Cursor {
	if doc == nil {
		return nil
	}
	return &Cursor{Doc: doc}
}

// Encode serializes the cursor to a URL-safe token for transport.
func (c *Cursor) Encode() (string, error) {
	raw, err := json.Marshal(c.Doc)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeCursor parses a token produced by Encode. An empty token yields a nil
// cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &Cursor{Doc: doc}, nil
}
