package repository

import (
	"context"

	"fleetstore/internal/store/domain/model"
)

// Query is the storage-level query shape assembled by the collection service:
// AND-composed filters, ordered orderings, a hard limit, and an optional
// continuation cursor.
type Query struct {
	Path       string
	Filters    []model.Filter
	Orders     []model.Order
	Limit      int
	StartAfter *model.Cursor
}

// DocumentStore is the backend port the collection and audit services talk
// to. Documents travel as raw maps keyed by field name, with the id under
// "_id". Get returns errors.ErrDocumentNotFound when the id does not exist;
// the port performs no soft-delete interpretation, that is service policy.
type DocumentStore interface {
	// Set writes doc at id, overwriting any existing document (no merge).
	Set(ctx context.Context, path, id string, doc map[string]interface{}) error
	// Get fetches the raw document at id.
	Get(ctx context.Context, path, id string) (map[string]interface{}, error)
	// Patch merges fields into the document at id, leaving other fields
	// untouched. Returns ErrDocumentNotFound when id does not exist.
	Patch(ctx context.Context, path, id string, fields map[string]interface{}) error
	// Delete physically removes the document. Deleting a missing id is a
	// no-op, not an error.
	Delete(ctx context.Context, path, id string) error
	// Query runs q and returns matching raw documents in query order.
	Query(ctx context.Context, q Query) ([]map[string]interface{}, error)
}

// CollectionPathResolver routes a service context to a collection path,
// typically "tenants/{tenantId}/<entity>". Tenant isolation is enforced at
// this level: a caller cannot address another tenant's collection without
// putting that tenant's id in the context.
type CollectionPathResolver interface {
	ResolvePath(ctx model.ServiceContext) string
}

// PathResolverFunc adapts a plain function to CollectionPathResolver.
type PathResolverFunc func(ctx model.ServiceContext) string

// ResolvePath implements CollectionPathResolver.
func (f PathResolverFunc) ResolvePath(ctx model.ServiceContext) string {
	return f(ctx)
}

// TenantCollection returns a resolver for "tenants/{tenantId}/<name>".
func TenantCollection(name string) CollectionPathResolver {
	return PathResolverFunc(func(ctx model.ServiceContext) string {
		return "tenants/" + ctx.TenantID + "/" + name
	})
}

// GlobalCollection returns a resolver for a fixed, tenant-independent path.
func GlobalCollection(name string) CollectionPathResolver {
	return PathResolverFunc(func(model.ServiceContext) string {
		return name
	})
}
