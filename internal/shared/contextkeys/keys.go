// Package contextkeys defines the typed context.Context keys the HTTP layer
// stamps on each request so lower layers can enrich logs without threading
// extra parameters.
package contextkeys

import "context"

// contextKey is an unexported type so keys cannot collide with keys from
// other packages.
type contextKey string

func (c contextKey) String() string {
	return "fleetstore context key " + string(c)
}

// TenantIDKey carries the tenant id of the request in a context.Context.
const TenantIDKey = contextKey("tenantID")

// WithTenantID returns a context carrying the tenant id.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// TenantIDFromContext returns the tenant id stamped on the context, or ""
// when the request carries none.
func TenantIDFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(TenantIDKey).(string)
	return tenantID
}
