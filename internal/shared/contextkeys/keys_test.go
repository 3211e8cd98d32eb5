package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeysDoNotCollide(t *testing.T) {
	ctx := context.WithValue(context.Background(), TenantIDKey, "t1")

	assert.Equal(t, "t1", ctx.Value(TenantIDKey))

	// A plain string with the same text must not read our typed key.
	assert.Nil(t, ctx.Value("tenantID"))
}

func TestKeyString(t *testing.T) {
	assert.Contains(t, TenantIDKey.String(), "tenantID")
}

func TestTenantIDRoundTrip(t *testing.T) {
	ctx := WithTenantID(context.Background(), "bilbobus")
	assert.Equal(t, "bilbobus", TenantIDFromContext(ctx))
	assert.Empty(t, TenantIDFromContext(context.Background()))
}
