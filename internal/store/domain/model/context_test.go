package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildServiceContextWithUser(t *testing.T) {
	ctx := BuildServiceContext(&AuthUser{UID: "u1", Email: "u1@flota.eus"}, "t1")

	assert.Equal(t, "t1", ctx.TenantID)
	require.NotNil(t, ctx.Actor)
	assert.Equal(t, "u1", ctx.Actor.UID)
	assert.Equal(t, "u1@flota.eus", ctx.Actor.Email)
}

func TestBuildServiceContextWithoutUser(t *testing.T) {
	ctx := BuildServiceContext(nil, "t1")

	assert.Equal(t, "t1", ctx.TenantID)
	assert.Nil(t, ctx.Actor)
}

func TestBuildServiceContextPassesEmptyTenantThrough(t *testing.T) {
	// No validation here: the consuming service decides whether an absent
	// tenant is acceptable.
	ctx := BuildServiceContext(&AuthUser{UID: "u1"}, "")

	assert.Empty(t, ctx.TenantID)
	require.NotNil(t, ctx.Actor)
	assert.Empty(t, ctx.Actor.Email)
}

func TestActorUID(t *testing.T) {
	assert.Empty(t, ServiceContext{}.ActorUID())
	assert.Equal(t, "u2", ServiceContext{Actor: &ActorContext{UID: "u2"}}.ActorUID())
}
