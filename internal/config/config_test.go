package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto-de-prueba")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "fleetstore", cfg.Mongo.Database)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "/ws/v1/escuchar", cfg.Realtime.WebSocketPath)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("MONGODB_DATABASE", "flota_test")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "flota_test", cfg.Mongo.Database)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "fleetstore.documentos", cfg.Redis.Channel)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
