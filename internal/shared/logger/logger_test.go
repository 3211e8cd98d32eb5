package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithConfigDefaults(t *testing.T) {
	l := NewLoggerWithConfig("not-a-level", "not-a-format")
	require.NotNil(t, l)

	// Must not panic with an unparsable level/format.
	l.Info("mensaje de prueba")
	l.Debugf("detalle %d", 1)
}

func TestWithComponent(t *testing.T) {
	l := NewLoggerWithConfig("debug", "json")
	scoped := l.WithComponent("audit")

	require.NotNil(t, scoped)
	assert.NotSame(t, l, scoped)
	scoped.Warn("componente escribiendo")
}

func TestWithFields(t *testing.T) {
	l := NewLoggerWithConfig("info", "text")
	scoped := l.WithFields(map[string]interface{}{"tenantId": "t1", "entidad": "autobus"})

	require.NotNil(t, scoped)
	scoped.Info("entrada con campos")
}

func TestNopLoggerDiscards(t *testing.T) {
	l := NewNop()
	l.Error("esto no debe aparecer")
	l.WithComponent("x").WithFields(map[string]interface{}{"k": "v"}).Info("tampoco")
}
