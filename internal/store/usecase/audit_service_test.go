package usecase

import (
	"context"
	"testing"

	stderrors "errors"

	"fleetstore/internal/shared/eventbus"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/adapter/persistence/memory"
	"fleetstore/internal/store/domain/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcularCambiosExactDiff(t *testing.T) {
	anterior := map[string]interface{}{"a": 1, "b": 2}
	nuevo := map[string]interface{}{"a": 1, "b": 5}

	cambios := CalcularCambios(anterior, nuevo)
	require.Len(t, cambios, 1)
	assert.Equal(t, "b", cambios[0].Campo)
	assert.Equal(t, 2, cambios[0].ValorAnterior)
	assert.Equal(t, 5, cambios[0].ValorNuevo)
}

func TestCalcularCambiosIgnoresBookkeeping(t *testing.T) {
	anterior := map[string]interface{}{
		"nombre":               "Bus-1",
		model.FieldUpdatedAt:   "2026-01-01",
		model.FieldEliminado:   false,
		model.FieldCreadoPor:   "u1",
		model.FieldSearchTerms: []string{"bus"},
	}
	nuevo := map[string]interface{}{
		"nombre":               "Bus-1",
		model.FieldUpdatedAt:   "2026-02-02",
		model.FieldEliminado:   true,
		model.FieldCreadoPor:   "u2",
		model.FieldSearchTerms: []string{"bus", "uno"},
	}
	assert.Empty(t, CalcularCambios(anterior, nuevo))
}

func TestCalcularCambiosAddedAndRemovedFields(t *testing.T) {
	cambios := CalcularCambios(
		map[string]interface{}{"viejo": "x"},
		map[string]interface{}{"nuevo": "y"},
	)
	require.Len(t, cambios, 2)
	// Sorted by field name.
	assert.Equal(t, "nuevo", cambios[0].Campo)
	assert.Nil(t, cambios[0].ValorAnterior)
	assert.Equal(t, "viejo", cambios[1].Campo)
	assert.Nil(t, cambios[1].ValorNuevo)
}

func TestCalcularCambiosEquivalentNumbers(t *testing.T) {
	// int32 from a stored document vs int from a fresh patch: same JSON, no
	// spurious change.
	cambios := CalcularCambios(
		map[string]interface{}{"plazas": int32(55)},
		map[string]interface{}{"plazas": 55},
	)
	assert.Empty(t, cambios)
}

func TestLogActionRequiresActor(t *testing.T) {
	store := memory.NewStore()
	audit := NewAuditService(store, nil, logger.NewNop())

	id := audit.LogAction(context.Background(), model.ServiceContext{TenantID: "t1"}, LogActionParams{
		Entidad:   "autobus",
		EntidadID: "a1",
		Accion:    model.AccionCrear,
	})
	assert.Empty(t, id)
	assert.Equal(t, 0, store.Ops())
}

func TestLogActionDefaults(t *testing.T) {
	store := memory.NewStore()
	audit := NewAuditService(store, nil, logger.NewNop())
	audit.now = fakeClock()
	ctx := context.Background()

	// Actor with uid only, no tenant: email/rol fall back to "desconocido",
	// tenant to "global".
	sctx := model.ServiceContext{Actor: &model.ActorContext{UID: "u1"}}
	entryID := audit.LogAction(ctx, sctx, LogActionParams{
		Entidad:   "autobus",
		EntidadID: "a1",
		Accion:    model.AccionActualizar,
	})
	require.NotEmpty(t, entryID)

	historial, err := audit.GetHistorial(ctx, "a1", AuditQueryOptions{})
	require.NoError(t, err)
	require.Len(t, historial, 1)
	entry := historial[0]
	assert.Equal(t, "desconocido", entry.UsuarioEmail)
	assert.Equal(t, "desconocido", entry.UsuarioRol)
	assert.Equal(t, "global", entry.TenantID)
	// A no-change update is still recorded, with an empty diff.
	assert.NotNil(t, entry.Cambios)
	assert.Empty(t, entry.Cambios)
}

func TestAuditFailureDoesNotAffectPrimary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sctx := ctxTenant()

	falloBackend := stderrors.New("backend caído")
	f.store.FailPath(auditCollection, falloBackend)

	antes := testutil.ToFloat64(auditWriteFailures.WithLabelValues("autobus", "crear"))

	id, err := f.svc.CreateAutoID(ctx, sctx, autobusPrueba{Nombre: "Bus-1"})
	require.NoError(t, err, "la operación principal no debe fallar por la auditoría")

	got, err := f.svc.GetByID(ctx, sctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	despues := testutil.ToFloat64(auditWriteFailures.WithLabelValues("autobus", "crear"))
	assert.Equal(t, antes+1, despues)

	f.store.FailPath(auditCollection, nil)
	historial, err := f.audit.GetHistorial(ctx, id, AuditQueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, historial, "la entrada fallida se descarta, no se reintenta")
}

func TestGetHistorialFilterByAccion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sctx := ctxTenant()

	id, err := f.svc.CreateAutoID(ctx, sctx, autobusPrueba{Nombre: "Bus-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.UpdatePartial(ctx, sctx, id, map[string]interface{}{"nombre": "Bus-2"}))
	require.NoError(t, f.svc.UpdatePartial(ctx, sctx, id, map[string]interface{}{"nombre": "Bus-3"}))

	soloUpdates, err := f.audit.GetHistorial(ctx, id, AuditQueryOptions{Accion: model.AccionActualizar})
	require.NoError(t, err)
	require.Len(t, soloUpdates, 2)
	for _, entry := range soloUpdates {
		assert.Equal(t, model.AccionActualizar, entry.Accion)
	}

	limitado, err := f.audit.GetHistorial(ctx, id, AuditQueryOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limitado, 1)
	assert.Equal(t, model.AccionActualizar, limitado[0].Accion, "el límite corta desde lo más reciente")
}

func TestGetHistorialPorTipo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateAutoID(ctx, ctxTenant(), autobusPrueba{Nombre: "Bus-t1"})
	require.NoError(t, err)

	otroTenant := model.ServiceContext{TenantID: "t2", Actor: &model.ActorContext{UID: "u9"}}
	_, err = f.svc.CreateAutoID(ctx, otroTenant, autobusPrueba{Nombre: "Bus-t2"})
	require.NoError(t, err)

	deT1, err := f.audit.GetHistorialPorTipo(ctx, "autobus", "t1", AuditQueryOptions{})
	require.NoError(t, err)
	require.Len(t, deT1, 1)
	assert.Equal(t, "t1", deT1[0].TenantID)
}

func TestLogCambioEstado(t *testing.T) {
	store := memory.NewStore()
	audit := NewAuditService(store, nil, logger.NewNop())
	audit.now = fakeClock()
	ctx := context.Background()

	entryID := audit.LogCambioEstado(ctx, ctxTenant(), "incidencia", "i1", "abierta", "en_progreso", "asignada a taller")
	require.NotEmpty(t, entryID)

	historial, err := audit.GetHistorial(ctx, "i1", AuditQueryOptions{})
	require.NoError(t, err)
	require.Len(t, historial, 1)
	entry := historial[0]
	assert.Equal(t, model.AccionCambioEstado, entry.Accion)
	assert.Equal(t, "asignada a taller", entry.MotivoCambio)
	require.Len(t, entry.Cambios, 1)
	assert.Equal(t, "estado", entry.Cambios[0].Campo)
	assert.Equal(t, "abierta", entry.Cambios[0].ValorAnterior)
	assert.Equal(t, "en_progreso", entry.Cambios[0].ValorNuevo)
}

func TestListenHistorial(t *testing.T) {
	store := memory.NewStore()
	bus := eventbus.NewEventBus(logger.NewNop())
	audit := NewAuditService(store, bus, logger.NewNop())
	audit.now = fakeClock()
	ctx := context.Background()
	sctx := ctxTenant()

	var entregas [][]model.AuditLog
	cancel := audit.ListenHistorial(ctx, "a1", func(logs []model.AuditLog) {
		entregas = append(entregas, logs)
	}, AuditQueryOptions{})
	defer cancel()

	// Initial snapshot is delivered synchronously, even when empty.
	require.Len(t, entregas, 1)
	assert.Empty(t, entregas[0])

	audit.LogCreacion(ctx, sctx, "autobus", "a1", map[string]interface{}{"nombre": "Bus-1"})
	require.Len(t, entregas, 2)
	require.Len(t, entregas[1], 1)
	assert.Equal(t, model.AccionCrear, entregas[1][0].Accion)

	// Entries for other entities do not trigger a refresh.
	audit.LogCreacion(ctx, sctx, "autobus", "zzz", map[string]interface{}{"nombre": "otro"})
	assert.Len(t, entregas, 2)

	cancel()
	audit.LogEliminacion(ctx, sctx, "autobus", "a1", "")
	assert.Len(t, entregas, 2, "sin entregas tras cancelar")
}
