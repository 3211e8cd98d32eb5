package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransicionesIncidencia(t *testing.T) {
	assert.True(t, EsTransicionValidaIncidencia(IncidenciaNueva, IncidenciaEnAnalisis))
	assert.True(t, EsTransicionValidaIncidencia(IncidenciaNueva, IncidenciaCerrada))
	assert.True(t, EsTransicionValidaIncidencia(IncidenciaResuelta, IncidenciaReabierta))
	assert.True(t, EsTransicionValidaIncidencia(IncidenciaCerrada, IncidenciaReabierta))

	assert.False(t, EsTransicionValidaIncidencia(IncidenciaNueva, IncidenciaResuelta))
	assert.False(t, EsTransicionValidaIncidencia(IncidenciaCerrada, IncidenciaNueva))
	assert.False(t, EsTransicionValidaIncidencia(IncidenciaReabierta, IncidenciaResuelta))
}

func TestTransicionesEquipo(t *testing.T) {
	assert.True(t, EsTransicionValidaEquipo(EquipoAlmacen, EquipoInstalado))
	assert.True(t, EsTransicionValidaEquipo(EquipoReparacion, EquipoAlmacen))

	// Repair must pass through the warehouse before reinstalling.
	assert.False(t, EsTransicionValidaEquipo(EquipoReparacion, EquipoInstalado))
	// Baja is final.
	assert.False(t, EsTransicionValidaEquipo(EquipoBaja, EquipoAlmacen))
}

func TestTransicionesAutobus(t *testing.T) {
	assert.True(t, EsTransicionValidaAutobus(AutobusOperativo, AutobusEnTaller))
	assert.True(t, EsTransicionValidaAutobus(AutobusAveriado, AutobusEnTaller))

	assert.False(t, EsTransicionValidaAutobus(AutobusAveriado, AutobusOperativo))
	assert.False(t, EsTransicionValidaAutobus(AutobusBaja, AutobusOperativo))
}

func TestSiguientesEstadosIncidencia(t *testing.T) {
	assert.ElementsMatch(t,
		[]EstadoIncidencia{IncidenciaEnAnalisis, IncidenciaCerrada},
		SiguientesEstadosIncidencia(IncidenciaNueva))
	assert.Empty(t, SiguientesEstadosIncidencia("inexistente"))
}

func TestPredicadosDeEstado(t *testing.T) {
	assert.True(t, EsIncidenciaAbierta(IncidenciaNueva))
	assert.True(t, EsIncidenciaAbierta(IncidenciaReabierta))
	assert.False(t, EsIncidenciaAbierta(IncidenciaResuelta))
	assert.False(t, EsIncidenciaAbierta(IncidenciaCerrada))

	assert.True(t, EsEquipoDisponible(EquipoAlmacen))
	assert.False(t, EsEquipoDisponible(EquipoInstalado))

	assert.True(t, EsAutobusDisponible(AutobusOperativo))
	assert.False(t, EsAutobusDisponible(AutobusEnTaller))
}
