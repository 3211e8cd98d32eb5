package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerarCodigoIncidencia(t *testing.T) {
	assert.Equal(t, "INC-2026-00001", GenerarCodigoIncidencia(1, 2026))
	assert.Equal(t, "INC-2026-00123", GenerarCodigoIncidencia(123, 2026))
}

func TestGenerarCodigoEquipo(t *testing.T) {
	assert.Equal(t, "CAM-321-001", GenerarCodigoEquipo("camara", "321", 1))
	assert.Equal(t, "CPU-321-002", GenerarCodigoEquipo("cpu", "321", 2))
	// Unknown type falls back to EQP.
	assert.Equal(t, "EQP-321-001", GenerarCodigoEquipo("hologramas", "321", 1))
}

func TestEsCodigoIncidenciaValido(t *testing.T) {
	assert.True(t, EsCodigoIncidenciaValido("INC-2026-00001"))
	assert.False(t, EsCodigoIncidenciaValido("INC-26-00001"))
	assert.False(t, EsCodigoIncidenciaValido("OT-2026-00001"))
	assert.False(t, EsCodigoIncidenciaValido("INC-2026-1"))
}

func TestExtraerCorrelativoYAnio(t *testing.T) {
	n, ok := ExtraerCorrelativo("INC-2026-00123")
	assert.True(t, ok)
	assert.Equal(t, 123, n)

	n, ok = ExtraerCorrelativo("CAM-321-002")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = ExtraerCorrelativo("sin-numero-final")
	assert.False(t, ok)

	anio, ok := ExtraerAnio("INC-2026-00123")
	assert.True(t, ok)
	assert.Equal(t, 2026, anio)

	_, ok = ExtraerAnio("CAM-321-002")
	assert.False(t, ok)
}

func TestSiguienteCodigoIncidencia(t *testing.T) {
	assert.Equal(t, "INC-2026-00124", SiguienteCodigoIncidencia("INC-2026-00123", 2026))
	// Year change restarts the sequence.
	assert.Equal(t, "INC-2027-00001", SiguienteCodigoIncidencia("INC-2026-00123", 2027))
	// No previous code.
	assert.Equal(t, "INC-2026-00001", SiguienteCodigoIncidencia("", 2026))
}
