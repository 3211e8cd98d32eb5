package fleet

// EstadoAutobus is the lifecycle state of a bus.
type EstadoAutobus string

const (
	AutobusOperativo EstadoAutobus = "operativo"
	AutobusEnTaller  EstadoAutobus = "en_taller"
	AutobusAveriado  EstadoAutobus = "averiado"
	AutobusBaja      EstadoAutobus = "baja"
)

// EstadoEquipo is the inventory state of an on-board equipment unit.
type EstadoEquipo string

const (
	EquipoInstalado  EstadoEquipo = "instalado"
	EquipoAlmacen    EstadoEquipo = "almacen"
	EquipoReparacion EstadoEquipo = "reparacion"
	EquipoBaja       EstadoEquipo = "baja"
)

// EstadoIncidencia is the workflow state of an incident.
type EstadoIncidencia string

const (
	IncidenciaNueva          EstadoIncidencia = "nueva"
	IncidenciaEnAnalisis     EstadoIncidencia = "en_analisis"
	IncidenciaEnIntervencion EstadoIncidencia = "en_intervencion"
	IncidenciaResuelta       EstadoIncidencia = "resuelta"
	IncidenciaCerrada        EstadoIncidencia = "cerrada"
	IncidenciaReabierta      EstadoIncidencia = "reabierta"
)

// transicionesIncidencia is the incident state machine. Source of truth for
// which transitions CambiarEstado accepts.
var transicionesIncidencia = map[EstadoIncidencia][]EstadoIncidencia{
	IncidenciaNueva:          {IncidenciaEnAnalisis, IncidenciaCerrada},
	IncidenciaEnAnalisis:     {IncidenciaEnIntervencion, IncidenciaNueva},
	IncidenciaEnIntervencion: {IncidenciaResuelta, IncidenciaEnAnalisis},
	IncidenciaResuelta:       {IncidenciaCerrada, IncidenciaReabierta},
	IncidenciaCerrada:        {IncidenciaReabierta},
	IncidenciaReabierta:      {IncidenciaEnAnalisis},
}

// transicionesEquipo: repair never goes straight back to installed, and baja
// is final.
var transicionesEquipo = map[EstadoEquipo][]EstadoEquipo{
	EquipoInstalado:  {EquipoAlmacen, EquipoReparacion, EquipoBaja},
	EquipoAlmacen:    {EquipoInstalado, EquipoReparacion, EquipoBaja},
	EquipoReparacion: {EquipoAlmacen, EquipoBaja},
	EquipoBaja:       {},
}

// transicionesAutobus: baja is final.
var transicionesAutobus = map[EstadoAutobus][]EstadoAutobus{
	AutobusOperativo: {AutobusEnTaller, AutobusAveriado, AutobusBaja},
	AutobusEnTaller:  {AutobusOperativo, AutobusAveriado, AutobusBaja},
	AutobusAveriado:  {AutobusEnTaller, AutobusBaja},
	AutobusBaja:      {},
}

// EsTransicionValidaIncidencia reports whether an incident may move from
// actual to nuevo.
func EsTransicionValidaIncidencia(actual, nuevo EstadoIncidencia) bool {
	return contiene(transicionesIncidencia[actual], nuevo)
}

// EsTransicionValidaEquipo reports whether an equipment unit may move from
// actual to nuevo.
func EsTransicionValidaEquipo(actual, nuevo EstadoEquipo) bool {
	return contiene(transicionesEquipo[actual], nuevo)
}

// EsTransicionValidaAutobus reports whether a bus may move from actual to
// nuevo.
func EsTransicionValidaAutobus(actual, nuevo EstadoAutobus) bool {
	return contiene(transicionesAutobus[actual], nuevo)
}

// SiguientesEstadosIncidencia lists the states reachable from actual.
func SiguientesEstadosIncidencia(actual EstadoIncidencia) []EstadoIncidencia {
	return transicionesIncidencia[actual]
}

// EsIncidenciaAbierta reports whether the incident still requires action.
func EsIncidenciaAbierta(estado EstadoIncidencia) bool {
	switch estado {
	case IncidenciaNueva, IncidenciaEnAnalisis, IncidenciaEnIntervencion, IncidenciaReabierta:
		return true
	}
	return false
}

// EsEquipoDisponible reports whether the equipment unit can be installed.
func EsEquipoDisponible(estado EstadoEquipo) bool {
	return estado == EquipoAlmacen
}

// EsAutobusDisponible reports whether the bus can enter service.
func EsAutobusDisponible(estado EstadoAutobus) bool {
	return estado == AutobusOperativo
}

func contiene[S ~string](haystack []S, needle S) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
