package fleet

import (
	"time"

	"fleetstore/internal/store/domain/model"
)

// Audited entity type tags.
const (
	EntidadAutobus    model.TipoEntidad = "autobus"
	EntidadEquipo     model.TipoEntidad = "equipo"
	EntidadIncidencia model.TipoEntidad = "incidencia"
)

// Criticidad ranks how urgent an incident is.
type Criticidad string

const (
	CriticidadBaja    Criticidad = "baja"
	CriticidadMedia   Criticidad = "media"
	CriticidadAlta    Criticidad = "alta"
	CriticidadCritica Criticidad = "critica"
)

// Autobus is one vehicle of a tenant's fleet.
type Autobus struct {
	model.RecordMeta `bson:",inline"`

	Codigo     string        `bson:"codigo,omitempty" json:"codigo,omitempty"`
	Matricula  string        `bson:"matricula,omitempty" json:"matricula,omitempty"`
	Marca      string        `bson:"marca,omitempty" json:"marca,omitempty"`
	Modelo     string        `bson:"modelo,omitempty" json:"modelo,omitempty"`
	Anio       int           `bson:"anio,omitempty" json:"anio,omitempty"`
	Plazas     int           `bson:"plazas,omitempty" json:"plazas,omitempty"`
	Estado     EstadoAutobus `bson:"estado,omitempty" json:"estado,omitempty"`
	OperadorID string        `bson:"operadorId,omitempty" json:"operadorId,omitempty"`
	Kilometros int           `bson:"kilometros,omitempty" json:"kilometros,omitempty"`
}

// Equipo is one on-board equipment unit (validator, camera, router...).
type Equipo struct {
	model.RecordMeta `bson:",inline"`

	CodigoInterno    string       `bson:"codigoInterno,omitempty" json:"codigoInterno,omitempty"`
	Tipo             string       `bson:"tipo,omitempty" json:"tipo,omitempty"`
	NumeroSerie      string       `bson:"numeroSerie,omitempty" json:"numeroSerie,omitempty"`
	Marca            string       `bson:"marca,omitempty" json:"marca,omitempty"`
	Modelo           string       `bson:"modelo,omitempty" json:"modelo,omitempty"`
	Estado           EstadoEquipo `bson:"estado,omitempty" json:"estado,omitempty"`
	AutobusID        string       `bson:"autobusId,omitempty" json:"autobusId,omitempty"`
	FechaInstalacion *time.Time   `bson:"fechaInstalacion,omitempty" json:"fechaInstalacion,omitempty"`
}

// Incidencia is one reported fault, linked to a bus and optionally to the
// failing equipment unit.
type Incidencia struct {
	model.RecordMeta `bson:",inline"`

	Codigo        string           `bson:"codigo,omitempty" json:"codigo,omitempty"`
	Titulo        string           `bson:"titulo,omitempty" json:"titulo,omitempty"`
	Descripcion   string           `bson:"descripcion,omitempty" json:"descripcion,omitempty"`
	Estado        EstadoIncidencia `bson:"estado,omitempty" json:"estado,omitempty"`
	Criticidad    Criticidad       `bson:"criticidad,omitempty" json:"criticidad,omitempty"`
	AutobusID     string           `bson:"autobusId,omitempty" json:"autobusId,omitempty"`
	EquipoID      string           `bson:"equipoId,omitempty" json:"equipoId,omitempty"`
	AsignadoA     string           `bson:"asignadoA,omitempty" json:"asignadoA,omitempty"`
	Observaciones string           `bson:"observaciones,omitempty" json:"observaciones,omitempty"`
}
