package model

import "time"

// Names of the bookkeeping fields the collection service stamps on every
// stored document.
const (
	FieldID               = "_id"
	FieldEliminado        = "eliminado"
	FieldFechaEliminacion = "fecha_eliminacion"
	FieldCreadoPor        = "creado_por"
	FieldActualizadoPor   = "actualizado_por"
	FieldEliminadoPor     = "eliminado_por"
	FieldCreatedAt        = "createdAt"
	FieldUpdatedAt        = "updatedAt"
	FieldSearchTerms      = "searchTerms"
)

// Entity bounds the record types the collection service manages: anything
// with a stable string identifier.
type Entity interface {
	DocumentID() string
}

// RecordMeta carries the identifier and the audit/soft-delete bookkeeping
// fields. Domain entities embed it inline:
//
//	type Autobus struct {
//		model.RecordMeta `bson:",inline"`
//		Codigo           string `bson:"codigo" json:"codigo"`
//	}
//
// The collection service owns every field here; callers treat them as
// read-only.
type RecordMeta struct {
	ID               string     `bson:"_id,omitempty" json:"id,omitempty"`
	Eliminado        bool       `bson:"eliminado" json:"eliminado"`
	FechaEliminacion *time.Time `bson:"fecha_eliminacion,omitempty" json:"fecha_eliminacion,omitempty"`
	CreadoPor        string     `bson:"creado_por,omitempty" json:"creado_por,omitempty"`
	ActualizadoPor   string     `bson:"actualizado_por,omitempty" json:"actualizado_por,omitempty"`
	EliminadoPor     string     `bson:"eliminado_por,omitempty" json:"eliminado_por,omitempty"`
	CreatedAt        time.Time  `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt        time.Time  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	SearchTerms      []string   `bson:"searchTerms,omitempty" json:"searchTerms,omitempty"`
}

// DocumentID implements Entity for every embedding type.
func (m RecordMeta) DocumentID() string { return m.ID }
