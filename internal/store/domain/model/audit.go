package model

import "time"

// TipoAccion is the kind of audited action.
type TipoAccion string

const (
	AccionCrear        TipoAccion = "crear"
	AccionActualizar   TipoAccion = "actualizar"
	AccionEliminar     TipoAccion = "eliminar"
	AccionCambioEstado TipoAccion = "cambio_estado"
)

// TipoEntidad tags which domain entity an audit entry refers to
// ("autobus", "incidencia", "equipo", ...).
type TipoEntidad string

// CambioAuditoria is one changed field: before and after values.
type CambioAuditoria struct {
	Campo         string      `bson:"campo" json:"campo"`
	ValorAnterior interface{} `bson:"valorAnterior" json:"valorAnterior"`
	ValorNuevo    interface{} `bson:"valorNuevo" json:"valorNuevo"`
}

// AuditLog is one append-only audit trail entry. Entries are written once by
// the audit service and never updated or deleted by this layer.
type AuditLog struct {
	ID           string            `bson:"_id,omitempty" json:"id,omitempty"`
	Entidad      TipoEntidad       `bson:"entidad" json:"entidad"`
	EntidadID    string            `bson:"entidadId" json:"entidadId"`
	Accion       TipoAccion        `bson:"accion" json:"accion"`
	UsuarioID    string            `bson:"usuarioId" json:"usuarioId"`
	UsuarioEmail string            `bson:"usuarioEmail" json:"usuarioEmail"`
	UsuarioRol   string            `bson:"usuarioRol" json:"usuarioRol"`
	Timestamp    time.Time         `bson:"timestamp" json:"timestamp"`
	TenantID     string            `bson:"tenantId" json:"tenantId"`
	Cambios      []CambioAuditoria `bson:"cambios" json:"cambios"`
	MotivoCambio string            `bson:"motivoCambio,omitempty" json:"motivoCambio,omitempty"`
}
