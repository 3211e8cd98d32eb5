package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"fleetstore/internal/shared/errors"
	"fleetstore/internal/shared/eventbus"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/domain/model"
	"fleetstore/internal/store/domain/repository"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/bson"
)

// auditCollection is the dedicated append-only audit trail collection. It is
// tenant-independent: entries carry their tenant as a field so cross-tenant
// reviews stay possible.
const auditCollection = "auditoria"

// EventAuditoriaRegistrada is published after each successful audit write so
// history listeners can refresh.
const EventAuditoriaRegistrada = "auditoria.registrada"

// auditWriteFailures makes swallowed audit-write failures visible to
// operators. A non-zero rate means the audit trail has gaps.
var auditWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fleetstore_audit_write_failures_total",
	Help: "Audit log writes that failed and were dropped, by entity and action.",
}, []string{"entidad", "accion"})

// camposIgnorados are internal bookkeeping fields excluded from audit diffs.
var camposIgnorados = map[string]struct{}{
	"id":                        {},
	model.FieldID:               {},
	model.FieldCreatedAt:        {},
	model.FieldUpdatedAt:        {},
	model.FieldCreadoPor:        {},
	model.FieldActualizadoPor:   {},
	model.FieldEliminado:        {},
	model.FieldFechaEliminacion: {},
	model.FieldEliminadoPor:     {},
	model.FieldSearchTerms:      {},
}

// CalcularCambios computes the field-level diff between two document
// snapshots. Bookkeeping fields are skipped; a field counts as changed when
// its canonical JSON encoding differs. Entries come back sorted by field name
// so the diff is deterministic.
func CalcularCambios(anterior, nuevo map[string]interface{}) []model.CambioAuditoria {
	claves := make(map[string]struct{}, len(nuevo)+len(anterior))
	for k := range nuevo {
		claves[k] = struct{}{}
	}
	for k := range anterior {
		claves[k] = struct{}{}
	}

	ordenadas := make([]string, 0, len(claves))
	for k := range claves {
		if _, ignorado := camposIgnorados[k]; ignorado {
			continue
		}
		ordenadas = append(ordenadas, k)
	}
	sort.Strings(ordenadas)

	var cambios []model.CambioAuditoria
	for _, campo := range ordenadas {
		valorAnterior := anterior[campo]
		valorNuevo := nuevo[campo]
		if jsonIgual(valorAnterior, valorNuevo) {
			continue
		}
		cambios = append(cambios, model.CambioAuditoria{
			Campo:         campo,
			ValorAnterior: valorAnterior,
			ValorNuevo:    valorNuevo,
		})
	}
	return cambios
}

// jsonIgual compares two values by canonical JSON encoding. Entities are
// acyclic DTOs, so encoding always succeeds for real documents; anything
// unencodable compares as unequal.
func jsonIgual(a, b interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}

// LogActionParams describes one audit entry to append.
type LogActionParams struct {
	Entidad      model.TipoEntidad
	EntidadID    string
	Accion       model.TipoAccion
	Cambios      []model.CambioAuditoria
	MotivoCambio string
}

// AuditQueryOptions shapes audit history reads.
type AuditQueryOptions struct {
	Limit  int
	Accion model.TipoAccion
}

// AuditService appends structured audit entries to the auditoria collection.
// Every write is best-effort: failures are logged, counted in a metric and
// swallowed, so the caller's primary operation never fails because auditing
// failed. The trade-off is accepted: during a backend outage audit entries
// are lost, and the failure counter is how operators notice.
type AuditService struct {
	store repository.DocumentStore
	bus   eventbus.Bus
	log   logger.Logger
	now   func() time.Time
}

// NewAuditService creates the audit service. bus may be nil when no history
// listeners are needed.
func NewAuditService(store repository.DocumentStore, bus eventbus.Bus, log logger.Logger) *AuditService {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuditService{
		store: store,
		bus:   bus,
		log:   log.WithComponent("audit"),
		now:   time.Now,
	}
}

// LogAction appends one audit entry. Returns the entry id, or "" when the
// entry could not be recorded (missing actor or backend failure).
func (a *AuditService) LogAction(ctx context.Context, sctx model.ServiceContext, params LogActionParams) string {
	if sctx.ActorUID() == "" {
		a.log.Warnf("auditoría omitida para %s/%s: falta actor en el contexto", params.Entidad, params.EntidadID)
		return ""
	}

	entry := model.AuditLog{
		Entidad:      params.Entidad,
		EntidadID:    params.EntidadID,
		Accion:       params.Accion,
		UsuarioID:    sctx.Actor.UID,
		UsuarioEmail: valorODesconocido(sctx.Actor.Email),
		UsuarioRol:   valorODesconocido(sctx.Actor.Rol),
		Timestamp:    a.now().UTC(),
		TenantID:     tenantOGlobal(sctx.TenantID),
		Cambios:      params.Cambios,
		MotivoCambio: params.MotivoCambio,
	}
	if entry.Cambios == nil {
		entry.Cambios = []model.CambioAuditoria{}
	}

	doc, err := entryToDoc(entry)
	if err == nil {
		entryID := uuid.NewString()
		err = a.store.Set(ctx, auditCollection, entryID, doc)
		if err == nil {
			a.log.Debugf("%s en %s/%s por %s", params.Accion, params.Entidad, params.EntidadID, entry.UsuarioEmail)
			if a.bus != nil {
				a.bus.Publish(ctx, eventbus.NewBasicEvent(EventAuditoriaRegistrada, entry))
			}
			return entryID
		}
	}

	auditWriteFailures.WithLabelValues(string(params.Entidad), string(params.Accion)).Inc()
	a.log.Errorf("error guardando log de auditoría para %s/%s: %v", params.Entidad, params.EntidadID, err)
	return ""
}

// LogCreacion records a crear entry with the full new-state snapshot as its
// diff.
func (a *AuditService) LogCreacion(ctx context.Context, sctx model.ServiceContext, entidad model.TipoEntidad, entidadID string, datos map[string]interface{}) string {
	return a.LogAction(ctx, sctx, LogActionParams{
		Entidad:   entidad,
		EntidadID: entidadID,
		Accion:    model.AccionCrear,
		Cambios:   CalcularCambios(nil, datos),
	})
}

// LogActualizacion records an actualizar entry with the computed before/after
// diff. The entry is recorded even when no field changed, so "touch"
// operations remain auditable.
func (a *AuditService) LogActualizacion(ctx context.Context, sctx model.ServiceContext, entidad model.TipoEntidad, entidadID string, anteriores, nuevos map[string]interface{}, motivo string) string {
	return a.LogAction(ctx, sctx, LogActionParams{
		Entidad:      entidad,
		EntidadID:    entidadID,
		Accion:       model.AccionActualizar,
		Cambios:      CalcularCambios(anteriores, nuevos),
		MotivoCambio: motivo,
	})
}

// LogEliminacion records an eliminar entry (soft delete).
func (a *AuditService) LogEliminacion(ctx context.Context, sctx model.ServiceContext, entidad model.TipoEntidad, entidadID string, motivo string) string {
	return a.LogAction(ctx, sctx, LogActionParams{
		Entidad:   entidad,
		EntidadID: entidadID,
		Accion:    model.AccionEliminar,
		Cambios: []model.CambioAuditoria{{
			Campo:         model.FieldEliminado,
			ValorAnterior: false,
			ValorNuevo:    true,
		}},
		MotivoCambio: motivo,
	})
}

// LogCambioEstado records a state transition, the one action UI flows trigger
// directly.
func (a *AuditService) LogCambioEstado(ctx context.Context, sctx model.ServiceContext, entidad model.TipoEntidad, entidadID, estadoAnterior, estadoNuevo, motivo string) string {
	return a.LogAction(ctx, sctx, LogActionParams{
		Entidad:   entidad,
		EntidadID: entidadID,
		Accion:    model.AccionCambioEstado,
		Cambios: []model.CambioAuditoria{{
			Campo:         "estado",
			ValorAnterior: estadoAnterior,
			ValorNuevo:    estadoNuevo,
		}},
		MotivoCambio: motivo,
	})
}

// GetHistorial returns the audit history of one entity, newest first.
func (a *AuditService) GetHistorial(ctx context.Context, entidadID string, opts AuditQueryOptions) ([]model.AuditLog, error) {
	filters := []model.Filter{{FieldPath: "entidadId", Op: model.OperatorEqual, Value: entidadID}}
	if opts.Accion != "" {
		filters = append(filters, model.Filter{FieldPath: "accion", Op: model.OperatorEqual, Value: string(opts.Accion)})
	}
	return a.queryHistorial(ctx, filters, limitODefecto(opts.Limit, 50))
}

// GetHistorialPorTipo returns a tenant's audit history for one entity type,
// newest first.
func (a *AuditService) GetHistorialPorTipo(ctx context.Context, entidad model.TipoEntidad, tenantID string, opts AuditQueryOptions) ([]model.AuditLog, error) {
	filters := []model.Filter{
		{FieldPath: "entidad", Op: model.OperatorEqual, Value: string(entidad)},
		{FieldPath: "tenantId", Op: model.OperatorEqual, Value: tenantID},
	}
	return a.queryHistorial(ctx, filters, limitODefecto(opts.Limit, 100))
}

// ListenHistorial delivers the entity's audit history now and again after
// every new audit entry for it. The returned cancel func is caller-owned and
// idempotent.
func (a *AuditService) ListenHistorial(ctx context.Context, entidadID string, cb func([]model.AuditLog), opts AuditQueryOptions) eventbus.Unsubscribe {
	deliver := func() {
		logs, err := a.GetHistorial(ctx, entidadID, opts)
		if err != nil {
			a.log.Errorf("error refrescando historial de %s: %v", entidadID, err)
			return
		}
		cb(logs)
	}
	deliver()

	if a.bus == nil {
		return func() {}
	}
	return a.bus.Subscribe(EventAuditoriaRegistrada, func(ctx context.Context, e eventbus.Event) error {
		entry, ok := e.Data().(model.AuditLog)
		if !ok || entry.EntidadID != entidadID {
			return nil
		}
		deliver()
		return nil
	})
}

func (a *AuditService) queryHistorial(ctx context.Context, filters []model.Filter, limit int) ([]model.AuditLog, error) {
	docs, err := a.store.Query(ctx, repository.Query{
		Path:    auditCollection,
		Filters: filters,
		Orders:  []model.Order{{FieldPath: "timestamp", Direction: model.Descending}},
		Limit:   limit,
	})
	if err != nil {
		return nil, errors.MapStoreError(err)
	}

	logs := make([]model.AuditLog, 0, len(docs))
	for _, doc := range docs {
		var entry model.AuditLog
		if err := docToValue(doc, &entry); err != nil {
			a.log.Errorf("entrada de auditoría corrupta: %v", err)
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

func entryToDoc(entry model.AuditLog) (map[string]interface{}, error) {
	raw, err := bson.Marshal(entry)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, model.FieldID)
	return doc, nil
}

func docToValue(doc map[string]interface{}, out interface{}) error {
	raw, err := bson.Marshal(bson.M(doc))
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func valorODesconocido(v string) string {
	if v == "" {
		return "desconocido"
	}
	return v
}

func tenantOGlobal(tenantID string) string {
	if tenantID == "" {
		return "global"
	}
	return tenantID
}

func limitODefecto(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
