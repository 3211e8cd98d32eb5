package fleet

import (
	"context"
	"time"

	"fleetstore/internal/shared/errors"
	"fleetstore/internal/shared/eventbus"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/domain/model"
	"fleetstore/internal/store/domain/repository"
	"fleetstore/internal/store/usecase"
)

// IncidenciasService manages fault reports and their workflow.
type IncidenciasService struct {
	col   *usecase.CollectionService[Incidencia]
	audit *usecase.AuditService
	now   func() time.Time
}

// NewIncidenciasService wires the service against tenants/{tenantId}/incidencias
// with auditing enabled.
func NewIncidenciasService(store repository.DocumentStore, audit *usecase.AuditService, bus eventbus.Bus, log logger.Logger) *IncidenciasService {
	return &IncidenciasService{
		col: usecase.NewCollectionService[Incidencia](store, audit, bus, log, usecase.CollectionConfig{
			Path:  repository.TenantCollection("incidencias"),
			Audit: &usecase.AuditConfig{Enabled: true, Entidad: EntidadIncidencia},
		}),
		audit: audit,
		now:   time.Now,
	}
}

// Crear opens an incident with the next correlative code for the current
// year. The state always starts at nueva regardless of the input.
func (s *IncidenciasService) Crear(ctx context.Context, sctx model.ServiceContext, inc Incidencia) (string, error) {
	if inc.Titulo == "" {
		return "", errors.NewServiceError(errors.CodeInvalidArgument, "el título de la incidencia es obligatorio")
	}

	codigo, err := s.siguienteCodigo(ctx, sctx)
	if err != nil {
		return "", err
	}
	inc.Codigo = codigo
	inc.Estado = IncidenciaNueva
	if inc.Criticidad == "" {
		inc.Criticidad = CriticidadMedia
	}
	inc.SearchTerms = BuildSearchTerms(inc.Codigo, inc.Titulo, inc.AutobusID)
	return s.col.CreateAutoID(ctx, sctx, inc)
}

// siguienteCodigo derives the next INC-{año}-{correlativo} code from the
// highest existing one. Codes sort lexicographically within a year, so the
// codigo descending head of the collection is the latest. Two concurrent
// creates can race to the same code; the correlative is a human reference,
// not a key, so the duplicate is tolerated.
func (s *IncidenciasService) siguienteCodigo(ctx context.Context, sctx model.ServiceContext) (string, error) {
	anio := s.now().UTC().Year()
	page, err := s.col.List(ctx, sctx, model.ListOptions{
		Filters:        []model.Filter{{FieldPath: "codigo", Op: model.OperatorGreaterThanOrEqual, Value: GenerarCodigoIncidencia(1, anio)}},
		OrderBy:        []model.Order{{FieldPath: "codigo", Direction: model.Descending}},
		PageSize:       1,
		IncludeDeleted: true,
	})
	if err != nil {
		return "", err
	}
	ultimo := ""
	if len(page.Items) > 0 {
		ultimo = page.Items[0].Codigo
	}
	return SiguienteCodigoIncidencia(ultimo, anio), nil
}

// ObtenerPorID returns the incident, or nil when missing or deleted.
func (s *IncidenciasService) ObtenerPorID(ctx context.Context, sctx model.ServiceContext, id string) (*Incidencia, error) {
	return s.col.GetByID(ctx, sctx, id)
}

// CambiarEstado moves the incident through its workflow. Invalid transitions
// fail with failed-precondition. Besides the regular update audit entry, a
// cambio_estado entry records the transition with its reason.
func (s *IncidenciasService) CambiarEstado(ctx context.Context, sctx model.ServiceContext, id string, nuevo EstadoIncidencia, observaciones string) error {
	actual, err := s.col.GetByID(ctx, sctx, id)
	if err != nil {
		return err
	}
	if actual == nil {
		return errors.NewServiceError(errors.CodeNotFound, "incidencia no encontrada")
	}
	if !EsTransicionValidaIncidencia(actual.Estado, nuevo) {
		return errors.NewServiceError(errors.CodeFailedPrecondition,
			"transición de "+string(actual.Estado)+" a "+string(nuevo)+" no permitida")
	}

	patch := map[string]interface{}{"estado": nuevo}
	if observaciones != "" {
		patch["observaciones"] = observaciones
	}
	if err := s.col.UpdatePartial(ctx, sctx, id, patch); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.LogCambioEstado(ctx, sctx, EntidadIncidencia, id, string(actual.Estado), string(nuevo), observaciones)
	}
	return nil
}

// Asignar assigns the incident to a technician.
func (s *IncidenciasService) Asignar(ctx context.Context, sctx model.ServiceContext, id, tecnicoUID string) error {
	return s.col.UpdatePartial(ctx, sctx, id, map[string]interface{}{"asignadoA": tecnicoUID})
}

// Eliminar soft-deletes the incident.
func (s *IncidenciasService) Eliminar(ctx context.Context, sctx model.ServiceContext, id string) error {
	return s.col.SoftDelete(ctx, sctx, id)
}

// Listar pages through the tenant's incidents.
func (s *IncidenciasService) Listar(ctx context.Context, sctx model.ServiceContext, opts model.ListOptions) (model.ListPage[Incidencia], error) {
	return s.col.List(ctx, sctx, opts)
}

// ListarPorEstado pages through incidents in any of the given states.
func (s *IncidenciasService) ListarPorEstado(ctx context.Context, sctx model.ServiceContext, estados []EstadoIncidencia, opts model.ListOptions) (model.ListPage[Incidencia], error) {
	switch len(estados) {
	case 0:
	case 1:
		opts.Filters = append(opts.Filters, model.Filter{FieldPath: "estado", Op: model.OperatorEqual, Value: string(estados[0])})
	default:
		valores := make([]string, 0, len(estados))
		for _, e := range estados {
			valores = append(valores, string(e))
		}
		opts.Filters = append(opts.Filters, model.Filter{FieldPath: "estado", Op: model.OperatorIn, Value: valores})
	}
	return s.col.List(ctx, sctx, opts)
}

// ListarPorAutobus pages through the incidents of one bus.
func (s *IncidenciasService) ListarPorAutobus(ctx context.Context, sctx model.ServiceContext, autobusID string, opts model.ListOptions) (model.ListPage[Incidencia], error) {
	opts.Filters = append(opts.Filters, model.Filter{FieldPath: "autobusId", Op: model.OperatorEqual, Value: autobusID})
	return s.col.List(ctx, sctx, opts)
}

// Buscar matches incidents by free text against their search tokens.
func (s *IncidenciasService) Buscar(ctx context.Context, sctx model.ServiceContext, texto string) ([]Incidencia, error) {
	return s.col.SearchByTerms(ctx, sctx, BuildSearchTerms(texto), model.SearchOptions{})
}

// Historial returns the incident's audit trail, newest first.
func (s *IncidenciasService) Historial(ctx context.Context, id string, opts usecase.AuditQueryOptions) ([]model.AuditLog, error) {
	return s.audit.GetHistorial(ctx, id, opts)
}

// Escuchar subscribes to live changes of one incident.
func (s *IncidenciasService) Escuchar(ctx context.Context, sctx model.ServiceContext, id string, onData func(*Incidencia), onError func(error)) (eventbus.Unsubscribe, error) {
	return s.col.ListenByID(ctx, sctx, id, onData, onError)
}

// EscucharLista subscribes to a live page of incidents.
func (s *IncidenciasService) EscucharLista(ctx context.Context, sctx model.ServiceContext, opts model.ListOptions, onData func([]Incidencia), onError func(error)) (eventbus.Unsubscribe, error) {
	return s.col.ListenList(ctx, sctx, opts, onData, onError)
}
