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

// EquiposService manages on-board equipment inventory.
type EquiposService struct {
	col *usecase.CollectionService[Equipo]
	now func() time.Time
}

// NewEquiposService wires the service against tenants/{tenantId}/equipos with
// auditing enabled.
func NewEquiposService(store repository.DocumentStore, audit *usecase.AuditService, bus eventbus.Bus, log logger.Logger) *EquiposService {
	return &EquiposService{
		col: usecase.NewCollectionService[Equipo](store, audit, bus, log, usecase.CollectionConfig{
			Path:  repository.TenantCollection("equipos"),
			Audit: &usecase.AuditConfig{Enabled: true, Entidad: EntidadEquipo},
		}),
		now: time.Now,
	}
}

// Crear registers an equipment unit. Its internal code is derived from the
// type and the bus it mounts on, and the search tokens from its identifiers.
// indice distinguishes several units of the same type on one bus.
func (s *EquiposService) Crear(ctx context.Context, sctx model.ServiceContext, e Equipo, codigoBus string, indice int) (string, error) {
	if e.Tipo == "" {
		return "", errors.NewServiceError(errors.CodeInvalidArgument, "el tipo de equipo es obligatorio")
	}
	if e.Estado == "" {
		e.Estado = EquipoAlmacen
	}
	if e.CodigoInterno == "" {
		e.CodigoInterno = GenerarCodigoEquipo(e.Tipo, codigoBus, indice)
	}
	e.SearchTerms = BuildSearchTerms(e.CodigoInterno, e.NumeroSerie, e.Tipo, e.Marca, e.Modelo)
	return s.col.CreateAutoID(ctx, sctx, e)
}

// ObtenerPorID returns the unit, or nil when missing or deleted.
func (s *EquiposService) ObtenerPorID(ctx context.Context, sctx model.ServiceContext, id string) (*Equipo, error) {
	return s.col.GetByID(ctx, sctx, id)
}

// Actualizar merges patch into the unit.
func (s *EquiposService) Actualizar(ctx context.Context, sctx model.ServiceContext, id string, patch map[string]interface{}) error {
	return s.col.UpdatePartial(ctx, sctx, id, patch)
}

// CambiarEstado moves the unit through the inventory state machine. A unit in
// reparacion cannot jump straight to instalado and baja is final.
func (s *EquiposService) CambiarEstado(ctx context.Context, sctx model.ServiceContext, id string, nuevo EstadoEquipo) error {
	actual, err := s.col.GetByID(ctx, sctx, id)
	if err != nil {
		return err
	}
	if actual == nil {
		return errors.NewServiceError(errors.CodeNotFound, "equipo no encontrado")
	}
	if actual.Estado == EquipoBaja {
		return errors.NewServiceError(errors.CodeFailedPrecondition, "no se puede cambiar el estado de un equipo dado de baja")
	}
	if !EsTransicionValidaEquipo(actual.Estado, nuevo) {
		return errors.NewServiceError(errors.CodeFailedPrecondition,
			"transición de "+string(actual.Estado)+" a "+string(nuevo)+" no permitida")
	}

	patch := map[string]interface{}{"estado": nuevo}
	if nuevo != EquipoInstalado {
		// Leaving the bus clears the mount reference and its timestamp.
		patch["autobusId"] = ""
		patch["fechaInstalacion"] = nil
	}
	return s.col.UpdatePartial(ctx, sctx, id, patch)
}

// Instalar mounts an available unit on a bus.
func (s *EquiposService) Instalar(ctx context.Context, sctx model.ServiceContext, id, autobusID string) error {
	actual, err := s.col.GetByID(ctx, sctx, id)
	if err != nil {
		return err
	}
	if actual == nil {
		return errors.NewServiceError(errors.CodeNotFound, "equipo no encontrado")
	}
	if !EsEquipoDisponible(actual.Estado) {
		return errors.NewServiceError(errors.CodeFailedPrecondition, "solo un equipo en almacén puede instalarse")
	}
	return s.col.UpdatePartial(ctx, sctx, id, map[string]interface{}{
		"estado":           EquipoInstalado,
		"autobusId":        autobusID,
		"fechaInstalacion": s.now().UTC(),
	})
}

// Eliminar soft-deletes the unit.
func (s *EquiposService) Eliminar(ctx context.Context, sctx model.ServiceContext, id string) error {
	return s.col.SoftDelete(ctx, sctx, id)
}

// Listar pages through the tenant's equipment.
func (s *EquiposService) Listar(ctx context.Context, sctx model.ServiceContext, opts model.ListOptions) (model.ListPage[Equipo], error) {
	return s.col.List(ctx, sctx, opts)
}

// ListarPorAutobus pages through the units mounted on one bus.
func (s *EquiposService) ListarPorAutobus(ctx context.Context, sctx model.ServiceContext, autobusID string, opts model.ListOptions) (model.ListPage[Equipo], error) {
	opts.Filters = append(opts.Filters, model.Filter{FieldPath: "autobusId", Op: model.OperatorEqual, Value: autobusID})
	return s.col.List(ctx, sctx, opts)
}

// Buscar matches units by free text against their search tokens.
func (s *EquiposService) Buscar(ctx context.Context, sctx model.ServiceContext, texto string) ([]Equipo, error) {
	return s.col.SearchByTerms(ctx, sctx, BuildSearchTerms(texto), model.SearchOptions{})
}
