package fleet

import (
	"context"

	"fleetstore/internal/shared/errors"
	"fleetstore/internal/shared/eventbus"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/domain/model"
	"fleetstore/internal/store/domain/repository"
	"fleetstore/internal/store/usecase"
)

// AutobusesService manages the tenant's vehicle fleet. It delegates the data
// plumbing (soft delete, auditing, pagination, listeners) to the generic
// collection service and adds the bus-specific rules on top.
type AutobusesService struct {
	col *usecase.CollectionService[Autobus]
}

// NewAutobusesService wires the service against the tenants/{tenantId}/autobuses
// collection with auditing enabled.
func NewAutobusesService(store repository.DocumentStore, audit *usecase.AuditService, bus eventbus.Bus, log logger.Logger) *AutobusesService {
	return &AutobusesService{
		col: usecase.NewCollectionService[Autobus](store, audit, bus, log, usecase.CollectionConfig{
			Path:  repository.TenantCollection("autobuses"),
			Audit: &usecase.AuditConfig{Enabled: true, Entidad: EntidadAutobus},
		}),
	}
}

// Crear registers a new bus. The state defaults to operativo and the search
// token array is derived from its identifying fields.
func (s *AutobusesService) Crear(ctx context.Context, sctx model.ServiceContext, a Autobus) (string, error) {
	if a.Codigo == "" {
		return "", errors.NewServiceError(errors.CodeInvalidArgument, "el código del autobús es obligatorio")
	}
	if a.Estado == "" {
		a.Estado = AutobusOperativo
	}
	a.SearchTerms = BuildSearchTerms(a.Codigo, a.Matricula, a.Marca, a.Modelo)
	return s.col.CreateAutoID(ctx, sctx, a)
}

// ObtenerPorID returns the bus, or nil when missing or deleted.
func (s *AutobusesService) ObtenerPorID(ctx context.Context, sctx model.ServiceContext, id string) (*Autobus, error) {
	return s.col.GetByID(ctx, sctx, id)
}

// Actualizar merges patch into the bus. When an identifying field changes the
// search tokens are recomputed from the merged record.
func (s *AutobusesService) Actualizar(ctx context.Context, sctx model.ServiceContext, id string, patch map[string]interface{}) error {
	if tocaCampoIdentificativo(patch, "codigo", "matricula", "marca", "modelo") {
		actual, err := s.col.GetByID(ctx, sctx, id)
		if err != nil {
			return err
		}
		if actual == nil {
			return errors.NewServiceError(errors.CodeNotFound, "documento no encontrado")
		}
		aplicado := *actual
		aplicarString(patch, "codigo", &aplicado.Codigo)
		aplicarString(patch, "matricula", &aplicado.Matricula)
		aplicarString(patch, "marca", &aplicado.Marca)
		aplicarString(patch, "modelo", &aplicado.Modelo)
		patch = copiarPatch(patch)
		patch[model.FieldSearchTerms] = BuildSearchTerms(aplicado.Codigo, aplicado.Matricula, aplicado.Marca, aplicado.Modelo)
	}
	return s.col.UpdatePartial(ctx, sctx, id, patch)
}

// CambiarEstado moves the bus through its state machine.
func (s *AutobusesService) CambiarEstado(ctx context.Context, sctx model.ServiceContext, id string, nuevo EstadoAutobus) error {
	actual, err := s.col.GetByID(ctx, sctx, id)
	if err != nil {
		return err
	}
	if actual == nil {
		return errors.NewServiceError(errors.CodeNotFound, "autobús no encontrado")
	}
	if !EsTransicionValidaAutobus(actual.Estado, nuevo) {
		return errors.NewServiceError(errors.CodeFailedPrecondition,
			"transición de "+string(actual.Estado)+" a "+string(nuevo)+" no permitida")
	}
	return s.col.UpdatePartial(ctx, sctx, id, map[string]interface{}{"estado": nuevo})
}

// Eliminar soft-deletes the bus.
func (s *AutobusesService) Eliminar(ctx context.Context, sctx model.ServiceContext, id string) error {
	return s.col.SoftDelete(ctx, sctx, id)
}

// Listar pages through the tenant's buses.
func (s *AutobusesService) Listar(ctx context.Context, sctx model.ServiceContext, opts model.ListOptions) (model.ListPage[Autobus], error) {
	return s.col.List(ctx, sctx, opts)
}

// ListarPorOperador pages through the buses assigned to one operator.
func (s *AutobusesService) ListarPorOperador(ctx context.Context, sctx model.ServiceContext, operadorID string, opts model.ListOptions) (model.ListPage[Autobus], error) {
	opts.Filters = append(opts.Filters, model.Filter{FieldPath: "operadorId", Op: model.OperatorEqual, Value: operadorID})
	return s.col.List(ctx, sctx, opts)
}

// ListarPorEstado pages through the buses in one state.
func (s *AutobusesService) ListarPorEstado(ctx context.Context, sctx model.ServiceContext, estado EstadoAutobus, opts model.ListOptions) (model.ListPage[Autobus], error) {
	opts.Filters = append(opts.Filters, model.Filter{FieldPath: "estado", Op: model.OperatorEqual, Value: string(estado)})
	return s.col.List(ctx, sctx, opts)
}

// Buscar matches buses by free text against their search tokens.
func (s *AutobusesService) Buscar(ctx context.Context, sctx model.ServiceContext, texto string) ([]Autobus, error) {
	return s.col.SearchByTerms(ctx, sctx, BuildSearchTerms(texto), model.SearchOptions{})
}

// Escuchar subscribes to live changes of one bus.
func (s *AutobusesService) Escuchar(ctx context.Context, sctx model.ServiceContext, id string, onData func(*Autobus), onError func(error)) (eventbus.Unsubscribe, error) {
	return s.col.ListenByID(ctx, sctx, id, onData, onError)
}

// EscucharLista subscribes to a live page of buses.
func (s *AutobusesService) EscucharLista(ctx context.Context, sctx model.ServiceContext, opts model.ListOptions, onData func([]Autobus), onError func(error)) (eventbus.Unsubscribe, error) {
	return s.col.ListenList(ctx, sctx, opts, onData, onError)
}

// tocaCampoIdentificativo reports whether patch touches any of the fields.
func tocaCampoIdentificativo(patch map[string]interface{}, campos ...string) bool {
	for _, c := range campos {
		if _, ok := patch[c]; ok {
			return true
		}
	}
	return false
}

func aplicarString(patch map[string]interface{}, campo string, destino *string) {
	if v, ok := patch[campo].(string); ok {
		*destino = v
	}
}

func copiarPatch(patch map[string]interface{}) map[string]interface{} {
	copia := make(map[string]interface{}, len(patch)+1)
	for k, v := range patch {
		copia[k] = v
	}
	return copia
}
