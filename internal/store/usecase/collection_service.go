package usecase

import (
	"context"
	"time"

	"fleetstore/internal/shared/errors"
	"fleetstore/internal/shared/eventbus"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/shared/result"
	"fleetstore/internal/store/domain/model"
	"fleetstore/internal/store/domain/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	defaultListPageSize   = 20
	defaultListenPageSize = 50
	defaultSearchLimit    = 20
	// maxSearchTerms is the backend fan-out limit for array-contains-any.
	// Extra terms are dropped silently; callers pre-rank when they care.
	maxSearchTerms = 10
)

// AuditConfig enables automatic audit entries on mutations.
type AuditConfig struct {
	Enabled bool
	Entidad model.TipoEntidad
}

// CollectionConfig is the immutable per-collection configuration.
type CollectionConfig struct {
	// Path routes a service context to this collection, enforcing tenant
	// isolation at the path level.
	Path repository.CollectionPathResolver
	// Audit, when enabled, makes every mutation append an audit entry.
	Audit *AuditConfig
	// TenantOptional disables the tenant guard. The zero value keeps it on,
	// which is the default every tenant-scoped collection wants.
	TenantOptional bool
}

// CollectionService is the generic CRUD engine for one collection of records
// of type T. It layers soft delete, automatic change auditing, cursor
// pagination, term search and realtime listeners on top of a DocumentStore.
//
// The service holds no mutable state: the store handle, path resolver and
// configuration are fixed at construction, so one instance is safe for
// concurrent use. There is no optimistic-concurrency check on updates:
// concurrent patches merge last-write-wins at the field level, and callers
// needing atomicity must compose their own transaction.
type CollectionService[T model.Entity] struct {
	store repository.DocumentStore
	audit *AuditService
	bus   eventbus.Bus
	log   logger.Logger
	cfg   CollectionConfig
	now   func() time.Time
}

// NewCollectionService builds a service for one collection. audit may be nil
// when cfg.Audit is disabled; bus may be nil when no listeners are used.
func NewCollectionService[T model.Entity](store repository.DocumentStore, audit *AuditService, bus eventbus.Bus, log logger.Logger, cfg CollectionConfig) *CollectionService[T] {
	if log == nil {
		log = logger.NewNop()
	}
	return &CollectionService[T]{
		store: store,
		audit: audit,
		bus:   bus,
		log:   log.WithComponent("collection"),
		cfg:   cfg,
		now:   time.Now,
	}
}

// validateContext enforces the tenant guard before any backend I/O.
func (s *CollectionService[T]) validateContext(sctx model.ServiceContext) error {
	if !s.cfg.TenantOptional && sctx.TenantID == "" {
		return errors.NewServiceError(errors.CodeInvalidArgument, "tenantId es requerido para esta operación")
	}
	return nil
}

func (s *CollectionService[T]) path(sctx model.ServiceContext) string {
	return s.cfg.Path.ResolvePath(sctx)
}

// CreateAutoID writes data as a new document under a generated id, stamps the
// creation bookkeeping fields and returns the id.
func (s *CollectionService[T]) CreateAutoID(ctx context.Context, sctx model.ServiceContext, data T) (string, error) {
	if err := s.validateContext(sctx); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.create(ctx, sctx, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// CreateWithID writes data at a caller-chosen id, overwriting any existing
// document there (no merge). Meant for ids that are externally meaningful.
func (s *CollectionService[T]) CreateWithID(ctx context.Context, sctx model.ServiceContext, id string, data T) error {
	if err := s.validateContext(sctx); err != nil {
		return err
	}
	return s.create(ctx, sctx, id, data)
}

func (s *CollectionService[T]) create(ctx context.Context, sctx model.ServiceContext, id string, data T) error {
	doc, err := valueToDoc(data)
	if err != nil {
		return errors.NewServiceError(errors.CodeInvalidArgument, "el registro no se pudo serializar").WithCause(err)
	}
	delete(doc, model.FieldID)
	s.stampCreate(doc, sctx)

	path := s.path(sctx)
	if err := s.store.Set(ctx, path, id, doc); err != nil {
		return errors.MapStoreError(err)
	}

	doc[model.FieldID] = id
	s.publish(ctx, model.EventDocumentoCreado, path, id, doc)
	s.auditarAccion(ctx, sctx, model.AccionCrear, id, nil, doc)
	return nil
}

// GetByID fetches one record. It returns (nil, nil) both when the document
// does not exist and when it is soft-deleted: through this path the two are
// indistinguishable on purpose.
func (s *CollectionService[T]) GetByID(ctx context.Context, sctx model.ServiceContext, id string) (*T, error) {
	if err := s.validateContext(sctx); err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, s.path(sctx), id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.MapStoreError(err)
	}
	if estaEliminado(doc) {
		return nil, nil
	}
	return decodeDoc[T](doc)
}

// UpdatePartial merges patch into the existing document, refreshing the
// update bookkeeping fields. The target must exist but may be soft-deleted
// (un-deleting a record is a valid patch). Last write wins per field.
func (s *CollectionService[T]) UpdatePartial(ctx context.Context, sctx model.ServiceContext, id string, patch map[string]interface{}) error {
	if err := s.validateContext(sctx); err != nil {
		return err
	}

	// Patches round-trip through bson like create does, so typed values
	// (domain string kinds, time.Time) land in the store with the same plain
	// shapes as created documents and stay matchable by filters.
	normalizado, err := valueToDoc(patch)
	if err != nil {
		return errors.NewServiceError(errors.CodeInvalidArgument, "el parche no se pudo serializar").WithCause(err)
	}
	path := s.path(sctx)

	anteriores, err := s.store.Get(ctx, path, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NewServiceError(errors.CodeNotFound, "documento no encontrado")
		}
		return errors.MapStoreError(err)
	}

	campos := s.stampUpdate(copiarDoc(normalizado), sctx)
	if err := s.store.Patch(ctx, path, id, campos); err != nil {
		return errors.MapStoreError(err)
	}

	nuevos := copiarDoc(anteriores)
	for k, v := range normalizado {
		nuevos[k] = v
	}
	almacenado := copiarDoc(anteriores)
	for k, v := range campos {
		almacenado[k] = v
	}

	s.publish(ctx, model.EventDocumentoActualizado, path, id, almacenado)
	s.auditarAccion(ctx, sctx, model.AccionActualizar, id, anteriores, nuevos)
	return nil
}

// SoftDelete marks the record deleted instead of removing it. The record
// stays listable only through IncludeDeleted and recoverable only by direct
// backend access.
func (s *CollectionService[T]) SoftDelete(ctx context.Context, sctx model.ServiceContext, id string) error {
	if err := s.validateContext(sctx); err != nil {
		return err
	}
	path := s.path(sctx)

	anteriores, err := s.store.Get(ctx, path, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NewServiceError(errors.CodeNotFound, "documento no encontrado")
		}
		return errors.MapStoreError(err)
	}

	campos := s.stampUpdate(map[string]interface{}{
		model.FieldEliminado:        true,
		model.FieldFechaEliminacion: s.now().UTC(),
	}, sctx)
	if uid := sctx.ActorUID(); uid != "" {
		campos[model.FieldEliminadoPor] = uid
	}
	if err := s.store.Patch(ctx, path, id, campos); err != nil {
		return errors.MapStoreError(err)
	}

	almacenado := copiarDoc(anteriores)
	for k, v := range campos {
		almacenado[k] = v
	}
	s.publish(ctx, model.EventDocumentoActualizado, path, id, almacenado)
	s.auditarAccion(ctx, sctx, model.AccionEliminar, id, nil, nil)
	return nil
}

// HardDelete physically removes the document. No existence check, no audit
// entry, no recovery. Maintenance use only.
func (s *CollectionService[T]) HardDelete(ctx context.Context, sctx model.ServiceContext, id string) error {
	if err := s.validateContext(sctx); err != nil {
		return err
	}
	path := s.path(sctx)
	if err := s.store.Delete(ctx, path, id); err != nil {
		return errors.MapStoreError(err)
	}
	s.publish(ctx, model.EventDocumentoEliminado, path, id, nil)
	return nil
}

// List returns one page of records. Soft-deleted records are excluded unless
// opts.IncludeDeleted. HasMore is detected by requesting one extra record,
// avoiding a separate count query; continue with opts.StartAfter = LastDoc.
func (s *CollectionService[T]) List(ctx context.Context, sctx model.ServiceContext, opts model.ListOptions) (model.ListPage[T], error) {
	if err := s.validateContext(sctx); err != nil {
		return model.ListPage[T]{}, err
	}

	pageSize := limitODefecto(opts.PageSize, defaultListPageSize)
	docs, err := s.store.Query(ctx, repository.Query{
		Path:       s.path(sctx),
		Filters:    s.composeFilters(opts.Filters, opts.IncludeDeleted),
		Orders:     opts.OrderBy,
		Limit:      pageSize + 1,
		StartAfter: opts.StartAfter,
	})
	if err != nil {
		return model.ListPage[T]{}, errors.MapStoreError(err)
	}

	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeDoc[T](doc)
		if err != nil {
			return model.ListPage[T]{}, err
		}
		items = append(items, *item)
	}

	page := model.ListPage[T]{Items: items, HasMore: hasMore}
	if len(docs) > 0 {
		page.LastDoc = model.NewCursor(docs[len(docs)-1])
	}
	return page, nil
}

// SearchByTerms matches records whose token field contains any of the given
// terms. Only the first 10 terms are honored; callers pre-rank longer lists.
func (s *CollectionService[T]) SearchByTerms(ctx context.Context, sctx model.ServiceContext, terms []string, opts model.SearchOptions) ([]T, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if err := s.validateContext(sctx); err != nil {
		return nil, err
	}

	field := opts.Field
	if field == "" {
		field = model.FieldSearchTerms
	}
	if len(terms) > maxSearchTerms {
		terms = terms[:maxSearchTerms]
	}

	filters := s.composeFilters(nil, opts.IncludeDeleted)
	filters = append(filters, model.Filter{FieldPath: field, Op: model.OperatorArrayContainsAny, Value: terms})

	docs, err := s.store.Query(ctx, repository.Query{
		Path:    s.path(sctx),
		Filters: filters,
		Limit:   limitODefecto(opts.Limit, defaultSearchLimit),
	})
	if err != nil {
		return nil, errors.MapStoreError(err)
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeDoc[T](doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// SafeGetByID is GetByID wrapped in a Result instead of a returned error.
func (s *CollectionService[T]) SafeGetByID(ctx context.Context, sctx model.ServiceContext, id string) result.Result[*T] {
	return result.Try(func() (*T, error) { return s.GetByID(ctx, sctx, id) })
}

// SafeList is List wrapped in a Result.
func (s *CollectionService[T]) SafeList(ctx context.Context, sctx model.ServiceContext, opts model.ListOptions) result.Result[model.ListPage[T]] {
	return result.Try(func() (model.ListPage[T], error) { return s.List(ctx, sctx, opts) })
}

// SafeCreate is CreateAutoID wrapped in a Result carrying the generated id.
func (s *CollectionService[T]) SafeCreate(ctx context.Context, sctx model.ServiceContext, data T) result.Result[string] {
	return result.Try(func() (string, error) { return s.CreateAutoID(ctx, sctx, data) })
}

func (s *CollectionService[T]) composeFilters(filters []model.Filter, includeDeleted bool) []model.Filter {
	composed := make([]model.Filter, 0, len(filters)+1)
	if !includeDeleted {
		composed = append(composed, model.Filter{FieldPath: model.FieldEliminado, Op: model.OperatorEqual, Value: false})
	}
	return append(composed, filters...)
}

// stampCreate sets the bookkeeping fields of a fresh document.
func (s *CollectionService[T]) stampCreate(doc map[string]interface{}, sctx model.ServiceContext) {
	now := s.now().UTC()
	doc[model.FieldEliminado] = false
	doc[model.FieldCreatedAt] = now
	doc[model.FieldUpdatedAt] = now
	if uid := sctx.ActorUID(); uid != "" {
		doc[model.FieldCreadoPor] = uid
		doc[model.FieldActualizadoPor] = uid
	}
	delete(doc, model.FieldFechaEliminacion)
	delete(doc, model.FieldEliminadoPor)
}

// stampUpdate refreshes the bookkeeping fields of a patch.
func (s *CollectionService[T]) stampUpdate(campos map[string]interface{}, sctx model.ServiceContext) map[string]interface{} {
	campos[model.FieldUpdatedAt] = s.now().UTC()
	if uid := sctx.ActorUID(); uid != "" {
		campos[model.FieldActualizadoPor] = uid
	}
	return campos
}

// auditarAccion fires the configured audit write. Best-effort: the audit
// service swallows its own failures, so the primary operation's outcome is
// already settled by the time this runs.
func (s *CollectionService[T]) auditarAccion(ctx context.Context, sctx model.ServiceContext, accion model.TipoAccion, id string, anteriores, nuevos map[string]interface{}) {
	if s.cfg.Audit == nil || !s.cfg.Audit.Enabled || s.audit == nil {
		return
	}
	switch accion {
	case model.AccionCrear:
		if nuevos != nil {
			s.audit.LogCreacion(ctx, sctx, s.cfg.Audit.Entidad, id, nuevos)
		}
	case model.AccionActualizar:
		if nuevos != nil {
			s.audit.LogActualizacion(ctx, sctx, s.cfg.Audit.Entidad, id, anteriores, nuevos, "")
		}
	case model.AccionEliminar:
		s.audit.LogEliminacion(ctx, sctx, s.cfg.Audit.Entidad, id, "")
	}
}

func (s *CollectionService[T]) publish(ctx context.Context, eventType, path, id string, doc map[string]interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, eventbus.NewBasicEvent(eventType, model.DocumentEvent{
		Path: path,
		ID:   id,
		Doc:  doc,
	}))
}

// valueToDoc converts a typed record into its raw document form.
func valueToDoc(v interface{}) (map[string]interface{}, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// decodeDoc converts a raw document back into a typed record.
func decodeDoc[T any](doc map[string]interface{}) (*T, error) {
	var out T
	if err := docToValue(doc, &out); err != nil {
		return nil, errors.NewServiceError(errors.CodeUnknown, "el documento almacenado no se pudo decodificar").WithCause(err)
	}
	return &out, nil
}

func estaEliminado(doc map[string]interface{}) bool {
	eliminado, _ := doc[model.FieldEliminado].(bool)
	return eliminado
}

func copiarDoc(doc map[string]interface{}) map[string]interface{} {
	copia := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		copia[k] = v
	}
	return copia
}
