package usecase

import (
	"context"

	"fleetstore/internal/shared/errors"
	"fleetstore/internal/shared/eventbus"
	"fleetstore/internal/store/domain/model"
	"fleetstore/internal/store/domain/repository"
)

// documentEventTypes are the bus event types a listener has to observe to see
// every mutation of a collection.
var documentEventTypes = []string{
	model.EventDocumentoCreado,
	model.EventDocumentoActualizado,
	model.EventDocumentoEliminado,
}

// ListenByID subscribes to live changes of one document. onData receives nil
// both when the document does not exist and when it is (or becomes)
// soft-deleted: a soft delete under an active listener looks exactly like a
// hard delete to the consumer. onError receives subscription-level failures.
//
// The returned cancel func is owned by the caller, is idempotent, and is the
// only way the subscription ends: the service does no bookkeeping of its
// own, so an unclosed listener lives as long as the process.
func (s *CollectionService[T]) ListenByID(ctx context.Context, sctx model.ServiceContext, id string, onData func(*T), onError func(error)) (eventbus.Unsubscribe, error) {
	if err := s.validateContext(sctx); err != nil {
		return nil, err
	}
	if s.bus == nil {
		return nil, errors.NewServiceError(errors.CodeFailedPrecondition, "el servicio no tiene bus de eventos configurado")
	}
	path := s.path(sctx)

	deliverDoc := func(doc map[string]interface{}) {
		if doc == nil || estaEliminado(doc) {
			onData(nil)
			return
		}
		item, err := decodeDoc[T](doc)
		if err != nil {
			s.notifyError(onError, err)
			return
		}
		onData(item)
	}

	// Initial snapshot, before any event can race ahead of it.
	doc, err := s.store.Get(ctx, path, id)
	switch {
	case err == nil:
		deliverDoc(doc)
	case errors.IsNotFound(err):
		onData(nil)
	default:
		s.notifyError(onError, errors.MapStoreError(err))
	}

	handler := func(_ context.Context, e eventbus.Event) error {
		ev, ok := e.Data().(model.DocumentEvent)
		if !ok || ev.Path != path || ev.ID != id {
			return nil
		}
		deliverDoc(ev.Doc)
		return nil
	}
	return s.subscribeAll(handler), nil
}

// ListenList subscribes to a live query: the full current page (no cursor
// pagination) is re-delivered after every mutation in the collection. Same
// filter, order and soft-delete composition as List; default page size 50.
func (s *CollectionService[T]) ListenList(ctx context.Context, sctx model.ServiceContext, opts model.ListOptions, onData func([]T), onError func(error)) (eventbus.Unsubscribe, error) {
	if err := s.validateContext(sctx); err != nil {
		return nil, err
	}
	if s.bus == nil {
		return nil, errors.NewServiceError(errors.CodeFailedPrecondition, "el servicio no tiene bus de eventos configurado")
	}
	path := s.path(sctx)

	query := repository.Query{
		Path:    path,
		Filters: s.composeFilters(opts.Filters, opts.IncludeDeleted),
		Orders:  opts.OrderBy,
		Limit:   limitODefecto(opts.PageSize, defaultListenPageSize),
	}

	deliver := func() {
		docs, err := s.store.Query(ctx, query)
		if err != nil {
			s.notifyError(onError, errors.MapStoreError(err))
			return
		}
		items := make([]T, 0, len(docs))
		for _, doc := range docs {
			item, err := decodeDoc[T](doc)
			if err != nil {
				s.notifyError(onError, err)
				return
			}
			items = append(items, *item)
		}
		onData(items)
	}

	deliver()

	handler := func(_ context.Context, e eventbus.Event) error {
		ev, ok := e.Data().(model.DocumentEvent)
		if !ok || ev.Path != path {
			return nil
		}
		deliver()
		return nil
	}
	return s.subscribeAll(handler), nil
}

// subscribeAll registers handler for every document event type and folds the
// cancellations into one idempotent handle.
func (s *CollectionService[T]) subscribeAll(handler eventbus.Handler) eventbus.Unsubscribe {
	unsubs := make([]eventbus.Unsubscribe, 0, len(documentEventTypes))
	for _, t := range documentEventTypes {
		unsubs = append(unsubs, s.bus.Subscribe(t, handler))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *CollectionService[T]) notifyError(onError func(error), err error) {
	if onError != nil {
		onError(err)
		return
	}
	s.log.Errorf("error en listener sin manejador: %v", err)
}
