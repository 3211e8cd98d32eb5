package http

import (
	"context"
	"sync"

	"fleetstore/internal/fleet"
	"fleetstore/internal/shared/eventbus"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/domain/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WSMessage is the JSON frame pushed to websocket clients. For documento
// frames Data is the record (null when it no longer exists); for lista frames
// Data is the full current page.
type WSMessage struct {
	Type      string      `json:"type"`
	Coleccion string      `json:"coleccion"`
	ID        string      `json:"id,omitempty"`
	Data      interface{} `json:"data"`
}

// wsRequest is the subscription the client opens the socket with, taken from
// query parameters: ?coleccion=autobuses&id=... for one document, without id
// for the live list.
type wsRequest struct {
	Coleccion string
	ID        string
}

// WebSocketHandler serves realtime document and list subscriptions.
type WebSocketHandler struct {
	autobuses   *fleet.AutobusesService
	incidencias *fleet.IncidenciasService
	log         logger.Logger
}

// NewWebSocketHandler creates the handler over the listenable services.
func NewWebSocketHandler(autobuses *fleet.AutobusesService, incidencias *fleet.IncidenciasService, log logger.Logger) *WebSocketHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &WebSocketHandler{autobuses: autobuses, incidencias: incidencias, log: log.WithComponent("websocket")}
}

// RegisterRoutes mounts the websocket endpoint at path. auth runs on the
// upgrade request, so the socket inherits the resolved service context.
func (h *WebSocketHandler) RegisterRoutes(app *fiber.App, path string, auth fiber.Handler) {
	app.Use(path, auth, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals("sctx", serviceContext(c))
		c.Locals("req", wsRequest{Coleccion: c.Query("coleccion"), ID: c.Query("id")})
		return c.Next()
	})
	app.Get(path, websocket.New(h.handleConnection))
}

func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sctx, _ := conn.Locals("sctx").(model.ServiceContext)
	req, _ := conn.Locals("req").(wsRequest)
	connID := uuid.NewString()

	h.log.Infof("conexión websocket %s: coleccion=%s id=%s tenant=%s", connID, req.Coleccion, req.ID, sctx.TenantID)

	// Concurrent writers (initial snapshot, event refreshes) share the socket.
	var writeMu sync.Mutex
	send := func(msg WSMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debugf("conexión %s: error escribiendo, cancelando: %v", connID, err)
			cancel()
		}
	}
	sendError := func(err error) {
		send(WSMessage{Type: "error", Coleccion: req.Coleccion, ID: req.ID, Data: err.Error()})
	}

	unsubscribe, err := h.subscribe(ctx, sctx, req, send, sendError)
	if err != nil {
		sendError(err)
		return
	}
	defer unsubscribe()

	// Drain the read side until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// subscribe attaches the requested listener. Each supported collection maps
// to its service so tenant scoping and soft-delete semantics apply.
func (h *WebSocketHandler) subscribe(ctx context.Context, sctx model.ServiceContext, req wsRequest, send func(WSMessage), sendError func(error)) (eventbus.Unsubscribe, error) {
	onError := func(err error) { sendError(err) }

	switch req.Coleccion {
	case "autobuses":
		if req.ID != "" {
			return h.autobuses.Escuchar(ctx, sctx, req.ID, func(bus *fleet.Autobus) {
				send(WSMessage{Type: "documento", Coleccion: req.Coleccion, ID: req.ID, Data: bus})
			}, onError)
		}
		return h.autobuses.EscucharLista(ctx, sctx, model.ListOptions{}, func(items []fleet.Autobus) {
			send(WSMessage{Type: "lista", Coleccion: req.Coleccion, Data: items})
		}, onError)
	case "incidencias":
		if req.ID != "" {
			return h.incidencias.Escuchar(ctx, sctx, req.ID, func(inc *fleet.Incidencia) {
				send(WSMessage{Type: "documento", Coleccion: req.Coleccion, ID: req.ID, Data: inc})
			}, onError)
		}
		return h.incidencias.EscucharLista(ctx, sctx, model.ListOptions{}, func(items []fleet.Incidencia) {
			send(WSMessage{Type: "lista", Coleccion: req.Coleccion, Data: items})
		}, onError)
	default:
		return nil, errNoSuscribible(req.Coleccion)
	}
}

func errNoSuscribible(coleccion string) error {
	return fiber.NewError(fiber.StatusBadRequest, "colección no suscribible: "+coleccion)
}
