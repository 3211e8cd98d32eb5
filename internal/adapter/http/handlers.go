package http

import (
	stderrors "errors"

	"fleetstore/internal/fleet"
	"fleetstore/internal/shared/errors"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/domain/model"
	"fleetstore/internal/store/usecase"

	"github.com/gofiber/fiber/v2"
)

// FleetHandler routes the fleet API.
type FleetHandler struct {
	autobuses   *fleet.AutobusesService
	equipos     *fleet.EquiposService
	incidencias *fleet.IncidenciasService
	audit       *usecase.AuditService
	log         logger.Logger
}

// NewFleetHandler wires the handler over the domain services.
func NewFleetHandler(autobuses *fleet.AutobusesService, equipos *fleet.EquiposService, incidencias *fleet.IncidenciasService, audit *usecase.AuditService, log logger.Logger) *FleetHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &FleetHandler{
		autobuses:   autobuses,
		equipos:     equipos,
		incidencias: incidencias,
		audit:       audit,
		log:         log.WithComponent("http"),
	}
}

// RegisterRoutes mounts the API under /api/v1. auth runs before every route.
func (h *FleetHandler) RegisterRoutes(app *fiber.App, auth fiber.Handler) {
	api := app.Group("/api/v1", auth)

	autobuses := api.Group("/autobuses")
	autobuses.Post("/", h.crearAutobus)
	autobuses.Get("/", h.listarAutobuses)
	autobuses.Get("/buscar", h.buscarAutobuses)
	autobuses.Get("/:id", h.obtenerAutobus)
	autobuses.Patch("/:id", h.actualizarAutobus)
	autobuses.Put("/:id/estado", h.cambiarEstadoAutobus)
	autobuses.Delete("/:id", h.eliminarAutobus)

	equipos := api.Group("/equipos")
	equipos.Post("/", h.crearEquipo)
	equipos.Get("/", h.listarEquipos)
	equipos.Get("/:id", h.obtenerEquipo)
	equipos.Put("/:id/estado", h.cambiarEstadoEquipo)
	equipos.Put("/:id/instalar", h.instalarEquipo)
	equipos.Delete("/:id", h.eliminarEquipo)

	incidencias := api.Group("/incidencias")
	incidencias.Post("/", h.crearIncidencia)
	incidencias.Get("/", h.listarIncidencias)
	incidencias.Get("/:id", h.obtenerIncidencia)
	incidencias.Put("/:id/estado", h.cambiarEstadoIncidencia)
	incidencias.Put("/:id/asignar", h.asignarIncidencia)
	incidencias.Delete("/:id", h.eliminarIncidencia)

	api.Get("/auditoria/:entidadId", h.historialEntidad)
}

// respondError maps a service error onto its HTTP status with the
// user-facing message in the body.
func respondError(c *fiber.Ctx, err error) error {
	var svcErr *errors.ServiceError
	if !stderrors.As(err, &svcErr) {
		svcErr = errors.MapStoreError(err)
	}
	return c.Status(svcErr.HTTPStatus).JSON(fiber.Map{
		"error":   string(svcErr.Code),
		"mensaje": svcErr.UserMessage,
	})
}

func parseListOptions(c *fiber.Ctx) (model.ListOptions, error) {
	opts := model.ListOptions{
		PageSize:       c.QueryInt("pageSize"),
		IncludeDeleted: c.QueryBool("incluirEliminados"),
	}
	if raw := c.Query("cursor"); raw != "" {
		cursor, err := model.DecodeCursor(raw)
		if err != nil {
			return opts, errors.NewServiceError(errors.CodeInvalidArgument, "cursor de paginación inválido")
		}
		opts.StartAfter = cursor
	}
	return opts, nil
}

func respondPage[T any](c *fiber.Ctx, page model.ListPage[T]) error {
	body := fiber.Map{
		"items":   page.Items,
		"hasMore": page.HasMore,
	}
	if page.LastDoc != nil {
		cursor, err := page.LastDoc.Encode()
		if err != nil {
			return respondError(c, err)
		}
		body["cursor"] = cursor
	}
	return c.JSON(body)
}

// --- autobuses ---

func (h *FleetHandler) crearAutobus(c *fiber.Ctx) error {
	var a fleet.Autobus
	if err := c.BodyParser(&a); err != nil {
		return respondError(c, errors.NewServiceError(errors.CodeInvalidArgument, "cuerpo de la petición inválido"))
	}
	id, err := h.autobuses.Crear(c.UserContext(), serviceContext(c), a)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *FleetHandler) obtenerAutobus(c *fiber.Ctx) error {
	bus, err := h.autobuses.ObtenerPorID(c.UserContext(), serviceContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if bus == nil {
		return respondError(c, errors.NewServiceError(errors.CodeNotFound, "autobús no encontrado"))
	}
	return c.JSON(bus)
}

func (h *FleetHandler) listarAutobuses(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return respondError(c, err)
	}

	var page model.ListPage[fleet.Autobus]
	switch {
	case c.Query("operadorId") != "":
		page, err = h.autobuses.ListarPorOperador(c.UserContext(), serviceContext(c), c.Query("operadorId"), opts)
	case c.Query("estado") != "":
		page, err = h.autobuses.ListarPorEstado(c.UserContext(), serviceContext(c), fleet.EstadoAutobus(c.Query("estado")), opts)
	default:
		page, err = h.autobuses.Listar(c.UserContext(), serviceContext(c), opts)
	}
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

func (h *FleetHandler) buscarAutobuses(c *fiber.Ctx) error {
	items, err := h.autobuses.Buscar(c.UserContext(), serviceContext(c), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *FleetHandler) actualizarAutobus(c *fiber.Ctx) error {
	var patch map[string]interface{}
	if err := c.BodyParser(&patch); err != nil {
		return respondError(c, errors.NewServiceError(errors.CodeInvalidArgument, "cuerpo de la petición inválido"))
	}
	if err := h.autobuses.Actualizar(c.UserContext(), serviceContext(c), c.Params("id"), patch); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FleetHandler) cambiarEstadoAutobus(c *fiber.Ctx) error {
	var body struct {
		Estado fleet.EstadoAutobus `json:"estado"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, errors.NewServiceError(errors.CodeInvalidArgument, "cuerpo de la petición inválido"))
	}
	if err := h.autobuses.CambiarEstado(c.UserContext(), serviceContext(c), c.Params("id"), body.Estado); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FleetHandler) eliminarAutobus(c *fiber.Ctx) error {
	if err := h.autobuses.Eliminar(c.UserContext(), serviceContext(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- equipos ---

func (h *FleetHandler) crearEquipo(c *fiber.Ctx) error {
	var body struct {
		fleet.Equipo
		CodigoBus string `json:"codigoBus"`
		Indice    int    `json:"indice"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, errors.NewServiceError(errors.CodeInvalidArgument, "cuerpo de la petición inválido"))
	}
	if body.Indice == 0 {
		body.Indice = 1
	}
	id, err := h.equipos.Crear(c.UserContext(), serviceContext(c), body.Equipo, body.CodigoBus, body.Indice)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *FleetHandler) obtenerEquipo(c *fiber.Ctx) error {
	eq, err := h.equipos.ObtenerPorID(c.UserContext(), serviceContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if eq == nil {
		return respondError(c, errors.NewServiceError(errors.CodeNotFound, "equipo no encontrado"))
	}
	return c.JSON(eq)
}

func (h *FleetHandler) listarEquipos(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return respondError(c, err)
	}

	var page model.ListPage[fleet.Equipo]
	if autobusID := c.Query("autobusId"); autobusID != "" {
		page, err = h.equipos.ListarPorAutobus(c.UserContext(), serviceContext(c), autobusID, opts)
	} else {
		page, err = h.equipos.Listar(c.UserContext(), serviceContext(c), opts)
	}
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

func (h *FleetHandler) cambiarEstadoEquipo(c *fiber.Ctx) error {
	var body struct {
		Estado fleet.EstadoEquipo `json:"estado"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, errors.NewServiceError(errors.CodeInvalidArgument, "cuerpo de la petición inválido"))
	}
	if err := h.equipos.CambiarEstado(c.UserContext(), serviceContext(c), c.Params("id"), body.Estado); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FleetHandler) instalarEquipo(c *fiber.Ctx) error {
	var body struct {
		AutobusID string `json:"autobusId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, errors.NewServiceError(errors.CodeInvalidArgument, "cuerpo de la petición inválido"))
	}
	if err := h.equipos.Instalar(c.UserContext(), serviceContext(c), c.Params("id"), body.AutobusID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FleetHandler) eliminarEquipo(c *fiber.Ctx) error {
	if err := h.equipos.Eliminar(c.UserContext(), serviceContext(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- incidencias ---

func (h *FleetHandler) crearIncidencia(c *fiber.Ctx) error {
	var inc fleet.Incidencia
	if err := c.BodyParser(&inc); err != nil {
		return respondError(c, errors.NewServiceError(errors.CodeInvalidArgument, "cuerpo de la petición inválido"))
	}
	id, err := h.incidencias.Crear(c.UserContext(), serviceContext(c), inc)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *FleetHandler) obtenerIncidencia(c *fiber.Ctx) error {
	inc, err := h.incidencias.ObtenerPorID(c.UserContext(), serviceContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if inc == nil {
		return respondError(c, errors.NewServiceError(errors.CodeNotFound, "incidencia no encontrada"))
	}
	return c.JSON(inc)
}

func (h *FleetHandler) listarIncidencias(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return respondError(c, err)
	}

	var page model.ListPage[fleet.Incidencia]
	switch {
	case c.Query("estado") != "":
		page, err = h.incidencias.ListarPorEstado(c.UserContext(), serviceContext(c),
			[]fleet.EstadoIncidencia{fleet.EstadoIncidencia(c.Query("estado"))}, opts)
	case c.Query("autobusId") != "":
		page, err = h.incidencias.ListarPorAutobus(c.UserContext(), serviceContext(c), c.Query("autobusId"), opts)
	default:
		page, err = h.incidencias.Listar(c.UserContext(), serviceContext(c), opts)
	}
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

func (h *FleetHandler) cambiarEstadoIncidencia(c *fiber.Ctx) error {
	var body struct {
		Estado        fleet.EstadoIncidencia `json:"estado"`
		Observaciones string                 `json:"observaciones"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, errors.NewServiceError(errors.CodeInvalidArgument, "cuerpo de la petición inválido"))
	}
	if err := h.incidencias.CambiarEstado(c.UserContext(), serviceContext(c), c.Params("id"), body.Estado, body.Observaciones); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FleetHandler) asignarIncidencia(c *fiber.Ctx) error {
	var body struct {
		AsignadoA string `json:"asignadoA"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, errors.NewServiceError(errors.CodeInvalidArgument, "cuerpo de la petición inválido"))
	}
	if err := h.incidencias.Asignar(c.UserContext(), serviceContext(c), c.Params("id"), body.AsignadoA); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FleetHandler) eliminarIncidencia(c *fiber.Ctx) error {
	if err := h.incidencias.Eliminar(c.UserContext(), serviceContext(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- auditoría ---

func (h *FleetHandler) historialEntidad(c *fiber.Ctx) error {
	logs, err := h.audit.GetHistorial(c.UserContext(), c.Params("entidadId"), usecase.AuditQueryOptions{
		Limit:  c.QueryInt("limit"),
		Accion: model.TipoAccion(c.Query("accion")),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": logs})
}
