// Package http exposes the fleet services over a Fiber HTTP API, plus a
// websocket endpoint for realtime listeners.
package http

import (
	"strings"

	"fleetstore/internal/shared/contextkeys"
	"fleetstore/internal/shared/errors"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/domain/model"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// localServiceContext is the fiber.Ctx locals key the middleware stores the
// resolved service context under.
const localServiceContext = "serviceContext"

// AuthMiddleware validates the Bearer JWT and resolves the per-request
// service context: the actor from the token claims, the tenant from the
// X-Tenant-ID header or the tenantId claim (header wins, so operators
// belonging to several tenants can switch without re-authenticating).
type AuthMiddleware struct {
	secret []byte
	log    logger.Logger
}

// NewAuthMiddleware creates the middleware with the shared signing secret.
func NewAuthMiddleware(secret string, log logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthMiddleware{secret: []byte(secret), log: log.WithComponent("auth")}
}

// Handler is the fiber middleware func.
func (m *AuthMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(auth, "Bearer ") {
			return respondError(c, errors.NewServiceError(errors.CodePermissionDenied, "falta el token de autorización"))
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.NewServiceError(errors.CodePermissionDenied, "método de firma no soportado")
			}
			return m.secret, nil
		})
		if err != nil {
			m.log.Warnf("token rechazado: %v", err)
			return respondError(c, errors.NewServiceError(errors.CodePermissionDenied, "token inválido o caducado"))
		}

		tenantID := c.Get("X-Tenant-ID")
		if tenantID == "" {
			tenantID, _ = claims["tenantId"].(string)
		}

		uid, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		rol, _ := claims["rol"].(string)

		sctx := model.BuildServiceContext(&model.AuthUser{UID: uid, Email: email}, tenantID)
		if sctx.Actor != nil {
			sctx.Actor.Rol = rol
		}
		c.Locals(localServiceContext, sctx)
		c.SetUserContext(contextkeys.WithTenantID(c.UserContext(), tenantID))
		return c.Next()
	}
}

// serviceContext pulls the resolved context back out of the request.
func serviceContext(c *fiber.Ctx) model.ServiceContext {
	sctx, _ := c.Locals(localServiceContext).(model.ServiceContext)
	return sctx
}
