package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/domain"
)

// writeChecker es el contrato mínimo que necesita el filtro de suscripción.
// Lo implementa *subscription.Service.
type writeChecker interface {
	CanWrite(ctx context.Context, userID string) (bool, error)
}

// Rutas que no pasan por el filtro aunque usen métodos de escritura.
var writeGateExempt = []string{"/auth/", "/webhook/", "/subscription/", "/admin/"}

// RequireWritableSubscription bloquea las peticiones de escritura (todo salvo GET, HEAD
// y OPTIONS) de usuarios cuya suscripción no permite modificar datos.
// Debe usarse DESPUÉS de AuthMiddleware (necesita LocalUserID).
//
// Comportamiento:
//   - 403 SUBSCRIPTION_REQUIRED → prueba vencida, impago o cancelada.
//   - 503 Service Unavailable → fallo al consultar el estado.
//   - skip = true desactiva el filtro (entornos locales).
func RequireWritableSubscription(checker writeChecker, skip bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skip || !isWrite(c.Method()) || exempt(c.Path()) {
			return c.Next()
		}
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "user_id no encontrado en el token",
			})
		}

		ok, err := checker.CanWrite(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "SUBSCRIPTION_CHECK_FAILED",
				Message: "no se pudo verificar la suscripción, intente más tarde",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "SUBSCRIPTION_REQUIRED",
				Message: domain.ErrSubscriptionReadOnly.Error(),
			})
		}
		return c.Next()
	}
}

func isWrite(method string) bool {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return false
	}
	return true
}

func exempt(path string) bool {
	for _, prefix := range writeGateExempt {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
