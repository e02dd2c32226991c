package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// roleChecker es el contrato mínimo que necesita el middleware para leer el rol vigente.
// Lo implementa *auth.AuthUseCase; el uso de interfaz evita el import circular.
type roleChecker interface {
	CurrentRole(ctx context.Context, userID int64) (entity.Role, error)
}

// RefreshRole reemplaza el rol del token por el de la base de datos, para que una
// desactivación o un cambio de rol surtan efecto sin esperar a que el token expire.
// Debe usarse DESPUÉS de AuthMiddleware y ANTES de RequireRole.
//
// Comportamiento:
//   - 403 Forbidden → usuario borrado.
//   - 503 Service Unavailable → fallo de infraestructura al consultar la DB.
func RefreshRole(checker roleChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "user_id no encontrado en el token",
			})
		}
		role, err := checker.CurrentRole(c.UserContext(), userID)
		if errors.Is(err, domain.ErrRoleRevoked) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "ROLE_REVOKED",
				Message: "el usuario ya no existe",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "ROLE_CHECK_FAILED",
				Message: "no se pudo verificar el rol, intente más tarde",
			})
		}
		c.Locals(LocalRole, role)
		return c.Next()
	}
}
