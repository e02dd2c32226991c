package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
)

// writeError traduce errores de dominio al cuerpo dto.ErrorResponse con su status.
func writeError(c *fiber.Ctx, err error) error {
	status, body := mapError(err)
	return c.Status(status).JSON(body)
}

func mapError(err error) (int, dto.ErrorResponse) {
	var cv *domain.ConstraintViolation
	if errors.As(err, &cv) {
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "CONSTRAINT_VIOLATION", Message: cv.Error(), Field: cv.Field}
	}
	var re *domain.ReferentialError
	if errors.As(err, &re) {
		return fiber.StatusConflict, dto.ErrorResponse{Code: "REFERENTIAL", Message: re.Error(), Field: re.Relation}
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "USER_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"}
	case errors.Is(err, domain.ErrRoleRevoked):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "ROLE_REVOKED", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, domain.ErrNoFieldsToSet):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "NO_FIELDS", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrTransient):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "RETRY", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, dto.ErrorResponse{Code: "HTTP", Message: fe.Message}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

// ErrorHandler manejador de errores de Fiber para lo que los handlers no respondieron.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}
