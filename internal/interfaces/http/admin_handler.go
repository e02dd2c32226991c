package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/usecase"
)

// AdminHandler mantenimiento: cambio de claves y conciliación.
type AdminHandler struct {
	uc *usecase.AdminUseCase
}

func NewAdminHandler(uc *usecase.AdminUseCase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

// Rekey godoc
// @Summary      Cambiar la clave primaria de una fila
// @Description  Los hijos se repuntan a la nueva clave; los agregados no cambian.
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Param        body  body  dto.RekeyRequest  true  "Tabla y claves"
// @Success      204
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/rekey [post]
func (h *AdminHandler) Rekey(c *fiber.Ctx) error {
	var in dto.RekeyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.Rekey(c.UserContext(), in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reconcile godoc
// @Summary      Conciliar agregados
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        repair  query  bool  false  "Reescribir los agregados desviados"  default(false)
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.uc.Reconcile(c.UserContext(), c.QueryBool("repair", false))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
