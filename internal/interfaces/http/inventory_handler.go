package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/usecase"
)

// InventoryHandler registros de inventario. Cada respuesta de mutación trae la cantidad resultante.
type InventoryHandler struct {
	uc *usecase.InventoryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *usecase.InventoryUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// Record godoc
// @Summary      Registrar movimiento de inventario
// @Description  Delta firmado: positivo entra, negativo sale. El stock negativo se permite.
// @Tags         logs
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLogRequest  true  "Registro"
// @Success      201   {object}  dto.LogMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/logs [post]
func (h *InventoryHandler) Record(c *fiber.Ctx) error {
	var in dto.CreateLogRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Record(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar registros (más recientes primero)
// @Tags         logs
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  int     false  "Filtrar por producto"
// @Param        from        query  string  false  "Desde (RFC 3339, inclusivo)"
// @Param        to          query  string  false  "Hasta (RFC 3339, exclusivo)"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200         {object}  dto.LogListResponse
// @Router       /api/logs [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	productID, err := queryID(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), productID, from, to, pageQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener registro
// @Tags         logs
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del registro"
// @Success      200  {object}  dto.LogResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/logs/{id} [get]
func (h *InventoryHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar registro
// @Tags         logs
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID del registro"
// @Param        body  body  dto.UpdateLogRequest  true  "Cambios"
// @Success      200   {object}  dto.LogMutationResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/logs/{id} [patch]
func (h *InventoryHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateLogRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Borrar registro
// @Tags         logs
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del registro"
// @Success      200  {object}  dto.MutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/logs/{id} [delete]
func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Delete(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
