package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/usecase"
)

// SaleHandler ventas, sus líneas y el comprobante PDF.
type SaleHandler struct {
	uc      *usecase.SaleUseCase
	receipt *usecase.ReceiptUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *usecase.SaleUseCase, receipt *usecase.ReceiptUseCase) *SaleHandler {
	return &SaleHandler{uc: uc, receipt: receipt}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Cada línea con producto genera un registro de salida (tipo sale, delta -cantidad).
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Venta con sus líneas"
// @Success      201   {object}  dto.SaleMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	var seller *int64
	if id := GetUserID(c); id != 0 {
		seller = &id
	}
	out, err := h.uc.Create(c.UserContext(), seller, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.SaleListResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), pageQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta con sus líneas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary      Cambiar cliente o fecha de la venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la venta"
// @Param        body  body  dto.UpdateSaleRequest  true  "Cambios"
// @Success      200   {object}  dto.SaleResponse
// @Router       /api/sales/{id} [patch]
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateSaleRequest
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
// @Summary      Borrar venta y sus líneas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id            path   int   true   "ID de la venta"
// @Param        revert_stock  query  bool  false  "Borrar también los registros de salida"  default(true)
// @Success      200  {object}  dto.MutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [delete]
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Delete(c.UserContext(), id, c.QueryBool("revert_stock", true))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddDetail godoc
// @Summary      Agregar línea a una venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la venta"
// @Param        body  body  dto.SaleDetailRequest  true  "Línea"
// @Success      201   {object}  dto.DetailMutationResponse
// @Router       /api/sales/{id}/details [post]
func (h *SaleHandler) AddDetail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SaleDetailRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddDetail(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateDetail godoc
// @Summary      Actualizar o reasignar una línea
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        detailId  path  int  true  "ID de la línea"
// @Param        body      body  dto.UpdateDetailRequest  true  "Cambios"
// @Success      200       {object}  dto.DetailMutationResponse
// @Router       /api/sales/details/{detailId} [patch]
func (h *SaleHandler) UpdateDetail(c *fiber.Ctx) error {
	id, err := paramID(c, "detailId")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateDetailRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateDetail(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteDetail godoc
// @Summary      Borrar una línea
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        detailId      path   int   true   "ID de la línea"
// @Param        revert_stock  query  bool  false  "Borrar también su registro de salida"  default(true)
// @Success      200  {object}  dto.MutationResponse
// @Router       /api/sales/details/{detailId} [delete]
func (h *SaleHandler) DeleteDetail(c *fiber.Ctx) error {
	id, err := paramID(c, "detailId")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.DeleteDetail(c.UserContext(), id, c.QueryBool("revert_stock", true))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Receipt godoc
// @Summary      Comprobante PDF de la venta
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	pdf, err := h.receipt.Render(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="venta-%d.pdf"`, id))
	return c.Send(pdf)
}
