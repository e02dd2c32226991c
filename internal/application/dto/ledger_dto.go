package dto

import "time"

// CreateLogRequest nuevo registro de inventario. Delta firmado: positivo entra, negativo sale.
type CreateLogRequest struct {
	Type      string     `json:"type"`
	ProductID *int64     `json:"product_id"`
	Delta     int64      `json:"delta"`
	Time      *time.Time `json:"time"`
	Note      string     `json:"note"`
}

// UpdateLogRequest cambios parciales. ClearProduct desliga el registro de su producto.
type UpdateLogRequest struct {
	Type         *string    `json:"type"`
	ProductID    *int64     `json:"product_id"`
	ClearProduct bool       `json:"clear_product"`
	Delta        *int64     `json:"delta"`
	Time         *time.Time `json:"time"`
	Note         *string    `json:"note"`
}

// LogResponse salida de un registro.
type LogResponse struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	ProductID *int64    `json:"product_id"`
	Delta     int64     `json:"delta"`
	Time      time.Time `json:"time"`
	Note      string    `json:"note"`
}

// LogMutationResponse el registro y los agregados que cambiaron.
type LogMutationResponse struct {
	Log        LogResponse      `json:"log"`
	Aggregates []AggregateValue `json:"aggregates"`
}

// LogListResponse lista paginada de registros.
type LogListResponse struct {
	Items []LogResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}

// SaleDetailRequest línea de venta. Con ProductID se genera un registro de salida de stock.
type SaleDetailRequest struct {
	ProductID     *int64 `json:"product_id"`
	Quantity      int64  `json:"quantity"`
	SubtotalCents int64  `json:"subtotal_cents"`
	Note          string `json:"note"`
}

// CreateSaleRequest venta con al menos una línea.
type CreateSaleRequest struct {
	CustomerID *int64              `json:"customer_id"`
	Time       *time.Time          `json:"time"`
	Details    []SaleDetailRequest `json:"details"`
}

// UpdateSaleRequest cambios de cabecera. ClearCustomer deja la venta sin cliente.
type UpdateSaleRequest struct {
	CustomerID    *int64     `json:"customer_id"`
	ClearCustomer bool       `json:"clear_customer"`
	Time          *time.Time `json:"time"`
}

// UpdateDetailRequest cambios de una línea. SaleID la reasigna a otra venta.
type UpdateDetailRequest struct {
	SaleID        *int64  `json:"sale_id"`
	Quantity      *int64  `json:"quantity"`
	SubtotalCents *int64  `json:"subtotal_cents"`
	Note          *string `json:"note"`
}

// SalesDetailResponse salida de una línea.
type SalesDetailResponse struct {
	ID            int64  `json:"id"`
	SaleID        int64  `json:"sale_id"`
	LogID         *int64 `json:"log_id"`
	ProductID     *int64 `json:"product_id"`
	Quantity      int64  `json:"quantity"`
	SubtotalCents int64  `json:"subtotal_cents"`
	Note          string `json:"note"`
}

// SaleResponse cabecera con sus líneas. Total es TotalCents formateado.
type SaleResponse struct {
	ID         int64                 `json:"id"`
	Time       time.Time             `json:"time"`
	CustomerID *int64                `json:"customer_id"`
	UserID     *int64                `json:"user_id"`
	TotalCents int64                 `json:"total_cents"`
	Total      string                `json:"total"`
	Details    []SalesDetailResponse `json:"details,omitempty"`
}

// SaleMutationResponse la venta y los agregados que cambiaron.
type SaleMutationResponse struct {
	Sale       SaleResponse     `json:"sale"`
	Aggregates []AggregateValue `json:"aggregates"`
}

// DetailMutationResponse la línea y los agregados que cambiaron.
type DetailMutationResponse struct {
	Detail     SalesDetailResponse `json:"detail"`
	Aggregates []AggregateValue    `json:"aggregates"`
}

// SaleListResponse lista paginada de ventas (sin líneas).
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
