package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto y tope a Limit/Offset.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse cuerpo de error HTTP. Field nombra la columna en violaciones de restricción.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// AggregateValue valor de un agregado tras una mutación.
type AggregateValue struct {
	Aggregate string `json:"aggregate"` // "products.quantity" | "sales.total_cents"
	ID        int64  `json:"id"`
	Value     int64  `json:"value"`
}

// MutationResponse respuesta de borrados: los agregados que cambiaron.
type MutationResponse struct {
	Message    string           `json:"message"`
	Aggregates []AggregateValue `json:"aggregates"`
}
