package entity

import "time"

// Product representa un SKU del inventario.
// Quantity es derivado: suma de los delta de sus InventoryLog; solo lo escribe el mantenedor de agregados.
type Product struct {
	ID          int64
	SKU         string // único
	Active      bool
	Name        string
	PriceCents  int64 // unidades menores, > 0
	Quantity    int64
	Description string
	CategoryID  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
