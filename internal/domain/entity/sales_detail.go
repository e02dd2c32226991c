package entity

// SalesDetail línea de venta. LogID apunta al InventoryLog que respalda la salida de stock
// (único); ProductID es nulo en líneas sin inventario (servicios).
type SalesDetail struct {
	ID            int64
	SaleID        int64
	LogID         *int64
	ProductID     *int64
	Quantity      int64
	SubtotalCents int64
	Note          string
}
