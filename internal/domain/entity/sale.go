package entity

import "time"

// Sale cabecera de venta. TotalCents es derivado: suma de SubtotalCents de sus detalles.
type Sale struct {
	ID         int64
	Time       time.Time
	CustomerID *int64
	UserID     *int64
	TotalCents int64
}
