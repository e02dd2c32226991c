package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale.
// Create y Update ignoran TotalCents.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Sale, error)
	Update(ctx context.Context, sale *entity.Sale) error
	// AdjustTotal suma delta bajo bloqueo de fila; domain.ErrNotFound si la venta no existe.
	AdjustTotal(ctx context.Context, id, delta int64) (int64, error)
	SetTotal(ctx context.Context, id, total int64) error
	// Totals lee los totales bloqueando las filas hasta el fin de la transacción.
	Totals(ctx context.Context) (map[int64]int64, error)
}
