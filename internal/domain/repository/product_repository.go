package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// ProductFilter filtros de listado.
type ProductFilter struct {
	CategoryID *int64
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// Create y Update ignoran Quantity: solo AdjustQuantity (y SetQuantity en conciliación) lo escriben.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// AdjustQuantity suma delta bajo bloqueo de fila y devuelve el nuevo valor;
	// domain.ErrNotFound si el producto no existe.
	AdjustQuantity(ctx context.Context, id, delta int64) (int64, error)
	SetQuantity(ctx context.Context, id, quantity int64) error
	// Quantities lee las cantidades bloqueando las filas hasta el fin de la transacción.
	Quantities(ctx context.Context) (map[int64]int64, error)
	// Lock bloquea las filas indicadas en orden ascendente de id.
	Lock(ctx context.Context, ids []int64) error
}
