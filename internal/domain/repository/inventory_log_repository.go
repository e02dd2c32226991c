package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// LogFilter filtros de listado de registros de inventario.
type LogFilter struct {
	ProductID *int64
	From, To  *time.Time
	Limit     int
	Offset    int
}

// InventoryLogRepository define el puerto de persistencia para InventoryLog.
type InventoryLogRepository interface {
	Create(ctx context.Context, log *entity.InventoryLog) error
	GetByID(ctx context.Context, id int64) (*entity.InventoryLog, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para leer la imagen previa.
	GetForUpdate(ctx context.Context, id int64) (*entity.InventoryLog, error)
	Update(ctx context.Context, log *entity.InventoryLog) error
	List(ctx context.Context, filter LogFilter) ([]*entity.InventoryLog, error)
	// SumByProduct Σ delta por producto; solo para conciliación.
	SumByProduct(ctx context.Context) (map[int64]int64, error)
}
