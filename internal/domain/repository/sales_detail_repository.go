package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// SalesDetailRepository define el puerto de persistencia para SalesDetail.
type SalesDetailRepository interface {
	Create(ctx context.Context, detail *entity.SalesDetail) error
	GetByID(ctx context.Context, id int64) (*entity.SalesDetail, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.SalesDetail, error)
	GetByLogID(ctx context.Context, logID int64) (*entity.SalesDetail, error)
	Update(ctx context.Context, detail *entity.SalesDetail) error
	ListBySale(ctx context.Context, saleID int64) ([]*entity.SalesDetail, error)
	// SumBySale Σ subtotal_cents por venta; solo para conciliación.
	SumBySale(ctx context.Context) (map[int64]int64, error)
}
