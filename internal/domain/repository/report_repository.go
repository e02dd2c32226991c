package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel fila del reporte de stock.
type StockLevel struct {
	ProductID int64
	SKU       string
	Name      string
	Quantity  int64
	Active    bool
}

// SalesSummary resumen de ventas en un rango.
type SalesSummary struct {
	Count        int64
	TotalCents   int64
	AverageCents decimal.Decimal // ticket promedio; solo presentación
}

// ReportRepository consultas de solo lectura. El stock negativo se reporta aquí,
// no se rechaza al escribir.
type ReportRepository interface {
	StockAtOrBelow(ctx context.Context, threshold int64) ([]StockLevel, error)
	SalesSummary(ctx context.Context, from, to time.Time) (SalesSummary, error)
}
