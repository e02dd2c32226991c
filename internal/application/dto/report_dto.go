package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevelResponse fila del reporte de stock.
type StockLevelResponse struct {
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Active    bool   `json:"active"`
	Negative  bool   `json:"negative"`
}

// StockReportResponse productos con cantidad <= Threshold.
type StockReportResponse struct {
	Threshold int64                `json:"threshold"`
	Items     []StockLevelResponse `json:"items"`
}

// SalesSummaryResponse resumen de ventas en [From, To).
type SalesSummaryResponse struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Count        int64           `json:"count"`
	TotalCents   int64           `json:"total_cents"`
	Total        string          `json:"total"`
	AverageCents decimal.Decimal `json:"average_cents"`
}

// RekeyRequest cambio de clave primaria con propagación a los hijos.
type RekeyRequest struct {
	Table string `json:"table"`
	OldID int64  `json:"old_id"`
	NewID int64  `json:"new_id"`
}

// DriftResponse desviación de un agregado.
type DriftResponse struct {
	Aggregate string `json:"aggregate"`
	ID        int64  `json:"id"`
	Stored    int64  `json:"stored"`
	Expected  int64  `json:"expected"`
}

// ReconcileResponse resultado de la conciliación.
type ReconcileResponse struct {
	Repaired bool            `json:"repaired"`
	Drifts   []DriftResponse `json:"drifts"`
}
