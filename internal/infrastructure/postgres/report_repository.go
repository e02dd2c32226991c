package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas de solo lectura.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador. El pool debe tener registrado el codec
// de pgx-shopspring-decimal (ver NewPool).
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

func (r *ReportRepo) StockAtOrBelow(ctx context.Context, threshold int64) ([]repository.StockLevel, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sku, name, quantity, active FROM products
		WHERE quantity <= $1 ORDER BY quantity, id`, threshold)
	if err != nil {
		return nil, fmt.Errorf("stock report: %w", err)
	}
	defer rows.Close()
	var out []repository.StockLevel
	for rows.Next() {
		var s repository.StockLevel
		if err := rows.Scan(&s.ProductID, &s.SKU, &s.Name, &s.Quantity, &s.Active); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SalesSummary rango semiabierto [from, to). El promedio llega como NUMERIC → decimal.
func (r *ReportRepo) SalesSummary(ctx context.Context, from, to time.Time) (repository.SalesSummary, error) {
	var s repository.SalesSummary
	err := r.q.QueryRow(ctx, `
		SELECT count(*), COALESCE(SUM(total_cents), 0)::bigint,
			COALESCE(ROUND(AVG(total_cents)::numeric, 2), 0)
		FROM sales WHERE time >= $1 AND time < $2`, from, to,
	).Scan(&s.Count, &s.TotalCents, &s.AverageCents)
	if err != nil {
		return s, fmt.Errorf("sales summary: %w", err)
	}
	return s, nil
}
