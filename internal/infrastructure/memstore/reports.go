package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

type reportRepo struct{ v *view }

func (r *reportRepo) StockAtOrBelow(_ context.Context, threshold int64) ([]repository.StockLevel, error) {
	var out []repository.StockLevel
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			if p.Quantity <= threshold {
				out = append(out, repository.StockLevel{
					ProductID: p.ID, SKU: p.SKU, Name: p.Name, Quantity: p.Quantity, Active: p.Active,
				})
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, err
}

// SalesSummary rango semiabierto [from, to).
func (r *reportRepo) SalesSummary(_ context.Context, from, to time.Time) (repository.SalesSummary, error) {
	sum := repository.SalesSummary{AverageCents: decimal.Zero}
	err := r.v.do(func(st *state) error {
		for _, s := range st.sales {
			if s.Time.Before(from) || !s.Time.Before(to) {
				continue
			}
			sum.Count++
			sum.TotalCents += s.TotalCents
		}
		return nil
	})
	if sum.Count > 0 {
		sum.AverageCents = decimal.NewFromInt(sum.TotalCents).
			Div(decimal.NewFromInt(sum.Count)).Round(2)
	}
	return sum, err
}
