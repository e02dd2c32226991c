package usecase

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/pkg/money"
)

// defaultSummaryWindow rango del resumen de ventas cuando no se indica.
const defaultSummaryWindow = 30 * 24 * time.Hour

// ReportUseCase consultas de solo lectura sobre los agregados.
type ReportUseCase struct {
	reports repository.ReportRepository
	now     func() time.Time
}

func NewReportUseCase(reports repository.ReportRepository) *ReportUseCase {
	return &ReportUseCase{reports: reports, now: time.Now}
}

// StockReport productos con cantidad <= threshold; el stock negativo aparece marcado.
func (uc *ReportUseCase) StockReport(ctx context.Context, threshold int64) (*dto.StockReportResponse, error) {
	levels, err := uc.reports.StockAtOrBelow(ctx, threshold)
	if err != nil {
		return nil, err
	}
	out := &dto.StockReportResponse{Threshold: threshold, Items: make([]dto.StockLevelResponse, 0, len(levels))}
	for _, l := range levels {
		out.Items = append(out.Items, dto.StockLevelResponse{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Active:    l.Active,
			Negative:  l.Quantity < 0,
		})
	}
	return out, nil
}

// SalesSummary resumen en [from, to). Sin rango: los últimos 30 días.
func (uc *ReportUseCase) SalesSummary(ctx context.Context, from, to *time.Time) (*dto.SalesSummaryResponse, error) {
	end := uc.now().UTC()
	if to != nil {
		end = *to
	}
	start := end.Add(-defaultSummaryWindow)
	if from != nil {
		start = *from
	}
	if !start.Before(end) {
		return nil, domain.NewConstraintViolation("from", "debe ser anterior a to")
	}
	sum, err := uc.reports.SalesSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &dto.SalesSummaryResponse{
		From:         start,
		To:           end,
		Count:        sum.Count,
		TotalCents:   sum.TotalCents,
		Total:        money.Format(sum.TotalCents),
		AverageCents: sum.AverageCents,
	}, nil
}
