package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/pkg/logger"
	"github.com/jhoicas/ledger-api/pkg/money"
)

// saleLogNote nota del registro de salida que respalda una línea de venta.
const saleLogNote = "Automatic logging from sale #%d: %s"

// SaleUseCase ventas y sus líneas. Las líneas con producto generan un registro de
// inventario de tipo sale con delta -cantidad.
type SaleUseCase struct {
	runner
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(tx aggregate.TxRunner, events ChangePublisher, log *logger.Logger) *SaleUseCase {
	return &SaleUseCase{runner: newRunner(tx, events, log)}
}

// Create registra la venta y todas sus líneas en una transacción. userID es el vendedor autenticado.
func (uc *SaleUseCase) Create(ctx context.Context, userID *int64, in dto.CreateSaleRequest) (*dto.SaleMutationResponse, error) {
	if in.CustomerID == nil {
		return nil, domain.NewConstraintViolation("customer_id", "requerido")
	}
	if len(in.Details) == 0 {
		return nil, domain.NewConstraintViolation("details", "la venta necesita al menos una línea")
	}
	sale := &entity.Sale{CustomerID: in.CustomerID, UserID: userID, Time: time.Now().UTC()}
	if in.Time != nil {
		sale.Time = *in.Time
	}
	var details []*entity.SalesDetail
	changes, err := uc.mutate(ctx, "sale.create", func(s repository.Store, m *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		if err := s.Sales.Create(ctx, sale); err != nil {
			return nil, err
		}
		ids := make([]*int64, 0, len(in.Details))
		for _, req := range in.Details {
			ids = append(ids, req.ProductID)
		}
		if err := lockProducts(ctx, s, ids); err != nil {
			return nil, err
		}
		var all aggregate.Changes
		for _, req := range in.Details {
			d, c, err := addDetail(ctx, s, m, sale, req)
			if err != nil {
				return nil, err
			}
			details = append(details, d)
			all = append(all, c...)
		}
		if v, ok := all.Lookup(ledger.AggregateSaleTotal, sale.ID); ok {
			sale.TotalCents = v
		}
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.SaleMutationResponse{Sale: toSaleResponse(sale, details), Aggregates: toAggregateValues(changes)}, nil
}

// addDetail escribe primero el registro de salida (si hay producto) y luego la línea.
func addDetail(ctx context.Context, s repository.Store, m *aggregate.Maintainer, sale *entity.Sale, req dto.SaleDetailRequest) (*entity.SalesDetail, aggregate.Changes, error) {
	d := &entity.SalesDetail{
		SaleID:        sale.ID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		SubtotalCents: req.SubtotalCents,
		Note:          req.Note,
	}
	if err := ledger.ValidateSalesDetail(d); err != nil {
		return nil, nil, err
	}
	var changes aggregate.Changes
	if d.ProductID != nil {
		delta, err := ledger.CheckedNeg(d.Quantity)
		if err != nil {
			return nil, nil, err
		}
		log := &entity.InventoryLog{
			Type:      entity.LogTypeSale,
			ProductID: d.ProductID,
			Delta:     delta,
			Time:      sale.Time,
			Note:      fmt.Sprintf(saleLogNote, sale.ID, d.Note),
		}
		if err := s.Logs.Create(ctx, log); err != nil {
			return nil, nil, err
		}
		c, err := m.OnInventoryLogInsert(ctx, log)
		if err != nil {
			return nil, nil, err
		}
		changes = append(changes, c...)
		d.LogID = &log.ID
	}
	if err := s.Details.Create(ctx, d); err != nil {
		return nil, nil, err
	}
	c, err := m.OnSalesDetailInsert(ctx, d)
	if err != nil {
		return nil, nil, err
	}
	return d, append(changes, c...), nil
}

// lockProducts bloquea de una vez, en orden ascendente de id, los productos que
// tocará una operación de varias líneas. Dos ventas con los mismos productos en
// distinto orden se serializan en vez de interbloquearse.
func lockProducts(ctx context.Context, s repository.Store, ids []*int64) error {
	seen := make(map[int64]bool, len(ids))
	var sorted []int64
	for _, id := range ids {
		if id != nil && !seen[*id] {
			seen[*id] = true
			sorted = append(sorted, *id)
		}
	}
	if len(sorted) < 2 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return s.Products.Lock(ctx, sorted)
}

// Get venta con sus líneas.
func (uc *SaleUseCase) Get(ctx context.Context, id int64) (*dto.SaleResponse, error) {
	var (
		sale    *entity.Sale
		details []*entity.SalesDetail
	)
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		if sale, err = s.Sales.GetByID(ctx, id); err != nil || sale == nil {
			return err
		}
		details, err = s.Details.ListBySale(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	out := toSaleResponse(sale, details)
	return &out, nil
}

// List ventas sin líneas.
func (uc *SaleUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.SaleListResponse, error) {
	page.DefaultPage()
	var sales []*entity.Sale
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		sales, err = s.Sales.List(ctx, page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for _, sale := range sales {
		items = append(items, toSaleResponse(sale, nil))
	}
	return &dto.SaleListResponse{Items: items, Page: pageOf(page)}, nil
}

// Update cambia cliente o fecha. El total no se acepta.
func (uc *SaleUseCase) Update(ctx context.Context, id int64, in dto.UpdateSaleRequest) (*dto.SaleResponse, error) {
	if in.CustomerID == nil && !in.ClearCustomer && in.Time == nil {
		return nil, domain.ErrNoFieldsToSet
	}
	var sale *entity.Sale
	_, err := uc.mutate(ctx, "sale.update", func(s repository.Store, _ *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		var err error
		if sale, err = s.Sales.GetByID(ctx, id); err != nil {
			return nil, err
		}
		if sale == nil {
			return nil, domain.ErrNotFound
		}
		if in.ClearCustomer {
			sale.CustomerID = nil
		} else if in.CustomerID != nil {
			sale.CustomerID = in.CustomerID
		}
		if in.Time != nil {
			sale.Time = *in.Time
		}
		return nil, s.Sales.Update(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	out := toSaleResponse(sale, nil)
	return &out, nil
}

// AddDetail agrega una línea a una venta existente.
func (uc *SaleUseCase) AddDetail(ctx context.Context, saleID int64, in dto.SaleDetailRequest) (*dto.DetailMutationResponse, error) {
	var d *entity.SalesDetail
	changes, err := uc.mutate(ctx, "sale.detail.add", func(s repository.Store, m *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		sale, err := s.Sales.GetByID(ctx, saleID)
		if err != nil {
			return nil, err
		}
		if sale == nil {
			return nil, domain.ErrNotFound
		}
		var c aggregate.Changes
		d, c, err = addDetail(ctx, s, m, sale, in)
		return c, err
	})
	if err != nil {
		return nil, err
	}
	return &dto.DetailMutationResponse{Detail: toDetailResponse(d), Aggregates: toAggregateValues(changes)}, nil
}

// UpdateDetail cambia cantidad, subtotal, nota o venta de una línea. Un cambio de
// cantidad se propaga al registro de salida que la respalda.
func (uc *SaleUseCase) UpdateDetail(ctx context.Context, id int64, in dto.UpdateDetailRequest) (*dto.DetailMutationResponse, error) {
	if in.SaleID == nil && in.Quantity == nil && in.SubtotalCents == nil && in.Note == nil {
		return nil, domain.ErrNoFieldsToSet
	}
	var next entity.SalesDetail
	changes, err := uc.mutate(ctx, "sale.detail.update", func(s repository.Store, m *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		old, err := s.Details.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if old == nil {
			return nil, domain.ErrNotFound
		}
		next = *old
		if in.SaleID != nil {
			next.SaleID = *in.SaleID
		}
		if in.Quantity != nil {
			next.Quantity = *in.Quantity
		}
		if in.SubtotalCents != nil {
			next.SubtotalCents = *in.SubtotalCents
		}
		if in.Note != nil {
			next.Note = *in.Note
		}
		if err := ledger.ValidateSalesDetail(&next); err != nil {
			return nil, err
		}

		var all aggregate.Changes
		if next.Quantity != old.Quantity && old.LogID != nil {
			c, err := syncBackingLog(ctx, s, m, *old.LogID, next.Quantity)
			if err != nil {
				return nil, err
			}
			all = append(all, c...)
		}
		c, err := m.OnSalesDetailUpdate(ctx, old, &next)
		if err != nil {
			return nil, err
		}
		if err := s.Details.Update(ctx, &next); err != nil {
			return nil, err
		}
		return append(all, c...), nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.DetailMutationResponse{Detail: toDetailResponse(&next), Aggregates: toAggregateValues(changes)}, nil
}

// syncBackingLog reescribe el delta del registro de salida a -quantity.
func syncBackingLog(ctx context.Context, s repository.Store, m *aggregate.Maintainer, logID, quantity int64) (aggregate.Changes, error) {
	old, err := s.Logs.GetForUpdate(ctx, logID)
	if err != nil || old == nil {
		return nil, err
	}
	delta, err := ledger.CheckedNeg(quantity)
	if err != nil {
		return nil, err
	}
	next := *old
	next.Delta = delta
	c, err := m.OnInventoryLogUpdate(ctx, old, &next)
	if err != nil {
		return nil, err
	}
	return c, s.Logs.Update(ctx, &next)
}

// DeleteDetail borra la línea y resta su subtotal. Con revertStock borra también el
// registro de salida, devolviendo el stock.
func (uc *SaleUseCase) DeleteDetail(ctx context.Context, id int64, revertStock bool) (*dto.MutationResponse, error) {
	changes, err := uc.mutate(ctx, "sale.detail.delete", func(s repository.Store, m *aggregate.Maintainer, ref *aggregate.Referential) (aggregate.Changes, error) {
		d, err := s.Details.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, domain.ErrNotFound
		}
		var all aggregate.Changes
		if revertStock && d.LogID != nil {
			c, err := deleteLog(ctx, s, m, ref, *d.LogID)
			if err != nil {
				return nil, err
			}
			all = append(all, c...)
		}
		c, err := m.OnSalesDetailDelete(ctx, d)
		if err != nil {
			return nil, err
		}
		all = append(all, c...)
		c, err = ref.DeleteParent(ctx, ledger.TableSalesDetails, id)
		if err != nil {
			return nil, err
		}
		return append(all, c...), nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Message: "línea eliminada", Aggregates: toAggregateValues(changes)}, nil
}

// Delete borra la venta y sus líneas en cascada. Con revertStock borra antes los
// registros de salida de cada línea.
func (uc *SaleUseCase) Delete(ctx context.Context, id int64, revertStock bool) (*dto.MutationResponse, error) {
	changes, err := uc.mutate(ctx, "sale.delete", func(s repository.Store, m *aggregate.Maintainer, ref *aggregate.Referential) (aggregate.Changes, error) {
		sale, err := s.Sales.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sale == nil {
			return nil, domain.ErrNotFound
		}
		var all aggregate.Changes
		if revertStock {
			details, err := s.Details.ListBySale(ctx, id)
			if err != nil {
				return nil, err
			}
			ids := make([]*int64, 0, len(details))
			for _, d := range details {
				ids = append(ids, d.ProductID)
			}
			if err := lockProducts(ctx, s, ids); err != nil {
				return nil, err
			}
			for _, d := range details {
				if d.LogID == nil {
					continue
				}
				c, err := deleteLog(ctx, s, m, ref, *d.LogID)
				if err != nil {
					return nil, err
				}
				all = append(all, c...)
			}
		}
		c, err := ref.DeleteParent(ctx, ledger.TableSales, id)
		if err != nil {
			return nil, err
		}
		return append(all, c...), nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Message: "venta eliminada", Aggregates: toAggregateValues(changes)}, nil
}

func toSaleResponse(s *entity.Sale, details []*entity.SalesDetail) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:         s.ID,
		Time:       s.Time,
		CustomerID: s.CustomerID,
		UserID:     s.UserID,
		TotalCents: s.TotalCents,
		Total:      money.Format(s.TotalCents),
	}
	for _, d := range details {
		out.Details = append(out.Details, toDetailResponse(d))
	}
	return out
}

func toDetailResponse(d *entity.SalesDetail) dto.SalesDetailResponse {
	return dto.SalesDetailResponse{
		ID:            d.ID,
		SaleID:        d.SaleID,
		LogID:         d.LogID,
		ProductID:     d.ProductID,
		Quantity:      d.Quantity,
		SubtotalCents: d.SubtotalCents,
		Note:          d.Note,
	}
}
