// Package aggregate mantiene los agregados derivados (products.quantity, sales.total_cents)
// y aplica la matriz de acciones referenciales dentro de la transacción del llamador.
package aggregate

import (
	"context"
	"errors"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// Value valor de un agregado después de una mutación.
type Value struct {
	Aggregate ledger.Aggregate `json:"aggregate"`
	ID        int64            `json:"id"`
	Value     int64            `json:"value"`
}

// Changes valores de agregados tocados, en orden de aplicación.
type Changes []Value

// Lookup último valor conocido del agregado para id.
func (c Changes) Lookup(agg ledger.Aggregate, id int64) (int64, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Aggregate == agg && c[i].ID == id {
			return c[i].Value, true
		}
	}
	return 0, false
}

// Without descarta los valores de un padre (p. ej. uno que se está borrando).
func (c Changes) Without(agg ledger.Aggregate, id int64) Changes {
	out := c[:0:0]
	for _, v := range c {
		if v.Aggregate == agg && v.ID == id {
			continue
		}
		out = append(out, v)
	}
	return out
}

// target describe un agregado: cómo ajustarlo y cómo leerlo.
type target struct {
	aggregate ledger.Aggregate
	relation  string
	adjust    func(ctx context.Context, id, delta int64) (int64, error)
	current   func(ctx context.Context, id int64) (int64, bool, error)
}

// Maintainer aplica deltas enteros a los agregados de los padres. Nunca recalcula
// sumando dependientes: eso queda para Reconciler.
type Maintainer struct {
	quantity target
	total    target
}

// NewMaintainer construye el mantenedor sobre repositorios atados a la transacción en curso.
func NewMaintainer(s repository.Store) *Maintainer {
	return &Maintainer{
		quantity: target{
			aggregate: ledger.AggregateProductQuantity,
			relation:  "inventory_logs.product_id",
			adjust:    s.Products.AdjustQuantity,
			current: func(ctx context.Context, id int64) (int64, bool, error) {
				p, err := s.Products.GetByID(ctx, id)
				if err != nil || p == nil {
					return 0, false, err
				}
				return p.Quantity, true, nil
			},
		},
		total: target{
			aggregate: ledger.AggregateSaleTotal,
			relation:  "sales_details.sale_id",
			adjust:    s.Sales.AdjustTotal,
			current: func(ctx context.Context, id int64) (int64, bool, error) {
				sale, err := s.Sales.GetByID(ctx, id)
				if err != nil || sale == nil {
					return 0, false, err
				}
				return sale.TotalCents, true, nil
			},
		},
	}
}

// OnInventoryLogInsert suma el delta del registro a la cantidad de su producto.
func (m *Maintainer) OnInventoryLogInsert(ctx context.Context, log *entity.InventoryLog) (Changes, error) {
	c := ledger.LogContribution(log)
	return m.apply(ctx, m.quantity, ledger.PlanInsert(c), c.ParentID)
}

// OnInventoryLogUpdate recibe las imágenes completa previa y nueva del registro.
func (m *Maintainer) OnInventoryLogUpdate(ctx context.Context, old, new *entity.InventoryLog) (Changes, error) {
	newC := ledger.LogContribution(new)
	adjs, err := ledger.PlanUpdate(ledger.LogContribution(old), newC)
	if err != nil {
		return nil, err
	}
	return m.apply(ctx, m.quantity, adjs, newC.ParentID)
}

// OnInventoryLogDelete resta el delta; si el producto ya no existe no hace nada.
func (m *Maintainer) OnInventoryLogDelete(ctx context.Context, log *entity.InventoryLog) (Changes, error) {
	adjs, err := ledger.PlanDelete(ledger.LogContribution(log))
	if err != nil {
		return nil, err
	}
	return m.apply(ctx, m.quantity, adjs, nil)
}

// OnSalesDetailInsert suma el subtotal al total de la venta.
func (m *Maintainer) OnSalesDetailInsert(ctx context.Context, detail *entity.SalesDetail) (Changes, error) {
	c := ledger.DetailContribution(detail)
	return m.apply(ctx, m.total, ledger.PlanInsert(c), c.ParentID)
}

// OnSalesDetailUpdate cubre el cambio de subtotal y la reasignación a otra venta.
func (m *Maintainer) OnSalesDetailUpdate(ctx context.Context, old, new *entity.SalesDetail) (Changes, error) {
	newC := ledger.DetailContribution(new)
	adjs, err := ledger.PlanUpdate(ledger.DetailContribution(old), newC)
	if err != nil {
		return nil, err
	}
	return m.apply(ctx, m.total, adjs, newC.ParentID)
}

// OnSalesDetailDelete resta el subtotal; si la venta ya se borró (cascada) no hace nada.
func (m *Maintainer) OnSalesDetailDelete(ctx context.Context, detail *entity.SalesDetail) (Changes, error) {
	adjs, err := ledger.PlanDelete(ledger.DetailContribution(detail))
	if err != nil {
		return nil, err
	}
	return m.apply(ctx, m.total, adjs, nil)
}

// apply ejecuta los ajustes. required es el padre que la imagen nueva referencia:
// si falta es ReferentialError. Un padre ausente que solo pierde aporte se ignora.
func (m *Maintainer) apply(ctx context.Context, t target, adjs []ledger.Adjustment, required *int64) (Changes, error) {
	var out Changes
	touched := false
	for _, a := range adjs {
		v, err := t.adjust(ctx, a.ParentID, a.Delta)
		if errors.Is(err, domain.ErrNotFound) {
			if required != nil && *required == a.ParentID {
				return nil, domain.NewReferentialError(t.relation, a.ParentID, "el padre no existe")
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		if required != nil && *required == a.ParentID {
			touched = true
		}
		out = append(out, Value{Aggregate: t.aggregate, ID: a.ParentID, Value: v})
	}
	if required != nil && !touched {
		v, ok, err := t.current(ctx, *required)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NewReferentialError(t.relation, *required, "el padre no existe")
		}
		out = append(out, Value{Aggregate: t.aggregate, ID: *required, Value: v})
	}
	return out, nil
}
