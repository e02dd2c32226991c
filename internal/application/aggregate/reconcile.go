package aggregate

import (
	"context"
	"sort"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// Reconciler recalcula los agregados desde cero. Solo para reparar desviaciones
// detectadas; la operación normal nunca recorre los dependientes.
type Reconciler struct {
	tx TxRunner
}

// NewReconciler construye el conciliador.
func NewReconciler(tx TxRunner) *Reconciler {
	return &Reconciler{tx: tx}
}

// Check devuelve las desviaciones sin tocar nada.
func (r *Reconciler) Check(ctx context.Context) ([]domain.AggregateDriftDetected, error) {
	var drifts []domain.AggregateDriftDetected
	err := r.tx.Run(ctx, func(s repository.Store) error {
		var err error
		drifts, err = detect(ctx, s)
		return err
	})
	return drifts, err
}

// Repair reescribe los agregados desviados en una sola transacción y devuelve lo corregido.
func (r *Reconciler) Repair(ctx context.Context) ([]domain.AggregateDriftDetected, error) {
	var drifts []domain.AggregateDriftDetected
	err := r.tx.Run(ctx, func(s repository.Store) error {
		var err error
		drifts, err = detect(ctx, s)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			switch ledger.Aggregate(d.Aggregate) {
			case ledger.AggregateProductQuantity:
				err = s.Products.SetQuantity(ctx, d.ID, d.Expected)
			case ledger.AggregateSaleTotal:
				err = s.Sales.SetTotal(ctx, d.ID, d.Expected)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drifts, nil
}

// detect lee cada agregado guardado (bloqueando los padres) antes de sumar sus
// dependientes; con los padres bloqueados ninguna escritura concurrente puede
// confirmar un hijo sin su ajuste, así que el valor absoluto que Repair escribe
// coincide con la suma al momento de la confirmación.
func detect(ctx context.Context, s repository.Store) ([]domain.AggregateDriftDetected, error) {
	quantities, err := s.Products.Quantities(ctx)
	if err != nil {
		return nil, err
	}
	sums, err := s.Logs.SumByProduct(ctx)
	if err != nil {
		return nil, err
	}
	drifts := compare(ledger.AggregateProductQuantity, quantities, sums)

	totals, err := s.Sales.Totals(ctx)
	if err != nil {
		return nil, err
	}
	subtotals, err := s.Details.SumBySale(ctx)
	if err != nil {
		return nil, err
	}
	return append(drifts, compare(ledger.AggregateSaleTotal, totals, subtotals)...), nil
}

func compare(agg ledger.Aggregate, stored, expected map[int64]int64) []domain.AggregateDriftDetected {
	ids := make([]int64, 0, len(stored))
	for id := range stored {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []domain.AggregateDriftDetected
	for _, id := range ids {
		if stored[id] != expected[id] {
			out = append(out, domain.AggregateDriftDetected{
				Aggregate: string(agg), ID: id, Stored: stored[id], Expected: expected[id],
			})
		}
	}
	return out
}
