package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

type logRepo struct{ v *view }

func copyLog(l entity.InventoryLog) *entity.InventoryLog {
	l.ProductID = cloneID(l.ProductID)
	return &l
}

func checkLogRefs(st *state, l *entity.InventoryLog) error {
	if l.ProductID != nil {
		if _, ok := st.products[*l.ProductID]; !ok {
			return domain.NewReferentialError("inventory_logs.product_id", *l.ProductID, "el padre no existe")
		}
	}
	return nil
}

func (r *logRepo) Create(_ context.Context, l *entity.InventoryLog) error {
	return r.v.do(func(st *state) error {
		if err := checkLogRefs(st, l); err != nil {
			return err
		}
		l.ID = st.nextID(ledger.TableInventoryLogs)
		if l.Time.IsZero() {
			l.Time = time.Now()
		}
		st.logs[l.ID] = *copyLog(*l)
		return nil
	})
}

func (r *logRepo) GetByID(_ context.Context, id int64) (*entity.InventoryLog, error) {
	var out *entity.InventoryLog
	err := r.v.do(func(st *state) error {
		if l, ok := st.logs[id]; ok {
			out = copyLog(l)
		}
		return nil
	})
	return out, err
}

// GetForUpdate en memoria la transacción ya es exclusiva.
func (r *logRepo) GetForUpdate(ctx context.Context, id int64) (*entity.InventoryLog, error) {
	return r.GetByID(ctx, id)
}

func (r *logRepo) Update(_ context.Context, l *entity.InventoryLog) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.logs[l.ID]; !ok {
			return domain.ErrNotFound
		}
		if err := checkLogRefs(st, l); err != nil {
			return err
		}
		st.logs[l.ID] = *copyLog(*l)
		return nil
	})
}

func (r *logRepo) List(_ context.Context, f repository.LogFilter) ([]*entity.InventoryLog, error) {
	var out []*entity.InventoryLog
	err := r.v.do(func(st *state) error {
		var matched []entity.InventoryLog
		for _, l := range st.logs {
			if f.ProductID != nil && !sameID(l.ProductID, *f.ProductID) {
				continue
			}
			if f.From != nil && l.Time.Before(*f.From) {
				continue
			}
			if f.To != nil && !l.Time.Before(*f.To) {
				continue
			}
			matched = append(matched, l)
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].Time.Equal(matched[j].Time) {
				return matched[i].Time.After(matched[j].Time)
			}
			return matched[i].ID > matched[j].ID
		})
		for _, l := range page(matched, f.Limit, f.Offset) {
			out = append(out, copyLog(l))
		}
		return nil
	})
	return out, err
}

func (r *logRepo) SumByProduct(_ context.Context) (map[int64]int64, error) {
	out := map[int64]int64{}
	err := r.v.do(func(st *state) error {
		for _, l := range st.logs {
			if l.ProductID != nil {
				out[*l.ProductID] += l.Delta
			}
		}
		return nil
	})
	return out, err
}
