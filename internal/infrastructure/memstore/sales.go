package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
)

type saleRepo struct{ v *view }

func copySale(s entity.Sale) *entity.Sale {
	s.CustomerID = cloneID(s.CustomerID)
	s.UserID = cloneID(s.UserID)
	return &s
}

func checkSaleRefs(st *state, s *entity.Sale) error {
	if s.CustomerID != nil {
		if _, ok := st.customers[*s.CustomerID]; !ok {
			return domain.NewReferentialError("sales.customer_id", *s.CustomerID, "el padre no existe")
		}
	}
	if s.UserID != nil {
		if _, ok := st.users[*s.UserID]; !ok {
			return domain.NewReferentialError("sales.user_id", *s.UserID, "el padre no existe")
		}
	}
	return nil
}

func (r *saleRepo) Create(_ context.Context, s *entity.Sale) error {
	return r.v.do(func(st *state) error {
		if err := checkSaleRefs(st, s); err != nil {
			return err
		}
		s.ID = st.nextID(ledger.TableSales)
		s.TotalCents = 0
		if s.Time.IsZero() {
			s.Time = time.Now()
		}
		st.sales[s.ID] = *copySale(*s)
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id int64) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.v.do(func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = copySale(s)
		}
		return nil
	})
	return out, err
}

func (r *saleRepo) List(_ context.Context, limit, offset int) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.v.do(func(st *state) error {
		all := make([]entity.Sale, 0, len(st.sales))
		for _, s := range st.sales {
			all = append(all, s)
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].Time.Equal(all[j].Time) {
				return all[i].Time.After(all[j].Time)
			}
			return all[i].ID > all[j].ID
		})
		for _, s := range page(all, limit, offset) {
			out = append(out, copySale(s))
		}
		return nil
	})
	return out, err
}

// Update no toca TotalCents.
func (r *saleRepo) Update(_ context.Context, s *entity.Sale) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.sales[s.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if err := checkSaleRefs(st, s); err != nil {
			return err
		}
		cur.Time = s.Time
		cur.CustomerID = cloneID(s.CustomerID)
		cur.UserID = cloneID(s.UserID)
		st.sales[s.ID] = cur
		return nil
	})
}

func (r *saleRepo) AdjustTotal(_ context.Context, id, delta int64) (int64, error) {
	var out int64
	err := r.v.do(func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return domain.ErrNotFound
		}
		t, err := ledger.CheckedAdd(s.TotalCents, delta)
		if err != nil {
			return err
		}
		s.TotalCents = t
		st.sales[id] = s
		out = t
		return nil
	})
	return out, err
}

func (r *saleRepo) SetTotal(_ context.Context, id, total int64) error {
	return r.v.do(func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return domain.ErrNotFound
		}
		s.TotalCents = total
		st.sales[id] = s
		return nil
	})
}

func (r *saleRepo) Totals(_ context.Context) (map[int64]int64, error) {
	out := map[int64]int64{}
	err := r.v.do(func(st *state) error {
		for id, s := range st.sales {
			out[id] = s.TotalCents
		}
		return nil
	})
	return out, err
}
