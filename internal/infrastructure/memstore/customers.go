package memstore

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
)

type customerRepo struct{ v *view }

func (r *customerRepo) Create(_ context.Context, c *entity.Customer) error {
	return r.v.do(func(st *state) error {
		c.ID = st.nextID(ledger.TableCustomers)
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		c.UpdatedAt = c.CreatedAt
		st.customers[c.ID] = *c
		return nil
	})
}

func (r *customerRepo) GetByID(_ context.Context, id int64) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.v.do(func(st *state) error {
		if c, ok := st.customers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *customerRepo) List(_ context.Context, limit, offset int) ([]*entity.Customer, error) {
	var out []*entity.Customer
	err := r.v.do(func(st *state) error {
		for _, id := range page(sortedKeys(st.customers), limit, offset) {
			c := st.customers[id]
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *customerRepo) Update(_ context.Context, c *entity.Customer) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.customers[c.ID]
		if !ok {
			return domain.ErrNotFound
		}
		created := cur.CreatedAt
		cur = *c
		cur.CreatedAt = created
		cur.UpdatedAt = time.Now()
		st.customers[c.ID] = cur
		return nil
	})
}
