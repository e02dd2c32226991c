package memstore

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
)

type categoryRepo struct{ v *view }

func categoryNameTaken(st *state, name string, except int64) bool {
	for id, c := range st.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (r *categoryRepo) Create(_ context.Context, c *entity.Category) error {
	return r.v.do(func(st *state) error {
		if categoryNameTaken(st, c.Name, 0) {
			return domain.NewConstraintViolation("name", "ya existe")
		}
		c.ID = st.nextID(ledger.TableCategories)
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		c.UpdatedAt = c.CreatedAt
		st.categories[c.ID] = *c
		return nil
	})
}

func (r *categoryRepo) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	var out *entity.Category
	err := r.v.do(func(st *state) error {
		if c, ok := st.categories[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *categoryRepo) GetByName(_ context.Context, name string) (*entity.Category, error) {
	var out *entity.Category
	err := r.v.do(func(st *state) error {
		for _, c := range st.categories {
			if c.Name == name {
				c := c
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *categoryRepo) List(_ context.Context, limit, offset int) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.v.do(func(st *state) error {
		for _, id := range page(sortedKeys(st.categories), limit, offset) {
			c := st.categories[id]
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *categoryRepo) Update(_ context.Context, c *entity.Category) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.categories[c.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if categoryNameTaken(st, c.Name, c.ID) {
			return domain.NewConstraintViolation("name", "ya existe")
		}
		cur.Name = c.Name
		cur.Description = c.Description
		cur.UpdatedAt = time.Now()
		st.categories[c.ID] = cur
		return nil
	})
}
