package memstore

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

type productRepo struct{ v *view }

func skuTaken(st *state, sku string, except int64) bool {
	for id, p := range st.products {
		if id != except && p.SKU == sku {
			return true
		}
	}
	return false
}

func copyProduct(p entity.Product) *entity.Product {
	p.CategoryID = cloneID(p.CategoryID)
	return &p
}

func checkProductRefs(st *state, p *entity.Product) error {
	if p.CategoryID != nil {
		if _, ok := st.categories[*p.CategoryID]; !ok {
			return domain.NewReferentialError("products.category_id", *p.CategoryID, "el padre no existe")
		}
	}
	return nil
}

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.v.do(func(st *state) error {
		if skuTaken(st, p.SKU, 0) {
			return domain.NewConstraintViolation("sku", "ya existe")
		}
		if err := checkProductRefs(st, p); err != nil {
			return err
		}
		p.ID = st.nextID(ledger.TableProducts)
		p.Quantity = 0
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now()
		}
		p.UpdatedAt = p.CreatedAt
		st.products[p.ID] = *copyProduct(*p)
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = copyProduct(p)
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			if p.SKU == sku {
				out = copyProduct(p)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.v.do(func(st *state) error {
		var matched []entity.Product
		for _, id := range sortedKeys(st.products) {
			p := st.products[id]
			if f.CategoryID != nil && !sameID(p.CategoryID, *f.CategoryID) {
				continue
			}
			if f.ActiveOnly && !p.Active {
				continue
			}
			matched = append(matched, p)
		}
		for _, p := range page(matched, f.Limit, f.Offset) {
			out = append(out, copyProduct(p))
		}
		return nil
	})
	return out, err
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if skuTaken(st, p.SKU, p.ID) {
			return domain.NewConstraintViolation("sku", "ya existe")
		}
		if err := checkProductRefs(st, p); err != nil {
			return err
		}
		cur.SKU = p.SKU
		cur.Active = p.Active
		cur.Name = p.Name
		cur.PriceCents = p.PriceCents
		cur.Description = p.Description
		cur.CategoryID = cloneID(p.CategoryID)
		cur.UpdatedAt = time.Now()
		st.products[p.ID] = cur
		return nil
	})
}

func (r *productRepo) AdjustQuantity(_ context.Context, id, delta int64) (int64, error) {
	var out int64
	err := r.v.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		q, err := ledger.CheckedAdd(p.Quantity, delta)
		if err != nil {
			return err
		}
		p.Quantity = q
		st.products[id] = p
		out = q
		return nil
	})
	return out, err
}

func (r *productRepo) SetQuantity(_ context.Context, id, quantity int64) error {
	return r.v.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		p.Quantity = quantity
		st.products[id] = p
		return nil
	})
}

// Lock no hace nada: la transacción en memoria ya es de escritor único.
func (r *productRepo) Lock(context.Context, []int64) error { return nil }

func (r *productRepo) Quantities(_ context.Context) (map[int64]int64, error) {
	out := map[int64]int64{}
	err := r.v.do(func(st *state) error {
		for id, p := range st.products {
			out[id] = p.Quantity
		}
		return nil
	})
	return out, err
}
