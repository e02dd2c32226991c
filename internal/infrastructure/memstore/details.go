package memstore

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
)

type detailRepo struct{ v *view }

func copyDetail(d entity.SalesDetail) *entity.SalesDetail {
	d.LogID = cloneID(d.LogID)
	d.ProductID = cloneID(d.ProductID)
	return &d
}

func checkDetailRefs(st *state, d *entity.SalesDetail) error {
	if _, ok := st.sales[d.SaleID]; !ok {
		return domain.NewReferentialError("sales_details.sale_id", d.SaleID, "el padre no existe")
	}
	if d.LogID != nil {
		if _, ok := st.logs[*d.LogID]; !ok {
			return domain.NewReferentialError("sales_details.log_id", *d.LogID, "el padre no existe")
		}
		for id, other := range st.details {
			if id != d.ID && sameID(other.LogID, *d.LogID) {
				return domain.NewConstraintViolation("log_id", "el registro ya respalda otro detalle")
			}
		}
	}
	if d.ProductID != nil {
		if _, ok := st.products[*d.ProductID]; !ok {
			return domain.NewReferentialError("sales_details.product_id", *d.ProductID, "el padre no existe")
		}
	}
	return nil
}

func (r *detailRepo) Create(_ context.Context, d *entity.SalesDetail) error {
	return r.v.do(func(st *state) error {
		d.ID = 0
		if err := checkDetailRefs(st, d); err != nil {
			return err
		}
		d.ID = st.nextID(ledger.TableSalesDetails)
		st.details[d.ID] = *copyDetail(*d)
		return nil
	})
}

func (r *detailRepo) GetByID(_ context.Context, id int64) (*entity.SalesDetail, error) {
	var out *entity.SalesDetail
	err := r.v.do(func(st *state) error {
		if d, ok := st.details[id]; ok {
			out = copyDetail(d)
		}
		return nil
	})
	return out, err
}

func (r *detailRepo) GetForUpdate(ctx context.Context, id int64) (*entity.SalesDetail, error) {
	return r.GetByID(ctx, id)
}

func (r *detailRepo) GetByLogID(_ context.Context, logID int64) (*entity.SalesDetail, error) {
	var out *entity.SalesDetail
	err := r.v.do(func(st *state) error {
		for _, d := range st.details {
			if sameID(d.LogID, logID) {
				out = copyDetail(d)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *detailRepo) Update(_ context.Context, d *entity.SalesDetail) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.details[d.ID]; !ok {
			return domain.ErrNotFound
		}
		if err := checkDetailRefs(st, d); err != nil {
			return err
		}
		st.details[d.ID] = *copyDetail(*d)
		return nil
	})
}

func (r *detailRepo) ListBySale(_ context.Context, saleID int64) ([]*entity.SalesDetail, error) {
	var out []*entity.SalesDetail
	err := r.v.do(func(st *state) error {
		for _, id := range sortedKeys(st.details) {
			if d := st.details[id]; d.SaleID == saleID {
				out = append(out, copyDetail(d))
			}
		}
		return nil
	})
	return out, err
}

func (r *detailRepo) SumBySale(_ context.Context) (map[int64]int64, error) {
	out := map[int64]int64{}
	err := r.v.do(func(st *state) error {
		for _, d := range st.details {
			out[d.SaleID] += d.SubtotalCents
		}
		return nil
	})
	return out, err
}
