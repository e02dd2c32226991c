package memstore

import (
	"context"
	"fmt"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
)

type referenceRepo struct{ v *view }

// column acceso a una clave foránea de la matriz sobre el estado en memoria.
type column struct {
	ids func(st *state) []int64
	get func(st *state, id int64) *int64
	set func(st *state, id int64, v *int64)
}

func columnOf(rel ledger.Relationship) (column, error) {
	switch rel.Name() {
	case "products.category_id":
		return column{
			ids: func(st *state) []int64 { return sortedKeys(st.products) },
			get: func(st *state, id int64) *int64 { return st.products[id].CategoryID },
			set: func(st *state, id int64, v *int64) { p := st.products[id]; p.CategoryID = v; st.products[id] = p },
		}, nil
	case "inventory_logs.product_id":
		return column{
			ids: func(st *state) []int64 { return sortedKeys(st.logs) },
			get: func(st *state, id int64) *int64 { return st.logs[id].ProductID },
			set: func(st *state, id int64, v *int64) { l := st.logs[id]; l.ProductID = v; st.logs[id] = l },
		}, nil
	case "sales.customer_id":
		return column{
			ids: func(st *state) []int64 { return sortedKeys(st.sales) },
			get: func(st *state, id int64) *int64 { return st.sales[id].CustomerID },
			set: func(st *state, id int64, v *int64) { s := st.sales[id]; s.CustomerID = v; st.sales[id] = s },
		}, nil
	case "sales.user_id":
		return column{
			ids: func(st *state) []int64 { return sortedKeys(st.sales) },
			get: func(st *state, id int64) *int64 { return st.sales[id].UserID },
			set: func(st *state, id int64, v *int64) { s := st.sales[id]; s.UserID = v; st.sales[id] = s },
		}, nil
	case "sales_details.sale_id":
		return column{
			ids: func(st *state) []int64 { return sortedKeys(st.details) },
			get: func(st *state, id int64) *int64 { v := st.details[id].SaleID; return &v },
			set: func(st *state, id int64, v *int64) {
				if v == nil {
					return
				}
				d := st.details[id]
				d.SaleID = *v
				st.details[id] = d
			},
		}, nil
	case "sales_details.log_id":
		return column{
			ids: func(st *state) []int64 { return sortedKeys(st.details) },
			get: func(st *state, id int64) *int64 { return st.details[id].LogID },
			set: func(st *state, id int64, v *int64) { d := st.details[id]; d.LogID = v; st.details[id] = d },
		}, nil
	case "sales_details.product_id":
		return column{
			ids: func(st *state) []int64 { return sortedKeys(st.details) },
			get: func(st *state, id int64) *int64 { return st.details[id].ProductID },
			set: func(st *state, id int64, v *int64) { d := st.details[id]; d.ProductID = v; st.details[id] = d },
		}, nil
	}
	return column{}, fmt.Errorf("memstore: relación desconocida %s", rel.Name())
}

func referencing(st *state, c column, parentID int64) []int64 {
	var out []int64
	for _, id := range c.ids(st) {
		if sameID(c.get(st, id), parentID) {
			out = append(out, id)
		}
	}
	return out
}

func hasRow(st *state, t ledger.Table, id int64) (bool, error) {
	var ok bool
	switch t {
	case ledger.TableUsers:
		_, ok = st.users[id]
	case ledger.TableCustomers:
		_, ok = st.customers[id]
	case ledger.TableCategories:
		_, ok = st.categories[id]
	case ledger.TableProducts:
		_, ok = st.products[id]
	case ledger.TableInventoryLogs:
		_, ok = st.logs[id]
	case ledger.TableSales:
		_, ok = st.sales[id]
	case ledger.TableSalesDetails:
		_, ok = st.details[id]
	default:
		return false, fmt.Errorf("memstore: tabla desconocida %s", t)
	}
	return ok, nil
}

func deleteRow(st *state, t ledger.Table, id int64) {
	switch t {
	case ledger.TableUsers:
		delete(st.users, id)
	case ledger.TableCustomers:
		delete(st.customers, id)
	case ledger.TableCategories:
		delete(st.categories, id)
	case ledger.TableProducts:
		delete(st.products, id)
	case ledger.TableInventoryLogs:
		delete(st.logs, id)
	case ledger.TableSales:
		delete(st.sales, id)
	case ledger.TableSalesDetails:
		delete(st.details, id)
	}
}

func moveKey[V any](m map[int64]V, oldID, newID int64, setID func(*V)) {
	v := m[oldID]
	delete(m, oldID)
	setID(&v)
	m[newID] = v
}

func (r *referenceRepo) Exists(_ context.Context, t ledger.Table, id int64) (bool, error) {
	var ok bool
	err := r.v.do(func(st *state) error {
		var err error
		ok, err = hasRow(st, t, id)
		return err
	})
	return ok, err
}

func (r *referenceRepo) DeleteRow(_ context.Context, t ledger.Table, id int64) (bool, error) {
	var ok bool
	err := r.v.do(func(st *state) error {
		var err error
		if ok, err = hasRow(st, t, id); err != nil || !ok {
			return err
		}
		deleteRow(st, t, id)
		return nil
	})
	return ok, err
}

func (r *referenceRepo) ChangeKey(_ context.Context, t ledger.Table, oldID, newID int64) error {
	return r.v.do(func(st *state) error {
		switch t {
		case ledger.TableUsers:
			moveKey(st.users, oldID, newID, func(u *entity.User) { u.ID = newID })
		case ledger.TableCustomers:
			moveKey(st.customers, oldID, newID, func(c *entity.Customer) { c.ID = newID })
		case ledger.TableCategories:
			moveKey(st.categories, oldID, newID, func(c *entity.Category) { c.ID = newID })
		case ledger.TableProducts:
			moveKey(st.products, oldID, newID, func(p *entity.Product) { p.ID = newID })
		case ledger.TableInventoryLogs:
			moveKey(st.logs, oldID, newID, func(l *entity.InventoryLog) { l.ID = newID })
		case ledger.TableSales:
			moveKey(st.sales, oldID, newID, func(s *entity.Sale) { s.ID = newID })
		case ledger.TableSalesDetails:
			moveKey(st.details, oldID, newID, func(d *entity.SalesDetail) { d.ID = newID })
		default:
			return fmt.Errorf("memstore: tabla desconocida %s", t)
		}
		st.bumpSeq(t, newID)
		return nil
	})
}

func (r *referenceRepo) CountReferencing(_ context.Context, rel ledger.Relationship, parentID int64) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		c, err := columnOf(rel)
		if err != nil {
			return err
		}
		n = int64(len(referencing(st, c, parentID)))
		return nil
	})
	return n, err
}

func (r *referenceRepo) ListReferencing(_ context.Context, rel ledger.Relationship, parentID int64) ([]int64, error) {
	var ids []int64
	err := r.v.do(func(st *state) error {
		c, err := columnOf(rel)
		if err != nil {
			return err
		}
		ids = referencing(st, c, parentID)
		return nil
	})
	return ids, err
}

func (r *referenceRepo) Repoint(_ context.Context, rel ledger.Relationship, oldParentID, newParentID int64) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		c, err := columnOf(rel)
		if err != nil {
			return err
		}
		for _, id := range referencing(st, c, oldParentID) {
			v := newParentID
			c.set(st, id, &v)
			n++
		}
		return nil
	})
	return n, err
}

func (r *referenceRepo) ClearReferences(_ context.Context, rel ledger.Relationship, parentID int64) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		c, err := columnOf(rel)
		if err != nil {
			return err
		}
		if rel.Name() == "sales_details.sale_id" {
			return fmt.Errorf("memstore: %s no admite nulos", rel.Name())
		}
		for _, id := range referencing(st, c, parentID) {
			c.set(st, id, nil)
			n++
		}
		return nil
	})
	return n, err
}

func (r *referenceRepo) DeleteReferencing(_ context.Context, rel ledger.Relationship, parentID int64) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		c, err := columnOf(rel)
		if err != nil {
			return err
		}
		for _, id := range referencing(st, c, parentID) {
			deleteRow(st, rel.Child, id)
			n++
		}
		return nil
	})
	return n, err
}
