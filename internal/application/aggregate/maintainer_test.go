package aggregate_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memstore"
)

func ptr(v int64) *int64 { return &v }

// ── Helpers ──────────────────────────────────────────────────────────────────

func newProduct(t *testing.T, db *memstore.DB, sku string) int64 {
	t.Helper()
	p := &entity.Product{SKU: sku, Name: sku, PriceCents: 100, Active: true}
	require.NoError(t, db.Store().Products.Create(context.Background(), p))
	return p.ID
}

func newSale(t *testing.T, db *memstore.DB) int64 {
	t.Helper()
	s := &entity.Sale{}
	require.NoError(t, db.Store().Sales.Create(context.Background(), s))
	return s.ID
}

func insertLog(t *testing.T, db *memstore.DB, productID *int64, delta int64) (*entity.InventoryLog, aggregate.Changes) {
	t.Helper()
	ctx := context.Background()
	log := &entity.InventoryLog{Type: entity.LogTypeRestock, ProductID: productID, Delta: delta}
	var changes aggregate.Changes
	err := db.Run(ctx, func(s repository.Store) error {
		if err := s.Logs.Create(ctx, log); err != nil {
			return err
		}
		var err error
		changes, err = aggregate.NewMaintainer(s).OnInventoryLogInsert(ctx, log)
		return err
	})
	require.NoError(t, err)
	return log, changes
}

func deleteLog(t *testing.T, db *memstore.DB, id int64) {
	t.Helper()
	ctx := context.Background()
	err := db.Run(ctx, func(s repository.Store) error {
		old, err := s.Logs.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		m := aggregate.NewMaintainer(s)
		if _, err := m.OnInventoryLogDelete(ctx, old); err != nil {
			return err
		}
		_, err = aggregate.NewReferential(s, m).DeleteParent(ctx, ledger.TableInventoryLogs, id)
		return err
	})
	require.NoError(t, err)
}

func insertDetail(t *testing.T, db *memstore.DB, saleID, subtotal int64, productID *int64) *entity.SalesDetail {
	t.Helper()
	ctx := context.Background()
	d := &entity.SalesDetail{SaleID: saleID, ProductID: productID, Quantity: 1, SubtotalCents: subtotal}
	err := db.Run(ctx, func(s repository.Store) error {
		if err := s.Details.Create(ctx, d); err != nil {
			return err
		}
		_, err := aggregate.NewMaintainer(s).OnSalesDetailInsert(ctx, d)
		return err
	})
	require.NoError(t, err)
	return d
}

func quantity(t *testing.T, db *memstore.DB, id int64) int64 {
	t.Helper()
	p, err := db.Store().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func total(t *testing.T, db *memstore.DB, id int64) int64 {
	t.Helper()
	s, err := db.Store().Sales.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s.TotalCents
}

func assertNoDrift(t *testing.T, db *memstore.DB) {
	t.Helper()
	drifts, err := aggregate.NewReconciler(db).Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

// ── Registros de inventario ──────────────────────────────────────────────────

func TestInventoryLog_EscenarioReposicionVentaBorrado(t *testing.T) {
	db := memstore.New()
	p := newProduct(t, db, "P")
	assert.Equal(t, int64(0), quantity(t, db, p))

	restock, changes := insertLog(t, db, ptr(p), 50)
	assert.Equal(t, int64(50), quantity(t, db, p))
	v, ok := changes.Lookup(ledger.AggregateProductQuantity, p)
	require.True(t, ok)
	assert.Equal(t, int64(50), v)

	insertLog(t, db, ptr(p), -3)
	assert.Equal(t, int64(47), quantity(t, db, p))

	deleteLog(t, db, restock.ID)
	assert.Equal(t, int64(-3), quantity(t, db, p))
	assertNoDrift(t, db)
}

func TestInventoryLog_ActualizacionIdenticaNoCambiaCantidad(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	p := newProduct(t, db, "P")
	log, _ := insertLog(t, db, ptr(p), 7)

	err := db.Run(ctx, func(s repository.Store) error {
		old, err := s.Logs.GetForUpdate(ctx, log.ID)
		if err != nil {
			return err
		}
		same := *old
		changes, err := aggregate.NewMaintainer(s).OnInventoryLogUpdate(ctx, old, &same)
		if err != nil {
			return err
		}
		v, _ := changes.Lookup(ledger.AggregateProductQuantity, p)
		assert.Equal(t, int64(7), v)
		return s.Logs.Update(ctx, &same)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), quantity(t, db, p))
}

func TestInventoryLog_CambioDeProductoMueveElDelta(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	a := newProduct(t, db, "A")
	b := newProduct(t, db, "B")
	log, _ := insertLog(t, db, ptr(a), 10)

	err := db.Run(ctx, func(s repository.Store) error {
		old, err := s.Logs.GetForUpdate(ctx, log.ID)
		if err != nil {
			return err
		}
		moved := *old
		moved.ProductID = ptr(b)
		moved.Delta = 12
		if _, err := aggregate.NewMaintainer(s).OnInventoryLogUpdate(ctx, old, &moved); err != nil {
			return err
		}
		return s.Logs.Update(ctx, &moved)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), quantity(t, db, a))
	assert.Equal(t, int64(12), quantity(t, db, b))
}

func TestInventoryLog_ProductoInexistenteEsErrorReferencial(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()

	err := db.Run(ctx, func(s repository.Store) error {
		_, err := aggregate.NewMaintainer(s).OnInventoryLogInsert(ctx,
			&entity.InventoryLog{Type: entity.LogTypeRestock, ProductID: ptr(99), Delta: 5})
		return err
	})
	var re *domain.ReferentialError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "inventory_logs.product_id", re.Relation)
}

func TestInventoryLog_BorradoConProductoAusenteNoHaceNada(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()

	err := db.Run(ctx, func(s repository.Store) error {
		changes, err := aggregate.NewMaintainer(s).OnInventoryLogDelete(ctx,
			&entity.InventoryLog{ProductID: ptr(99), Delta: 5})
		assert.Empty(t, changes)
		return err
	})
	require.NoError(t, err)
}

func TestInventoryLog_ErrorRevierteElAjuste(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	p := newProduct(t, db, "P")

	err := db.Run(ctx, func(s repository.Store) error {
		log := &entity.InventoryLog{Type: entity.LogTypeRestock, ProductID: ptr(p), Delta: 5}
		if _, err := aggregate.NewMaintainer(s).OnInventoryLogInsert(ctx, log); err != nil {
			return err
		}
		return domain.NewConstraintViolation("note", "forzado")
	})
	require.ErrorIs(t, err, domain.ErrConstraintViolation)
	assert.Equal(t, int64(0), quantity(t, db, p))
}

// ── Detalles de venta ────────────────────────────────────────────────────────

func TestSalesDetail_ReasignacionEntreVentas(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	a := newSale(t, db)
	b := newSale(t, db)
	d := insertDetail(t, db, a, 300, nil)
	insertDetail(t, db, b, 100, nil)
	before := total(t, db, a) + total(t, db, b)

	err := db.Run(ctx, func(s repository.Store) error {
		old, err := s.Details.GetForUpdate(ctx, d.ID)
		if err != nil {
			return err
		}
		moved := *old
		moved.SaleID = b
		if _, err := aggregate.NewMaintainer(s).OnSalesDetailUpdate(ctx, old, &moved); err != nil {
			return err
		}
		return s.Details.Update(ctx, &moved)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total(t, db, a))
	assert.Equal(t, int64(400), total(t, db, b))
	assert.Equal(t, before, total(t, db, a)+total(t, db, b))
	assertNoDrift(t, db)
}

func TestSalesDetail_VentaInexistenteEsErrorReferencial(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	err := db.Run(ctx, func(s repository.Store) error {
		_, err := aggregate.NewMaintainer(s).OnSalesDetailInsert(ctx,
			&entity.SalesDetail{SaleID: 5, SubtotalCents: 10})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrReferential)
}

// ── Concurrencia e invariantes ───────────────────────────────────────────────

func TestInventoryLog_InsercionesConcurrentesSinPerdidas(t *testing.T) {
	db := memstore.New()
	p := newProduct(t, db, "P")

	errs := make([]error, 50)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int, delta int64) {
			defer wg.Done()
			ctx := context.Background()
			errs[i] = db.Run(ctx, func(s repository.Store) error {
				log := &entity.InventoryLog{Type: entity.LogTypeRestock, ProductID: &p, Delta: delta}
				if err := s.Logs.Create(ctx, log); err != nil {
					return err
				}
				_, err := aggregate.NewMaintainer(s).OnInventoryLogInsert(ctx, log)
				return err
			})
		}(i, int64(i%5+1))
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	// 10 vueltas de 1..5
	assert.Equal(t, int64(150), quantity(t, db, p))
	assertNoDrift(t, db)
}

func TestInvariante_SecuenciaAleatoria(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	products := []int64{newProduct(t, db, "A"), newProduct(t, db, "B"), newProduct(t, db, "C")}
	var live []int64

	for i := 0; i < 300; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			var target *int64
			if rng.Intn(5) > 0 {
				target = ptr(products[rng.Intn(len(products))])
			}
			log, _ := insertLog(t, db, target, int64(rng.Intn(41)-20))
			live = append(live, log.ID)
		case op == 1:
			idx := rng.Intn(len(live))
			err := db.Run(ctx, func(s repository.Store) error {
				old, err := s.Logs.GetForUpdate(ctx, live[idx])
				if err != nil {
					return err
				}
				next := *old
				next.Delta = int64(rng.Intn(41) - 20)
				if rng.Intn(3) == 0 {
					next.ProductID = ptr(products[rng.Intn(len(products))])
				}
				if _, err := aggregate.NewMaintainer(s).OnInventoryLogUpdate(ctx, old, &next); err != nil {
					return err
				}
				return s.Logs.Update(ctx, &next)
			})
			require.NoError(t, err)
		default:
			idx := rng.Intn(len(live))
			deleteLog(t, db, live[idx])
			live = append(live[:idx], live[idx+1:]...)
		}
	}
	assertNoDrift(t, db)
}
