package aggregate_test

import (
	"context"
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

func deleteParent(db *memstore.DB, table ledger.Table, id int64) (aggregate.Changes, error) {
	ctx := context.Background()
	var changes aggregate.Changes
	err := db.Run(ctx, func(s repository.Store) error {
		var err error
		changes, err = aggregate.NewReferential(s, aggregate.NewMaintainer(s)).DeleteParent(ctx, table, id)
		return err
	})
	return changes, err
}

// ── Borrado ──────────────────────────────────────────────────────────────────

func TestDeleteParent_VentaBorraSusDetallesEnCascada(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	sale := newSale(t, db)
	other := newSale(t, db)
	for _, st := range []int64{100, 250, 50} {
		insertDetail(t, db, sale, st, nil)
	}
	insertDetail(t, db, other, 70, nil)
	require.Equal(t, int64(400), total(t, db, sale))

	changes, err := deleteParent(db, ledger.TableSales, sale)
	require.NoError(t, err)
	assert.Empty(t, changes)

	gone, err := db.Store().Sales.GetByID(ctx, sale)
	require.NoError(t, err)
	assert.Nil(t, gone)
	details, err := db.Store().Details.ListBySale(ctx, sale)
	require.NoError(t, err)
	assert.Empty(t, details)
	assert.Equal(t, int64(70), total(t, db, other))
	assertNoDrift(t, db)
}

func TestDeleteParent_CategoriaDejaProductosSinCategoria(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	cat := &entity.Category{Name: "Bebidas"}
	require.NoError(t, db.Store().Categories.Create(ctx, cat))
	p := &entity.Product{SKU: "A", Name: "Agua", PriceCents: 100, CategoryID: &cat.ID}
	require.NoError(t, db.Store().Products.Create(ctx, p))
	insertLog(t, db, &p.ID, 9)

	_, err := deleteParent(db, ledger.TableCategories, cat.ID)
	require.NoError(t, err)

	got, err := db.Store().Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, int64(9), got.Quantity)
}

func TestDeleteParent_ProductoReferenciadoPorDetalleSeRechaza(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	p := newProduct(t, db, "P")
	log, _ := insertLog(t, db, ptr(p), 20)
	sale := newSale(t, db)
	insertDetail(t, db, sale, 500, ptr(p))

	_, err := deleteParent(db, ledger.TableProducts, p)
	var re *domain.ReferentialError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "sales_details.product_id", re.Relation)

	assert.Equal(t, int64(20), quantity(t, db, p))
	assert.Equal(t, int64(500), total(t, db, sale))
	still, err := db.Store().Logs.GetByID(ctx, log.ID)
	require.NoError(t, err)
	assert.Equal(t, &p, still.ProductID)
}

func TestDeleteParent_ProductoDesligaSusRegistros(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	p := newProduct(t, db, "P")
	keep := newProduct(t, db, "K")
	l1, _ := insertLog(t, db, ptr(p), 20)
	insertLog(t, db, ptr(keep), 4)

	changes, err := deleteParent(db, ledger.TableProducts, p)
	require.NoError(t, err)
	_, touched := changes.Lookup(ledger.AggregateProductQuantity, p)
	assert.False(t, touched)

	log, err := db.Store().Logs.GetByID(ctx, l1.ID)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Nil(t, log.ProductID)
	assert.Equal(t, int64(4), quantity(t, db, keep))
	assertNoDrift(t, db)
}

func TestDeleteParent_RegistroDesligaSuDetalle(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	p := newProduct(t, db, "P")
	log, _ := insertLog(t, db, ptr(p), -2)
	sale := newSale(t, db)
	d := insertDetail(t, db, sale, 200, ptr(p))
	d.LogID = &log.ID
	require.NoError(t, db.Store().Details.Update(ctx, d))

	deleteLog(t, db, log.ID)

	got, err := db.Store().Details.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LogID)
	assert.Equal(t, int64(0), quantity(t, db, p))
	assert.Equal(t, int64(200), total(t, db, sale))
}

func TestDeleteParent_Inexistente(t *testing.T) {
	_, err := deleteParent(memstore.New(), ledger.TableCustomers, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Cambio de clave ──────────────────────────────────────────────────────────

func TestChangeKey_ArrastraHijosYConservaAgregados(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	p := newProduct(t, db, "P")
	log, _ := insertLog(t, db, ptr(p), 15)
	sale := newSale(t, db)
	d := insertDetail(t, db, sale, 900, ptr(p))

	err := db.Run(ctx, func(s repository.Store) error {
		ref := aggregate.NewReferential(s, aggregate.NewMaintainer(s))
		if err := ref.ChangeKey(ctx, ledger.TableProducts, p, 100); err != nil {
			return err
		}
		return ref.ChangeKey(ctx, ledger.TableSales, sale, 200)
	})
	require.NoError(t, err)

	assert.Equal(t, int64(15), quantity(t, db, 100))
	assert.Equal(t, int64(900), total(t, db, 200))
	gotLog, _ := db.Store().Logs.GetByID(ctx, log.ID)
	assert.Equal(t, ptr(100), gotLog.ProductID)
	gotDetail, _ := db.Store().Details.GetByID(ctx, d.ID)
	assert.Equal(t, int64(200), gotDetail.SaleID)
	assert.Equal(t, ptr(100), gotDetail.ProductID)
	assertNoDrift(t, db)
}

func TestChangeKey_ClaveOcupada(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	a := newProduct(t, db, "A")
	b := newProduct(t, db, "B")

	err := db.Run(ctx, func(s repository.Store) error {
		return aggregate.NewReferential(s, aggregate.NewMaintainer(s)).ChangeKey(ctx, ledger.TableProducts, a, b)
	})
	var cv *domain.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "id", cv.Field)
}

// ── Conciliación ─────────────────────────────────────────────────────────────

func TestReconciler_DetectaYReparaDesviacion(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	p := newProduct(t, db, "P")
	insertLog(t, db, ptr(p), 30)
	sale := newSale(t, db)
	insertDetail(t, db, sale, 120, nil)

	require.NoError(t, db.Store().Products.SetQuantity(ctx, p, 31))
	require.NoError(t, db.Store().Sales.SetTotal(ctx, sale, 0))

	rec := aggregate.NewReconciler(db)
	drifts, err := rec.Check(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 2)
	assert.Equal(t, domain.AggregateDriftDetected{
		Aggregate: string(ledger.AggregateProductQuantity), ID: p, Stored: 31, Expected: 30,
	}, drifts[0])
	assert.ErrorIs(t, &drifts[1], domain.ErrAggregateDrift)

	fixed, err := rec.Repair(ctx)
	require.NoError(t, err)
	assert.Len(t, fixed, 2)
	assert.Equal(t, int64(30), quantity(t, db, p))
	assert.Equal(t, int64(120), total(t, db, sale))
	assertNoDrift(t, db)
}
