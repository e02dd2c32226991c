package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memstore"
)

// ── Transacciones ────────────────────────────────────────────────────────────

func TestRun_ErrorDescartaCambios(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Run(ctx, func(s repository.Store) error {
		require.NoError(t, s.Categories.Create(ctx, &entity.Category{Name: "Bebidas"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := db.Store().Categories.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRun_ConfirmaCambios(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()

	err := db.Run(ctx, func(s repository.Store) error {
		return s.Categories.Create(ctx, &entity.Category{Name: "Bebidas"})
	})
	require.NoError(t, err)

	c, err := db.Store().Categories.GetByName(ctx, "Bebidas")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, int64(1), c.ID)
}

func TestRun_ContextoCanceladoNoConfirma(t *testing.T) {
	db := memstore.New()
	ctx, cancel := context.WithCancel(context.Background())

	err := db.Run(ctx, func(s repository.Store) error {
		cancel()
		return s.Categories.Create(ctx, &entity.Category{Name: "Bebidas"})
	})
	require.ErrorIs(t, err, context.Canceled)

	list, _ := db.Store().Categories.List(context.Background(), 0, 0)
	assert.Empty(t, list)
}

// ── Restricciones ────────────────────────────────────────────────────────────

func TestProducts_SKUUnicoYCantidadIgnorada(t *testing.T) {
	s := memstore.New().Store()
	ctx := context.Background()

	p := &entity.Product{SKU: "A-1", Name: "Agua", PriceCents: 100, Quantity: 99}
	require.NoError(t, s.Products.Create(ctx, p))
	assert.Equal(t, int64(0), p.Quantity)

	err := s.Products.Create(ctx, &entity.Product{SKU: "A-1", Name: "Otra", PriceCents: 1})
	var cv *domain.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "sku", cv.Field)
}

func TestProducts_CategoriaInexistente(t *testing.T) {
	s := memstore.New().Store()
	missing := int64(42)
	err := s.Products.Create(context.Background(), &entity.Product{SKU: "A", Name: "A", PriceCents: 1, CategoryID: &missing})
	assert.ErrorIs(t, err, domain.ErrReferential)
}

func TestAdjustQuantity_ProductoInexistente(t *testing.T) {
	s := memstore.New().Store()
	_, err := s.Products.AdjustQuantity(context.Background(), 9, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDetails_LogIDUnico(t *testing.T) {
	db := memstore.New()
	s := db.Store()
	ctx := context.Background()

	sale := &entity.Sale{}
	require.NoError(t, s.Sales.Create(ctx, sale))
	log := &entity.InventoryLog{Type: entity.LogTypeSale, Delta: -1}
	require.NoError(t, s.Logs.Create(ctx, log))

	require.NoError(t, s.Details.Create(ctx, &entity.SalesDetail{SaleID: sale.ID, LogID: &log.ID, SubtotalCents: 10}))
	err := s.Details.Create(ctx, &entity.SalesDetail{SaleID: sale.ID, LogID: &log.ID, SubtotalCents: 10})
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

// ── Referencias ──────────────────────────────────────────────────────────────

func TestChangeKey_AvanzaLaSecuencia(t *testing.T) {
	s := memstore.New().Store()
	ctx := context.Background()

	c := &entity.Category{Name: "A"}
	require.NoError(t, s.Categories.Create(ctx, c))
	require.NoError(t, s.References.ChangeKey(ctx, ledger.TableCategories, c.ID, 10))

	next := &entity.Category{Name: "B"}
	require.NoError(t, s.Categories.Create(ctx, next))
	assert.Equal(t, int64(11), next.ID)

	moved, err := s.Categories.GetByID(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, int64(10), moved.ID)
}

func TestClearReferences_ColumnaNoNula(t *testing.T) {
	s := memstore.New().Store()
	rel, ok := ledger.Lookup(ledger.TableSalesDetails, "sale_id")
	require.True(t, ok)
	_, err := s.References.ClearReferences(context.Background(), rel, 1)
	assert.Error(t, err)
}

// ── Reportes ─────────────────────────────────────────────────────────────────

func TestSalesSummary_Promedio(t *testing.T) {
	db := memstore.New()
	s := db.Store()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, total := range []int64{100, 200, 0} {
		sale := &entity.Sale{Time: at}
		require.NoError(t, s.Sales.Create(ctx, sale))
		require.NoError(t, s.Sales.SetTotal(ctx, sale.ID, total))
	}

	sum, err := db.Reports().SalesSummary(ctx, at.Add(-time.Hour), at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Count)
	assert.Equal(t, int64(300), sum.TotalCents)
	assert.Equal(t, "100", sum.AverageCents.String())
}
