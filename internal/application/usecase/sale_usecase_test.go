package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/usecase"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memstore"
)

func (f *fixture) sale(t *testing.T, customerID int64, details ...dto.SaleDetailRequest) *dto.SaleMutationResponse {
	t.Helper()
	res, err := f.sales.Create(context.Background(), nil, dto.CreateSaleRequest{CustomerID: &customerID, Details: details})
	require.NoError(t, err)
	return res
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestSale_Create_DescuentaStockYSumaTotal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "A", 50)
	c := f.customer(t)

	res := f.sale(t, c,
		dto.SaleDetailRequest{ProductID: &a, Quantity: 3, SubtotalCents: 3000, Note: "tres"},
		dto.SaleDetailRequest{Quantity: 0, SubtotalCents: 500, Note: "envío"},
	)
	assert.Equal(t, int64(3500), res.Sale.TotalCents)
	assert.Equal(t, "35.00", res.Sale.Total)
	require.Len(t, res.Sale.Details, 2)
	require.NotNil(t, res.Sale.Details[0].LogID)
	assert.Nil(t, res.Sale.Details[1].LogID)
	assert.Equal(t, int64(47), f.quantity(t, a))

	log, err := f.inventory.Get(ctx, *res.Sale.Details[0].LogID)
	require.NoError(t, err)
	assert.Equal(t, "sale", log.Type)
	assert.Equal(t, int64(-3), log.Delta)
	assert.Equal(t, fmt.Sprintf("Automatic logging from sale #%d: tres", res.Sale.ID), log.Note)
	assert.True(t, log.Time.Equal(res.Sale.Time))

	assert.Contains(t, res.Aggregates, dto.AggregateValue{Aggregate: "products.quantity", ID: a, Value: 47})
	assert.Contains(t, res.Aggregates, dto.AggregateValue{Aggregate: "sales.total_cents", ID: res.Sale.ID, Value: 3500})
	f.assertNoDrift(t)
}

func TestSale_Create_Validaciones(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "A", 5)
	c := f.customer(t)

	_, err := f.sales.Create(ctx, nil, dto.CreateSaleRequest{Details: []dto.SaleDetailRequest{{SubtotalCents: 1}}})
	var cv *domain.ConstraintViolation
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, "customer_id", cv.Field)

	_, err = f.sales.Create(ctx, nil, dto.CreateSaleRequest{CustomerID: &c})
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, "details", cv.Field)

	_, err = f.sales.Create(ctx, nil, dto.CreateSaleRequest{CustomerID: &c, Details: []dto.SaleDetailRequest{
		{ProductID: &a, Quantity: 1, SubtotalCents: 100},
		{ProductID: &a, Quantity: 1, SubtotalCents: 0},
	}})
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, "subtotal_cents", cv.Field)
	assert.Equal(t, int64(5), f.quantity(t, a), "la venta fallida no deja rastro")
}

func TestSale_Create_ClienteInexistente(t *testing.T) {
	f := newFixture()
	_, err := f.sales.Create(context.Background(), nil, dto.CreateSaleRequest{
		CustomerID: ptr(int64(77)),
		Details:    []dto.SaleDetailRequest{{SubtotalCents: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrReferential)
}

// lockingRunner anota cada llamada a Products.Lock sobre una DB en memoria.
type lockingRunner struct {
	db    *memstore.DB
	locks [][]int64
}

type lockRecorder struct {
	repository.ProductRepository
	r *lockingRunner
}

func (l lockRecorder) Lock(ctx context.Context, ids []int64) error {
	l.r.locks = append(l.r.locks, append([]int64(nil), ids...))
	return l.ProductRepository.Lock(ctx, ids)
}

func (r *lockingRunner) Run(ctx context.Context, fn func(s repository.Store) error) error {
	return r.db.Run(ctx, func(s repository.Store) error {
		s.Products = lockRecorder{ProductRepository: s.Products, r: r}
		return fn(s)
	})
}

func TestSale_Create_BloqueaProductosEnOrdenAscendente(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 10)
	c := f.customer(t)
	runner := &lockingRunner{db: f.db}
	sales := usecase.NewSaleUseCase(runner, nil, nil)

	_, err := sales.Create(ctx, nil, dto.CreateSaleRequest{CustomerID: &c, Details: []dto.SaleDetailRequest{
		{ProductID: &b, Quantity: 1, SubtotalCents: 100},
		{Quantity: 0, SubtotalCents: 50},
		{ProductID: &a, Quantity: 2, SubtotalCents: 200},
		{ProductID: &b, Quantity: 1, SubtotalCents: 100},
	}})
	require.NoError(t, err)
	require.Len(t, runner.locks, 1)
	assert.Equal(t, []int64{a, b}, runner.locks[0])
	assert.Equal(t, int64(8), f.quantity(t, a))
	assert.Equal(t, int64(8), f.quantity(t, b))
	f.assertNoDrift(t)
}

func TestSale_Delete_RevertirBloqueaProductosEnOrden(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 10)
	c := f.customer(t)
	res := f.sale(t, c,
		dto.SaleDetailRequest{ProductID: &b, Quantity: 1, SubtotalCents: 100},
		dto.SaleDetailRequest{ProductID: &a, Quantity: 1, SubtotalCents: 100},
	)
	runner := &lockingRunner{db: f.db}

	_, err := usecase.NewSaleUseCase(runner, nil, nil).Delete(ctx, res.Sale.ID, true)
	require.NoError(t, err)
	require.Len(t, runner.locks, 1)
	assert.Equal(t, []int64{a, b}, runner.locks[0])
	assert.Equal(t, int64(10), f.quantity(t, a))
	f.assertNoDrift(t)
}

// ── Detalles ─────────────────────────────────────────────────────────────────

func TestSale_UpdateDetail_CantidadSincronizaRegistro(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "A", 50)
	res := f.sale(t, f.customer(t), dto.SaleDetailRequest{ProductID: &a, Quantity: 3, SubtotalCents: 3000})
	detailID := res.Sale.Details[0].ID

	out, err := f.sales.UpdateDetail(ctx, detailID, dto.UpdateDetailRequest{Quantity: ptr(int64(5)), SubtotalCents: ptr(int64(5000))})
	require.NoError(t, err)
	assert.Equal(t, int64(45), f.quantity(t, a))
	assert.Equal(t, int64(5000), f.total(t, res.Sale.ID))
	assert.Contains(t, out.Aggregates, dto.AggregateValue{Aggregate: "products.quantity", ID: a, Value: 45})
	f.assertNoDrift(t)
}

func TestSale_UpdateDetail_Reasignacion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t)
	s1 := f.sale(t, c, dto.SaleDetailRequest{SubtotalCents: 300}, dto.SaleDetailRequest{SubtotalCents: 200})
	s2 := f.sale(t, c, dto.SaleDetailRequest{SubtotalCents: 1000})

	_, err := f.sales.UpdateDetail(ctx, s1.Sale.Details[1].ID, dto.UpdateDetailRequest{SaleID: &s2.Sale.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(300), f.total(t, s1.Sale.ID))
	assert.Equal(t, int64(1200), f.total(t, s2.Sale.ID))

	_, err = f.sales.UpdateDetail(ctx, s1.Sale.Details[0].ID, dto.UpdateDetailRequest{SaleID: ptr(int64(999))})
	assert.ErrorIs(t, err, domain.ErrReferential)
	assert.Equal(t, int64(300), f.total(t, s1.Sale.ID))

	_, err = f.sales.UpdateDetail(ctx, s1.Sale.Details[0].ID, dto.UpdateDetailRequest{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToSet)
	f.assertNoDrift(t)
}

func TestSale_AddYDeleteDetail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "A", 10)
	res := f.sale(t, f.customer(t), dto.SaleDetailRequest{SubtotalCents: 100})

	added, err := f.sales.AddDetail(ctx, res.Sale.ID, dto.SaleDetailRequest{ProductID: &a, Quantity: 4, SubtotalCents: 400})
	require.NoError(t, err)
	assert.Equal(t, int64(6), f.quantity(t, a))
	assert.Equal(t, int64(500), f.total(t, res.Sale.ID))

	_, err = f.sales.DeleteDetail(ctx, added.Detail.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(6), f.quantity(t, a), "sin revertir, el registro de salida se conserva")
	assert.Equal(t, int64(100), f.total(t, res.Sale.ID))

	added, err = f.sales.AddDetail(ctx, res.Sale.ID, dto.SaleDetailRequest{ProductID: &a, Quantity: 2, SubtotalCents: 200})
	require.NoError(t, err)
	_, err = f.sales.DeleteDetail(ctx, added.Detail.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(6), f.quantity(t, a))

	_, err = f.sales.AddDetail(ctx, 999, dto.SaleDetailRequest{SubtotalCents: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.assertNoDrift(t)
}

// ── Update / Delete ──────────────────────────────────────────────────────────

func TestSale_Update_Cliente(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res := f.sale(t, f.customer(t), dto.SaleDetailRequest{SubtotalCents: 100})

	_, err := f.sales.Update(ctx, res.Sale.ID, dto.UpdateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToSet)

	out, err := f.sales.Update(ctx, res.Sale.ID, dto.UpdateSaleRequest{ClearCustomer: true})
	require.NoError(t, err)
	assert.Nil(t, out.CustomerID)
	assert.Equal(t, int64(100), out.TotalCents)
}

func TestSale_Delete_RevierteStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "A", 50)
	res := f.sale(t, f.customer(t), dto.SaleDetailRequest{ProductID: &a, Quantity: 3, SubtotalCents: 300})

	out, err := f.sales.Delete(ctx, res.Sale.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(50), f.quantity(t, a))
	assert.Contains(t, out.Aggregates, dto.AggregateValue{Aggregate: "products.quantity", ID: a, Value: 50})

	_, err = f.sales.Get(ctx, res.Sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.inventory.Get(ctx, *res.Sale.Details[0].LogID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.assertNoDrift(t)
}

func TestSale_Delete_SinRevertirConservaRegistros(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "A", 50)
	res := f.sale(t, f.customer(t), dto.SaleDetailRequest{ProductID: &a, Quantity: 3, SubtotalCents: 300})

	_, err := f.sales.Delete(ctx, res.Sale.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(47), f.quantity(t, a))

	log, err := f.inventory.Get(ctx, *res.Sale.Details[0].LogID)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), log.Delta)
	f.assertNoDrift(t)
}
