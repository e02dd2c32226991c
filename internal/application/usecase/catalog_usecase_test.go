package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
)

// ── Productos ────────────────────────────────────────────────────────────────

func TestProduct_Create_NaceEnCero(t *testing.T) {
	f := newFixture()
	p, err := f.products.Create(context.Background(), dto.CreateProductRequest{SKU: "  café-01 ", Name: "Café", PriceCents: 1250})
	require.NoError(t, err)
	assert.Equal(t, "café-01", p.SKU)
	assert.Equal(t, int64(0), p.Quantity)
	assert.Equal(t, "12.50", p.Price)
	assert.True(t, p.Active)

	_, err = f.products.Create(context.Background(), dto.CreateProductRequest{SKU: "café-01", Name: "Otro", PriceCents: 1})
	var cv *domain.ConstraintViolation
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, "sku", cv.Field)
}

func TestProduct_Create_PrecioInvalido(t *testing.T) {
	f := newFixture()
	_, err := f.products.Create(context.Background(), dto.CreateProductRequest{SKU: "X", Name: "X", PriceCents: 0})
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestProduct_Update_NoTocaCantidad(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.product(t, "A", 7)

	p, err := f.products.Update(ctx, id, dto.UpdateProductRequest{Name: ptr("Nuevo"), PriceCents: ptr(int64(900))})
	require.NoError(t, err)
	assert.Equal(t, "Nuevo", p.Name)
	assert.Equal(t, int64(7), p.Quantity)

	_, err = f.products.Update(ctx, id, dto.UpdateProductRequest{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToSet)
}

func TestProduct_Delete_RestringidoPorVenta(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "A", 10)
	res := f.sale(t, f.customer(t), dto.SaleDetailRequest{ProductID: &a, Quantity: 1, SubtotalCents: 100})

	_, err := f.products.Delete(ctx, a)
	var re *domain.ReferentialError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "sales_details.product_id", re.Relation)
	assert.Equal(t, int64(9), f.quantity(t, a))

	_, err = f.sales.Delete(ctx, res.Sale.ID, false)
	require.NoError(t, err)
	_, err = f.products.Delete(ctx, a)
	require.NoError(t, err)

	list, err := f.inventory.List(ctx, nil, nil, nil, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	for _, l := range list.Items {
		assert.Nil(t, l.ProductID, "los registros quedan sin producto")
	}
	_, err = f.products.Get(ctx, a)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProduct_GetBySKU_Normaliza(t *testing.T) {
	f := newFixture()
	f.product(t, "SKU-1", 0)
	p, err := f.products.GetBySKU(context.Background(), " SKU-1 ")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", p.SKU)
}

// ── Categorías ───────────────────────────────────────────────────────────────

func TestCategory_Delete_DejaProductosSinCategoria(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cat, err := f.cats.Create(ctx, dto.CategoryRequest{Name: "Bebidas"})
	require.NoError(t, err)
	p, err := f.products.Create(ctx, dto.CreateProductRequest{SKU: "A", Name: "A", PriceCents: 1, CategoryID: &cat.ID})
	require.NoError(t, err)

	list, err := f.products.List(ctx, &cat.ID, false, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	require.NoError(t, f.cats.Delete(ctx, cat.ID))
	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	assert.ErrorIs(t, f.cats.Delete(ctx, cat.ID), domain.ErrNotFound)
}

func TestCategory_NombreUnico(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.cats.Create(ctx, dto.CategoryRequest{Name: "Snacks"})
	require.NoError(t, err)
	_, err = f.cats.Create(ctx, dto.CategoryRequest{Name: " Snacks"})
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

// ── Clientes ─────────────────────────────────────────────────────────────────

func TestCustomer_Update_Parcial(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.customer(t)

	c, err := f.customers.Update(ctx, id, dto.UpdateCustomerRequest{City: ptr("Cali")})
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, "Cali", c.City)

	_, err = f.customers.Update(ctx, id, dto.UpdateCustomerRequest{Email: ptr("no-es-email")})
	var cv *domain.ConstraintViolation
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, "email", cv.Field)

	_, err = f.customers.Update(ctx, id, dto.UpdateCustomerRequest{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToSet)
}

func TestCustomer_Delete_VentasSinCliente(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.customer(t)
	res := f.sale(t, c, dto.SaleDetailRequest{SubtotalCents: 100})

	require.NoError(t, f.customers.Delete(ctx, c))
	sale, err := f.sales.Get(ctx, res.Sale.ID)
	require.NoError(t, err)
	assert.Nil(t, sale.CustomerID)
	assert.Equal(t, int64(100), sale.TotalCents)
}
