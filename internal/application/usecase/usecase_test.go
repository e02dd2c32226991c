package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/usecase"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memstore"
)

func ptr[T any](v T) *T { return &v }

// recordingPublisher guarda lo publicado tras cada confirmación.
type recordingPublisher struct {
	mu     sync.Mutex
	ops    []string
	events []aggregate.Changes
}

func (p *recordingPublisher) Publish(_ context.Context, op string, changes aggregate.Changes) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, op)
	p.events = append(p.events, changes)
	return nil
}

type fixture struct {
	db        *memstore.DB
	events    *recordingPublisher
	products  *usecase.ProductUseCase
	customers *usecase.CustomerUseCase
	cats      *usecase.CategoryUseCase
	inventory *usecase.InventoryUseCase
	sales     *usecase.SaleUseCase
	users     *usecase.UserUseCase
	admin     *usecase.AdminUseCase
	reports   *usecase.ReportUseCase
}

func newFixture() *fixture {
	db := memstore.New()
	ev := &recordingPublisher{}
	return &fixture{
		db:        db,
		events:    ev,
		products:  usecase.NewProductUseCase(db, ev, nil),
		customers: usecase.NewCustomerUseCase(db, nil),
		cats:      usecase.NewCategoryUseCase(db, nil),
		inventory: usecase.NewInventoryUseCase(db, ev, nil),
		sales:     usecase.NewSaleUseCase(db, ev, nil),
		users:     usecase.NewUserUseCase(db, nil),
		admin:     usecase.NewAdminUseCase(db, nil),
		reports:   usecase.NewReportUseCase(db.Reports()),
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (f *fixture) product(t *testing.T, sku string, stock int64) int64 {
	t.Helper()
	ctx := context.Background()
	p, err := f.products.Create(ctx, dto.CreateProductRequest{SKU: sku, Name: sku, PriceCents: 1000})
	require.NoError(t, err)
	if stock != 0 {
		_, err = f.inventory.Record(ctx, dto.CreateLogRequest{Type: "restock", ProductID: &p.ID, Delta: stock})
		require.NoError(t, err)
	}
	return p.ID
}

func (f *fixture) customer(t *testing.T) int64 {
	t.Helper()
	c, err := f.customers.Create(context.Background(), dto.CustomerRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) quantity(t *testing.T, productID int64) int64 {
	t.Helper()
	p, err := f.products.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Quantity
}

func (f *fixture) total(t *testing.T, saleID int64) int64 {
	t.Helper()
	s, err := f.sales.Get(context.Background(), saleID)
	require.NoError(t, err)
	return s.TotalCents
}

func (f *fixture) assertNoDrift(t *testing.T) {
	t.Helper()
	res, err := f.admin.Reconcile(context.Background(), false)
	require.NoError(t, err)
	require.Empty(t, res.Drifts)
}
