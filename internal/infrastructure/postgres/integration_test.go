package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/usecase"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/ledger-api/pkg/config"
)

// Requiere una base desechable: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func setup(t *testing.T) (*pgxpool.Pool, *postgres.TxRunner) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE sales_details, sales, inventory_logs, products, categories, customers, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool, postgres.NewTxRunner(pool)
}

func TestPostgres_EscenarioDeStock(t *testing.T) {
	pool, tx := setup(t)
	ctx := context.Background()
	store := postgres.NewStore(pool)

	p := &entity.Product{SKU: "P", Name: "P", PriceCents: 100, Active: true}
	require.NoError(t, store.Products.Create(ctx, p))

	insert := func(delta int64) int64 {
		log := &entity.InventoryLog{Type: entity.LogTypeRestock, ProductID: &p.ID, Delta: delta}
		require.NoError(t, tx.Run(ctx, func(s repository.Store) error {
			if err := s.Logs.Create(ctx, log); err != nil {
				return err
			}
			_, err := aggregate.NewMaintainer(s).OnInventoryLogInsert(ctx, log)
			return err
		}))
		return log.ID
	}
	restock := insert(50)
	insert(-3)

	require.NoError(t, tx.Run(ctx, func(s repository.Store) error {
		old, err := s.Logs.GetForUpdate(ctx, restock)
		if err != nil {
			return err
		}
		m := aggregate.NewMaintainer(s)
		if _, err := m.OnInventoryLogDelete(ctx, old); err != nil {
			return err
		}
		_, err = aggregate.NewReferential(s, m).DeleteParent(ctx, ledger.TableInventoryLogs, restock)
		return err
	}))

	got, err := store.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), got.Quantity)

	drifts, err := aggregate.NewReconciler(tx).Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestPostgres_AjustesConcurrentes(t *testing.T) {
	pool, tx := setup(t)
	ctx := context.Background()
	p := &entity.Product{SKU: "C", Name: "C", PriceCents: 1}
	require.NoError(t, postgres.NewStore(pool).Products.Create(ctx, p))

	errs := make([]error, 20)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = record(ctx, tx, p.ID, 2)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := postgres.NewStore(pool).Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), got.Quantity)
}

// record alta de un registro de reposición con su ajuste, en su propia transacción.
func record(ctx context.Context, tx *postgres.TxRunner, productID, delta int64) error {
	return tx.Run(ctx, func(s repository.Store) error {
		log := &entity.InventoryLog{Type: entity.LogTypeRestock, ProductID: &productID, Delta: delta}
		if err := s.Logs.Create(ctx, log); err != nil {
			return err
		}
		_, err := aggregate.NewMaintainer(s).OnInventoryLogInsert(ctx, log)
		return err
	})
}

// ============================================
// Tests de conciliación concurrente
// ============================================

func TestPostgres_ReparacionConcurrenteConAltas(t *testing.T) {
	pool, tx := setup(t)
	ctx := context.Background()
	store := postgres.NewStore(pool)

	a := &entity.Product{SKU: "RA", Name: "RA", PriceCents: 1}
	b := &entity.Product{SKU: "RB", Name: "RB", PriceCents: 1}
	c := &entity.Product{SKU: "RC", Name: "RC", PriceCents: 1}
	for _, p := range []*entity.Product{a, b, c} {
		require.NoError(t, store.Products.Create(ctx, p))
	}
	require.NoError(t, record(ctx, tx, a.ID, 10))
	// c desviado: la reparación escribe mientras a y b reciben altas.
	require.NoError(t, store.Products.SetQuantity(ctx, c.ID, 999))

	reconciler := aggregate.NewReconciler(tx)
	const writers, repairs = 40, 8
	errs := make([]error, writers+repairs)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := a.ID
			if i%2 == 1 {
				id = b.ID
			}
			errs[i] = record(ctx, tx, id, 1)
		}(i)
	}
	for i := 0; i < repairs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[writers+i] = reconciler.Repair(ctx)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	drifts, err := reconciler.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	gotA, err := store.Products.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10+writers/2), gotA.Quantity)
	gotB, err := store.Products.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(writers/2), gotB.Quantity)
	gotC, err := store.Products.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, gotC.Quantity)
}

func TestPostgres_UnicidadYReferencias(t *testing.T) {
	pool, _ := setup(t)
	ctx := context.Background()
	store := postgres.NewStore(pool)

	require.NoError(t, store.Categories.Create(ctx, &entity.Category{Name: "Bebidas"}))
	err := store.Categories.Create(ctx, &entity.Category{Name: "Bebidas"})
	var cv *domain.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "name", cv.Field)

	_, err = store.Products.AdjustQuantity(ctx, 999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_CambioDeClave(t *testing.T) {
	pool, tx := setup(t)
	ctx := context.Background()
	store := postgres.NewStore(pool)

	sale := &entity.Sale{}
	require.NoError(t, store.Sales.Create(ctx, sale))
	require.NoError(t, tx.Run(ctx, func(s repository.Store) error {
		d := &entity.SalesDetail{SaleID: sale.ID, SubtotalCents: 250}
		if err := s.Details.Create(ctx, d); err != nil {
			return err
		}
		_, err := aggregate.NewMaintainer(s).OnSalesDetailInsert(ctx, d)
		return err
	}))

	require.NoError(t, tx.Run(ctx, func(s repository.Store) error {
		return aggregate.NewReferential(s, aggregate.NewMaintainer(s)).ChangeKey(ctx, ledger.TableSales, sale.ID, 500)
	}))

	moved, err := store.Sales.GetByID(ctx, 500)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, int64(250), moved.TotalCents)
	details, err := store.Details.ListBySale(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, details, 1)

	next := &entity.Sale{}
	require.NoError(t, store.Sales.Create(ctx, next))
	assert.Greater(t, next.ID, int64(500))
}

// ============================================
// Tests de bloqueos en casos de uso
// ============================================

func TestPostgres_VentasCruzadasNoSeInterbloquean(t *testing.T) {
	pool, tx := setup(t)
	ctx := context.Background()
	store := postgres.NewStore(pool)

	a := &entity.Product{SKU: "XA", Name: "XA", PriceCents: 1}
	b := &entity.Product{SKU: "XB", Name: "XB", PriceCents: 1}
	require.NoError(t, store.Products.Create(ctx, a))
	require.NoError(t, store.Products.Create(ctx, b))
	cust := &entity.Customer{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, store.Customers.Create(ctx, cust))

	sales := usecase.NewSaleUseCase(tx, nil, nil)
	line := func(id int64) dto.SaleDetailRequest {
		return dto.SaleDetailRequest{ProductID: &id, Quantity: 1, SubtotalCents: 100}
	}
	const n = 30
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			details := []dto.SaleDetailRequest{line(a.ID), line(b.ID)}
			if i%2 == 1 {
				details = []dto.SaleDetailRequest{line(b.ID), line(a.ID)}
			}
			_, errs[i] = sales.Create(ctx, nil, dto.CreateSaleRequest{CustomerID: &cust.ID, Details: details})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	for _, id := range []int64{a.ID, b.ID} {
		got, err := store.Products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(-n), got.Quantity)
	}
	drifts, err := aggregate.NewReconciler(tx).Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestPostgres_DegradacionesConcurrentesConservanUnAdmin(t *testing.T) {
	pool, tx := setup(t)
	ctx := context.Background()
	store := postgres.NewStore(pool)

	var ids []int64
	for _, name := range []string{"ana", "beto", "carla"} {
		u := &entity.User{Username: name, PasswordHash: "x", Role: entity.RoleAdmin}
		require.NoError(t, store.Users.Create(ctx, u))
		ids = append(ids, u.ID)
	}

	users := usecase.NewUserUseCase(tx, nil)
	read := string(entity.RoleRead)
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = users.Update(ctx, id, dto.UpdateUserRequest{Role: &read})
		}(i, id)
	}
	wg.Wait()

	var conflicts int
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, domain.ErrConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts)
	n, err := store.Users.CountByRole(ctx, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
