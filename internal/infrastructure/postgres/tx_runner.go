package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ aggregate.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Las FK son DEFERRABLE INITIALLY DEFERRED: se verifican al confirmar.
func (r *TxRunner) Run(ctx context.Context, fn func(s repository.Store) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}

// NewStore repositorios sobre q (pool o tx).
func NewStore(q Querier) repository.Store {
	return repository.Store{
		Users:      NewUserRepository(q),
		Customers:  NewCustomerRepository(q),
		Categories: NewCategoryRepository(q),
		Products:   NewProductRepository(q),
		Logs:       NewInventoryLogRepository(q),
		Sales:      NewSaleRepository(q),
		Details:    NewSalesDetailRepository(q),
		References: NewReferenceRepository(q),
	}
}
