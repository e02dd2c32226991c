package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, time, customer_id, user_id, total_cents`

// SaleRepo cabeceras de venta sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	if err := row.Scan(&s.ID, &s.Time, &s.CustomerID, &s.UserID, &s.TotalCents); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserta la cabecera con total 0.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	var at any
	if !s.Time.IsZero() {
		at = s.Time
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO sales (time, customer_id, user_id)
		VALUES (COALESCE($1::timestamptz, now()), $2, $3)
		RETURNING id, time, total_cents`,
		at, s.CustomerID, s.UserID,
	).Scan(&s.ID, &s.Time, &s.TotalCents)
	if err != nil {
		return fmt.Errorf("insert sale: %w", mapError(err))
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

func (r *SaleRepo) List(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+saleColumns+` FROM sales ORDER BY time DESC, id DESC LIMIT $1 OFFSET $2`,
		limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	var out []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update no toca total_cents.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	cmd, err := r.q.Exec(ctx, `UPDATE sales SET time = $2, customer_id = $3, user_id = $4 WHERE id = $1`,
		s.ID, s.Time, s.CustomerID, s.UserID)
	if err != nil {
		return fmt.Errorf("update sale: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustTotal suma delta bajo el bloqueo de fila del UPDATE.
func (r *SaleRepo) AdjustTotal(ctx context.Context, id, delta int64) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx,
		`UPDATE sales SET total_cents = total_cents + $2 WHERE id = $1 RETURNING total_cents`,
		id, delta,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("adjust total: %w", mapError(err))
	}
	return total, nil
}

func (r *SaleRepo) SetTotal(ctx context.Context, id, total int64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE sales SET total_cents = $2 WHERE id = $1`, id, total)
	if err != nil {
		return fmt.Errorf("set total: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Totals bloquea las ventas igual que ProductRepo.Quantities.
func (r *SaleRepo) Totals(ctx context.Context) (map[int64]int64, error) {
	return queryInt64Map(ctx, r.q, `SELECT id, total_cents FROM sales ORDER BY id FOR UPDATE`)
}
