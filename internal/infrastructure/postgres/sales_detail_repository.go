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

var _ repository.SalesDetailRepository = (*SalesDetailRepo)(nil)

const detailColumns = `id, sale_id, log_id, product_id, quantity, subtotal_cents, note`

// SalesDetailRepo líneas de venta sobre PostgreSQL (usable con pool o tx).
type SalesDetailRepo struct {
	q Querier
}

// NewSalesDetailRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesDetailRepository(q Querier) *SalesDetailRepo {
	return &SalesDetailRepo{q: q}
}

func scanDetail(row pgx.Row) (*entity.SalesDetail, error) {
	var d entity.SalesDetail
	if err := row.Scan(&d.ID, &d.SaleID, &d.LogID, &d.ProductID, &d.Quantity, &d.SubtotalCents, &d.Note); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *SalesDetailRepo) Create(ctx context.Context, d *entity.SalesDetail) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sales_details (sale_id, log_id, product_id, quantity, subtotal_cents, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		d.SaleID, d.LogID, d.ProductID, d.Quantity, d.SubtotalCents, d.Note,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert sales detail: %w", mapError(err))
	}
	return nil
}

func (r *SalesDetailRepo) GetByID(ctx context.Context, id int64) (*entity.SalesDetail, error) {
	return r.getOne(ctx, `SELECT `+detailColumns+` FROM sales_details WHERE id = $1`, id)
}

func (r *SalesDetailRepo) GetForUpdate(ctx context.Context, id int64) (*entity.SalesDetail, error) {
	return r.getOne(ctx, `SELECT `+detailColumns+` FROM sales_details WHERE id = $1 FOR UPDATE`, id)
}

func (r *SalesDetailRepo) GetByLogID(ctx context.Context, logID int64) (*entity.SalesDetail, error) {
	return r.getOne(ctx, `SELECT `+detailColumns+` FROM sales_details WHERE log_id = $1`, logID)
}

func (r *SalesDetailRepo) getOne(ctx context.Context, query string, id int64) (*entity.SalesDetail, error) {
	d, err := scanDetail(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sales detail: %w", err)
	}
	return d, nil
}

func (r *SalesDetailRepo) Update(ctx context.Context, d *entity.SalesDetail) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales_details SET sale_id = $2, log_id = $3, product_id = $4, quantity = $5,
			subtotal_cents = $6, note = $7
		WHERE id = $1`,
		d.ID, d.SaleID, d.LogID, d.ProductID, d.Quantity, d.SubtotalCents, d.Note,
	)
	if err != nil {
		return fmt.Errorf("update sales detail: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SalesDetailRepo) ListBySale(ctx context.Context, saleID int64) ([]*entity.SalesDetail, error) {
	rows, err := r.q.Query(ctx, `SELECT `+detailColumns+` FROM sales_details WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sales details: %w", err)
	}
	defer rows.Close()
	var out []*entity.SalesDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sales detail: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SalesDetailRepo) SumBySale(ctx context.Context) (map[int64]int64, error) {
	return queryInt64Map(ctx, r.q, `
		SELECT sale_id, COALESCE(SUM(subtotal_cents), 0)::bigint FROM sales_details GROUP BY sale_id`)
}
