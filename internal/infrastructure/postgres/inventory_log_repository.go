package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.InventoryLogRepository = (*InventoryLogRepo)(nil)

const logColumns = `id, type, product_id, delta, time, note`

// InventoryLogRepo registros de inventario sobre PostgreSQL (usable con pool o tx).
type InventoryLogRepo struct {
	q Querier
}

// NewInventoryLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryLogRepository(q Querier) *InventoryLogRepo {
	return &InventoryLogRepo{q: q}
}

func scanLog(row pgx.Row) (*entity.InventoryLog, error) {
	var l entity.InventoryLog
	var typ string
	if err := row.Scan(&l.ID, &typ, &l.ProductID, &l.Delta, &l.Time, &l.Note); err != nil {
		return nil, err
	}
	l.Type = entity.LogType(typ)
	return &l, nil
}

// Create inserta el registro; si Time es cero usa now().
func (r *InventoryLogRepo) Create(ctx context.Context, l *entity.InventoryLog) error {
	var at any
	if !l.Time.IsZero() {
		at = l.Time
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO inventory_logs (type, product_id, delta, time, note)
		VALUES ($1, $2, $3, COALESCE($4::timestamptz, now()), $5)
		RETURNING id, time`,
		string(l.Type), l.ProductID, l.Delta, at, l.Note,
	).Scan(&l.ID, &l.Time)
	if err != nil {
		return fmt.Errorf("insert inventory log: %w", mapError(err))
	}
	return nil
}

func (r *InventoryLogRepo) GetByID(ctx context.Context, id int64) (*entity.InventoryLog, error) {
	return r.getOne(ctx, `SELECT `+logColumns+` FROM inventory_logs WHERE id = $1`, id)
}

// GetForUpdate lee la imagen previa y bloquea la fila hasta el fin de la transacción.
func (r *InventoryLogRepo) GetForUpdate(ctx context.Context, id int64) (*entity.InventoryLog, error) {
	return r.getOne(ctx, `SELECT `+logColumns+` FROM inventory_logs WHERE id = $1 FOR UPDATE`, id)
}

func (r *InventoryLogRepo) getOne(ctx context.Context, query string, id int64) (*entity.InventoryLog, error) {
	l, err := scanLog(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory log: %w", err)
	}
	return l, nil
}

func (r *InventoryLogRepo) Update(ctx context.Context, l *entity.InventoryLog) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_logs SET type = $2, product_id = $3, delta = $4, time = $5, note = $6
		WHERE id = $1`,
		l.ID, string(l.Type), l.ProductID, l.Delta, l.Time, l.Note,
	)
	if err != nil {
		return fmt.Errorf("update inventory log: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List más recientes primero; rango de tiempo semiabierto [From, To).
func (r *InventoryLogRepo) List(ctx context.Context, f repository.LogFilter) ([]*entity.InventoryLog, error) {
	var where []string
	var args []any
	if f.ProductID != nil {
		args = append(args, *f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("time >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("time < $%d", len(args)))
	}
	query := `SELECT ` + logColumns + ` FROM inventory_logs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limitOrAll(f.Limit), f.Offset)
	query += fmt.Sprintf(` ORDER BY time DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory logs: %w", err)
	}
	defer rows.Close()
	var out []*entity.InventoryLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *InventoryLogRepo) SumByProduct(ctx context.Context) (map[int64]int64, error) {
	return queryInt64Map(ctx, r.q, `
		SELECT product_id, COALESCE(SUM(delta), 0)::bigint
		FROM inventory_logs WHERE product_id IS NOT NULL GROUP BY product_id`)
}
