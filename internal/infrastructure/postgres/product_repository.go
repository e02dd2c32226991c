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

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, active, name, price_cents, quantity, description, category_id, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Active, &p.Name, &p.PriceCents, &p.Quantity,
		&p.Description, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto. La cantidad inicia en 0.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO products (sku, active, name, price_cents, description, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, quantity, created_at, updated_at`,
		p.SKU, p.Active, p.Name, p.PriceCents, p.Description, p.CategoryID,
	).Scan(&p.ID, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

func (r *ProductRepo) getOne(ctx context.Context, query string, arg any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List lista productos con filtros opcionales.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var where []string
	var args []any
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.ActiveOnly {
		where = append(where, "active")
	}
	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limitOrAll(f.Limit), f.Offset)
	query += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update actualiza un producto existente. No toca quantity (lo mantiene el libro).
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET sku = $2, active = $3, name = $4, price_cents = $5,
			description = $6, category_id = $7, updated_at = now()
		WHERE id = $1`,
		p.ID, p.SKU, p.Active, p.Name, p.PriceCents, p.Description, p.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustQuantity suma delta en una sola sentencia: el UPDATE toma el bloqueo de fila,
// así que escritores concurrentes sobre el mismo producto se serializan.
func (r *ProductRepo) AdjustQuantity(ctx context.Context, id, delta int64) (int64, error) {
	var q int64
	err := r.q.QueryRow(ctx,
		`UPDATE products SET quantity = quantity + $2 WHERE id = $1 RETURNING quantity`,
		id, delta,
	).Scan(&q)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("adjust quantity: %w", mapError(err))
	}
	return q, nil
}

// SetQuantity solo para conciliación.
func (r *ProductRepo) SetQuantity(ctx context.Context, id, quantity int64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE products SET quantity = $2 WHERE id = $1`, id, quantity)
	if err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Quantities cantidad guardada de cada producto. Bloquea las filas en orden de id
// hasta el fin de la transacción: un alta concurrente de registro queda esperando
// en AdjustQuantity y su fila hija no es visible para la suma posterior.
func (r *ProductRepo) Quantities(ctx context.Context) (map[int64]int64, error) {
	return queryInt64Map(ctx, r.q, `SELECT id, quantity FROM products ORDER BY id FOR UPDATE`)
}

// Lock toma el bloqueo de fila de los productos en orden ascendente de id.
// Los ids inexistentes se ignoran.
func (r *ProductRepo) Lock(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := r.q.Query(ctx, `SELECT id FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return fmt.Errorf("lock products: %w", mapError(err))
	}
	defer rows.Close()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock products: %w", mapError(err))
	}
	return nil
}
