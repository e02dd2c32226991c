package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.ReferenceRepository = (*ReferenceRepo)(nil)

// ReferenceRepo operaciones genéricas sobre las FK de la matriz. Tablas y columnas salen
// de ledger.Matrix, nunca de la entrada del cliente; igual se citan con pgx.Identifier.
type ReferenceRepo struct {
	q Querier
}

// NewReferenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReferenceRepository(q Querier) *ReferenceRepo {
	return &ReferenceRepo{q: q}
}

func table(t ledger.Table) (string, error) {
	if _, ok := ledger.ParseTable(string(t)); !ok {
		return "", fmt.Errorf("tabla desconocida %q", t)
	}
	return pgx.Identifier{string(t)}.Sanitize(), nil
}

func relation(rel ledger.Relationship) (child, column string, err error) {
	known, ok := ledger.Lookup(rel.Child, rel.Column)
	if !ok || known.Parent != rel.Parent {
		return "", "", fmt.Errorf("relación desconocida %s", rel.Name())
	}
	return pgx.Identifier{string(rel.Child)}.Sanitize(), pgx.Identifier{rel.Column}.Sanitize(), nil
}

func (r *ReferenceRepo) Exists(ctx context.Context, t ledger.Table, id int64) (bool, error) {
	name, err := table(t)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+name+` WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists %s: %w", t, err)
	}
	return ok, nil
}

func (r *ReferenceRepo) DeleteRow(ctx context.Context, t ledger.Table, id int64) (bool, error) {
	name, err := table(t)
	if err != nil {
		return false, err
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM `+name+` WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", t, mapError(err))
	}
	return cmd.RowsAffected() > 0, nil
}

// ChangeKey reescribe la clave y avanza la secuencia si la nueva la supera.
func (r *ReferenceRepo) ChangeKey(ctx context.Context, t ledger.Table, oldID, newID int64) error {
	name, err := table(t)
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, `UPDATE `+name+` SET id = $2 WHERE id = $1`, oldID, newID); err != nil {
		return fmt.Errorf("change key %s: %w", t, mapError(err))
	}
	_, err = r.q.Exec(ctx, `
		SELECT setval(pg_get_serial_sequence($1, 'id'), GREATEST((SELECT COALESCE(MAX(id), 1) FROM `+name+`), 1))`,
		string(t))
	if err != nil {
		return fmt.Errorf("setval %s: %w", t, err)
	}
	return nil
}

func (r *ReferenceRepo) CountReferencing(ctx context.Context, rel ledger.Relationship, parentID int64) (int64, error) {
	child, col, err := relation(rel)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM `+child+` WHERE `+col+` = $1`, parentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", rel.Name(), err)
	}
	return n, nil
}

// ListReferencing ids de los hijos, bloqueados hasta el fin de la transacción.
func (r *ReferenceRepo) ListReferencing(ctx context.Context, rel ledger.Relationship, parentID int64) ([]int64, error) {
	child, col, err := relation(rel)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, `SELECT id FROM `+child+` WHERE `+col+` = $1 ORDER BY id FOR UPDATE`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", rel.Name(), err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", rel.Name(), err)
	}
	return ids, nil
}

func (r *ReferenceRepo) Repoint(ctx context.Context, rel ledger.Relationship, oldParentID, newParentID int64) (int64, error) {
	return r.exec(ctx, rel, `UPDATE %s SET %s = $2 WHERE %[2]s = $1`, oldParentID, newParentID)
}

func (r *ReferenceRepo) ClearReferences(ctx context.Context, rel ledger.Relationship, parentID int64) (int64, error) {
	return r.exec(ctx, rel, `UPDATE %s SET %s = NULL WHERE %[2]s = $1`, parentID)
}

func (r *ReferenceRepo) DeleteReferencing(ctx context.Context, rel ledger.Relationship, parentID int64) (int64, error) {
	return r.exec(ctx, rel, `DELETE FROM %s WHERE %s = $1`, parentID)
}

func (r *ReferenceRepo) exec(ctx context.Context, rel ledger.Relationship, format string, args ...any) (int64, error) {
	child, col, err := relation(rel)
	if err != nil {
		return 0, err
	}
	cmd, err := r.q.Exec(ctx, fmt.Sprintf(format, child, col), args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", rel.Name(), mapError(err))
	}
	return cmd.RowsAffected(), nil
}
