package aggregate

import (
	"context"
	"fmt"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// Referential aplica ledger.Matrix cuando se borra o cambia de clave una fila padre.
// Trabaja sobre la transacción del llamador; si algo falla el llamador hace Rollback.
type Referential struct {
	store repository.Store
	maint *Maintainer
}

// NewReferential construye el ejecutor sobre repositorios atados a la transacción.
func NewReferential(s repository.Store, maint *Maintainer) *Referential {
	return &Referential{store: s, maint: maint}
}

// aggregateOf agregado que vive en la tabla padre, si lo hay.
func aggregateOf(table ledger.Table) ledger.Aggregate {
	switch table {
	case ledger.TableProducts:
		return ledger.AggregateProductQuantity
	case ledger.TableSales:
		return ledger.AggregateSaleTotal
	}
	return ledger.AggregateNone
}

// DeleteParent borra la fila aplicando la matriz: primero todas las RESTRICT
// (ReferentialError sin escribir nada), luego SET NULL y CASCADE, y por último la fila.
// Devuelve domain.ErrNotFound si la fila no existe.
func (r *Referential) DeleteParent(ctx context.Context, table ledger.Table, id int64) (Changes, error) {
	ok, err := r.store.References.Exists(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	changes, err := r.deleteTree(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if agg := aggregateOf(table); agg != ledger.AggregateNone {
		changes = changes.Without(agg, id)
	}
	return changes, nil
}

func (r *Referential) deleteTree(ctx context.Context, table ledger.Table, id int64) (Changes, error) {
	rels := ledger.ReferencedBy(table)
	for _, rel := range rels {
		if rel.OnDelete != ledger.ActionRestrict {
			continue
		}
		n, err := r.store.References.CountReferencing(ctx, rel, id)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, domain.NewReferentialError(rel.Name(), id,
				fmt.Sprintf("%d fila(s) dependiente(s) impiden el borrado", n))
		}
	}

	var changes Changes
	for _, rel := range rels {
		switch rel.OnDelete {
		case ledger.ActionSetNull:
			c, err := r.setNull(ctx, rel, id)
			if err != nil {
				return nil, err
			}
			changes = append(changes, c...)
		case ledger.ActionCascade:
			// El aporte del hijo a este padre es irrelevante: el padre desaparece.
			if len(ledger.ReferencedBy(rel.Child)) > 0 {
				childIDs, err := r.store.References.ListReferencing(ctx, rel, id)
				if err != nil {
					return nil, err
				}
				for _, childID := range childIDs {
					c, err := r.deleteTree(ctx, rel.Child, childID)
					if err != nil {
						return nil, err
					}
					changes = append(changes, c...)
				}
				continue
			}
			if _, err := r.store.References.DeleteReferencing(ctx, rel, id); err != nil {
				return nil, err
			}
		}
	}

	if _, err := r.store.References.DeleteRow(ctx, table, id); err != nil {
		return nil, err
	}
	return changes, nil
}

// setNull limpia la clave foránea. Si el hijo aporta a un agregado del padre, cada
// fila pasa por el mantenedor como una baja en el mismo paso.
func (r *Referential) setNull(ctx context.Context, rel ledger.Relationship, parentID int64) (Changes, error) {
	switch rel.Aggregate {
	case ledger.AggregateNone:
		_, err := r.store.References.ClearReferences(ctx, rel, parentID)
		return nil, err
	case ledger.AggregateProductQuantity:
		childIDs, err := r.store.References.ListReferencing(ctx, rel, parentID)
		if err != nil {
			return nil, err
		}
		var changes Changes
		for _, childID := range childIDs {
			old, err := r.store.Logs.GetForUpdate(ctx, childID)
			if err != nil {
				return nil, err
			}
			if old == nil {
				continue
			}
			detached := *old
			detached.ProductID = nil
			c, err := r.maint.OnInventoryLogUpdate(ctx, old, &detached)
			if err != nil {
				return nil, err
			}
			if err := r.store.Logs.Update(ctx, &detached); err != nil {
				return nil, err
			}
			changes = append(changes, c...)
		}
		return changes, nil
	}
	return nil, fmt.Errorf("referential: %s no admite SET NULL", rel.Name())
}

// ChangeKey propaga el cambio de clave a todos los hijos (CASCADE) y reescribe la del padre.
// Los agregados no cambian: los aportes viajan con la clave.
func (r *Referential) ChangeKey(ctx context.Context, table ledger.Table, oldID, newID int64) error {
	if oldID == newID {
		return nil
	}
	if newID <= 0 {
		return domain.NewConstraintViolation("id", "debe ser positivo")
	}
	ok, err := r.store.References.Exists(ctx, table, oldID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	taken, err := r.store.References.Exists(ctx, table, newID)
	if err != nil {
		return err
	}
	if taken {
		return domain.NewConstraintViolation("id", "la clave ya está en uso")
	}
	for _, rel := range ledger.ReferencedBy(table) {
		if rel.OnUpdate != ledger.ActionCascade {
			return domain.NewReferentialError(rel.Name(), oldID, "la relación no propaga cambios de clave")
		}
		if _, err := r.store.References.Repoint(ctx, rel, oldID, newID); err != nil {
			return err
		}
	}
	return r.store.References.ChangeKey(ctx, table, oldID, newID)
}
