package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/ledger"
)

// ReferenceRepository operaciones genéricas sobre claves foráneas, dirigidas por una
// relación de la matriz (ledger.Matrix). Las aplica el ejecutor referencial en código
// de aplicación, no el motor de base de datos.
type ReferenceRepository interface {
	Exists(ctx context.Context, table ledger.Table, id int64) (bool, error)
	// DeleteRow borra la fila; false si no existía.
	DeleteRow(ctx context.Context, table ledger.Table, id int64) (bool, error)
	// ChangeKey reescribe la clave primaria de la fila.
	ChangeKey(ctx context.Context, table ledger.Table, oldID, newID int64) error

	CountReferencing(ctx context.Context, rel ledger.Relationship, parentID int64) (int64, error)
	ListReferencing(ctx context.Context, rel ledger.Relationship, parentID int64) ([]int64, error)
	Repoint(ctx context.Context, rel ledger.Relationship, oldParentID, newParentID int64) (int64, error)
	ClearReferences(ctx context.Context, rel ledger.Relationship, parentID int64) (int64, error)
	DeleteReferencing(ctx context.Context, rel ledger.Relationship, parentID int64) (int64, error)
}
