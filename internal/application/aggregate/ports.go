package aggregate

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil, Rollback en cualquier otro caso: la fila hija y su agregado
// se confirman juntos o no se confirman.
type TxRunner interface {
	Run(ctx context.Context, fn func(s repository.Store) error) error
}
