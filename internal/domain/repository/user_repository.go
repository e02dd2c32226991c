package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Get* devuelven (nil, nil) si no existe.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// CountByRole bloquea las filas contadas hasta el fin de la transacción.
	CountByRole(ctx context.Context, role entity.Role) (int64, error)
}
