package usecase

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

// UserUseCase administración de usuarios. Siempre queda al menos un admin.
type UserUseCase struct {
	runner
}

// NewUserUseCase construye el caso de uso.
func NewUserUseCase(tx aggregate.TxRunner, log *logger.Logger) *UserUseCase {
	return &UserUseCase{runner: newRunner(tx, nil, log)}
}

// Create hashea la contraseña con bcrypt y persiste. Rol por defecto: read.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if in.Password == "" {
		return nil, domain.NewConstraintViolation("password", "requerido")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := entity.Role(in.Role)
	if role == "" {
		role = entity.RoleRead
	}
	u := &entity.User{Username: in.Username, PasswordHash: string(hash), Role: role}
	if err := ledger.ValidateUser(u); err != nil {
		return nil, err
	}
	_, err = uc.mutate(ctx, "user.create", func(s repository.Store, _ *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		return nil, s.Users.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return ToUserResponse(u), nil
}

func (uc *UserUseCase) Get(ctx context.Context, id int64) (*dto.UserResponse, error) {
	var u *entity.User
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		u, err = s.Users.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return ToUserResponse(u), nil
}

func (uc *UserUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.UserListResponse, error) {
	page.DefaultPage()
	var users []*entity.User
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		users, err = s.Users.List(ctx, page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, *ToUserResponse(u))
	}
	return &dto.UserListResponse{Items: items, Page: pageOf(page)}, nil
}

// Update cambia nombre, contraseña o rol. Quitarle el rol admin al último admin es ErrConflict.
func (uc *UserUseCase) Update(ctx context.Context, id int64, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if in.Username == nil && in.Password == nil && in.Role == nil {
		return nil, domain.ErrNoFieldsToSet
	}
	var hash []byte
	if in.Password != nil {
		if *in.Password == "" {
			return nil, domain.NewConstraintViolation("password", "requerido")
		}
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost); err != nil {
			return nil, err
		}
	}
	var u *entity.User
	_, err := uc.mutate(ctx, "user.update", func(s repository.Store, _ *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		var err error
		if u, err = s.Users.GetByID(ctx, id); err != nil {
			return nil, err
		}
		if u == nil {
			return nil, domain.ErrUserNotFound
		}
		if in.Role != nil && u.Role == entity.RoleAdmin && entity.Role(*in.Role) != entity.RoleAdmin {
			if err := guardLastAdmin(ctx, s); err != nil {
				return nil, err
			}
		}
		if in.Username != nil {
			u.Username = *in.Username
		}
		if in.Role != nil {
			u.Role = entity.Role(*in.Role)
		}
		if hash != nil {
			u.PasswordHash = string(hash)
		}
		if err := ledger.ValidateUser(u); err != nil {
			return nil, err
		}
		return nil, s.Users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return ToUserResponse(u), nil
}

// Delete sus ventas quedan sin vendedor.
func (uc *UserUseCase) Delete(ctx context.Context, id int64) error {
	_, err := uc.mutate(ctx, "user.delete", func(s repository.Store, _ *aggregate.Maintainer, ref *aggregate.Referential) (aggregate.Changes, error) {
		u, err := s.Users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, domain.ErrUserNotFound
		}
		if u.Role == entity.RoleAdmin {
			if err := guardLastAdmin(ctx, s); err != nil {
				return nil, err
			}
		}
		return ref.DeleteParent(ctx, ledger.TableUsers, id)
	})
	return err
}

func guardLastAdmin(ctx context.Context, s repository.Store) error {
	n, err := s.Users.CountByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return err
	}
	if n <= 1 {
		return domain.ErrConflict
	}
	return nil
}

// ToUserResponse nunca expone el hash.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
