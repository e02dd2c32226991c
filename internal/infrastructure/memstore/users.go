package memstore

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
)

type userRepo struct{ v *view }

func usernameTaken(st *state, username string, except int64) bool {
	for id, u := range st.users {
		if id != except && u.Username == username {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, user *entity.User) error {
	return r.v.do(func(st *state) error {
		if usernameTaken(st, user.Username, 0) {
			return domain.NewConstraintViolation("username", "ya existe")
		}
		user.ID = st.nextID(ledger.TableUsers)
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now()
		}
		user.UpdatedAt = user.CreatedAt
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	var out *entity.User
	err := r.v.do(func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	var out *entity.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.Username == username {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	err := r.v.do(func(st *state) error {
		for _, id := range page(sortedKeys(st.users), limit, offset) {
			u := st.users[id]
			out = append(out, &u)
		}
		return nil
	})
	return out, err
}

func (r *userRepo) Update(_ context.Context, user *entity.User) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.users[user.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if usernameTaken(st, user.Username, user.ID) {
			return domain.NewConstraintViolation("username", "ya existe")
		}
		cur.Username = user.Username
		cur.PasswordHash = user.PasswordHash
		cur.Role = user.Role
		cur.UpdatedAt = time.Now()
		st.users[user.ID] = cur
		return nil
	})
}

func (r *userRepo) CountByRole(_ context.Context, role entity.Role) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.Role == role {
				n++
			}
		}
		return nil
	})
	return n, err
}
