package entity

import "time"

// Role nivel de privilegio; orden total deactivated < read < write < admin.
type Role string

// Roles válidos para User.
const (
	RoleDeactivated Role = "deactivated"
	RoleRead        Role = "read"
	RoleWrite       Role = "write"
	RoleAdmin       Role = "admin"
)

// Level devuelve la posición del rol en el orden de privilegio; -1 si no es válido.
func (r Role) Level() int {
	switch r {
	case RoleDeactivated:
		return 0
	case RoleRead:
		return 1
	case RoleWrite:
		return 2
	case RoleAdmin:
		return 3
	}
	return -1
}

// Valid indica si el rol pertenece al dominio.
func (r Role) Valid() bool { return r.Level() >= 0 }

// Allows indica si r alcanza el privilegio requerido. Un usuario desactivado no alcanza ninguno.
func (r Role) Allows(required Role) bool {
	if r == RoleDeactivated || !r.Valid() || !required.Valid() {
		return false
	}
	return r.Level() >= required.Level()
}

// User representa un usuario del sistema.
type User struct {
	ID           int64
	Username     string // único
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
