package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrUserNotFound  = errors.New("usuario no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrRoleRevoked   = errors.New("autorización revocada")
	ErrNoFieldsToSet = errors.New("no hay campos válidos para actualizar")
	// ErrTransient la transacción perdió frente a otra concurrente; reintentar es seguro.
	ErrTransient = errors.New("conflicto de concurrencia, reintente")

	// Categorías de los errores tipados; usar errors.Is contra estas.
	ErrConstraintViolation = errors.New("violación de restricción")
	ErrReferential         = errors.New("error referencial")
	ErrAggregateDrift      = errors.New("desviación de agregado detectada")
)

// ConstraintViolation unicidad, dominio de enumeración o patrón incumplido.
// Field nombra la columna violada para que el cliente pueda señalarla.
type ConstraintViolation struct {
	Field  string
	Reason string
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("restricción violada en %q: %s", e.Field, e.Reason)
}

func (e *ConstraintViolation) Is(target error) bool { return target == ErrConstraintViolation }

// NewConstraintViolation atajo para construir la violación.
func NewConstraintViolation(field, reason string) error {
	return &ConstraintViolation{Field: field, Reason: reason}
}

// ReferentialError clave foránea inexistente o regla RESTRICT incumplida.
type ReferentialError struct {
	Relation string // p. ej. "inventory_logs.product_id"
	ID       int64  // id del padre implicado
	Reason   string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("referencia %s=%d: %s", e.Relation, e.ID, e.Reason)
}

func (e *ReferentialError) Is(target error) bool { return target == ErrReferential }

// NewReferentialError atajo para construir el error referencial.
func NewReferentialError(relation string, id int64, reason string) error {
	return &ReferentialError{Relation: relation, ID: id, Reason: reason}
}

// AggregateDriftDetected solo lo emite la conciliación: el valor guardado
// no coincide con la suma de sus dependientes.
type AggregateDriftDetected struct {
	Aggregate string // "products.quantity" | "sales.total_cents"
	ID        int64
	Stored    int64
	Expected  int64
}

func (e *AggregateDriftDetected) Error() string {
	return fmt.Sprintf("%s de %d: guardado %d, esperado %d", e.Aggregate, e.ID, e.Stored, e.Expected)
}

func (e *AggregateDriftDetected) Is(target error) bool { return target == ErrAggregateDrift }
