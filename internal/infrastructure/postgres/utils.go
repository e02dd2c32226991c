package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/ledger-api/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeNumericOutOfRange   = "22003"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
)

// constraintFields nombre de restricción → campo que se reporta al cliente.
var constraintFields = map[string]string{
	"users_username_key":           "username",
	"categories_name_key":          "name",
	"products_sku_key":             "sku",
	"sales_details_log_id_key":     "log_id",
	"users_role_check":             "role",
	"inventory_logs_type_check":    "type",
	"customers_email_check":        "email",
	"products_price_cents_check":   "price_cents",
	"sales_details_subtotal_check": "subtotal_cents",
	"sales_details_quantity_check": "quantity",
}

// mapError traduce errores de PostgreSQL a los errores tipados del dominio.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeCheckViolation:
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = fieldFromConstraint(pgErr.TableName, pgErr.ConstraintName)
		}
		return domain.NewConstraintViolation(field, pgErr.Message)
	case codeNotNullViolation:
		return domain.NewConstraintViolation(pgErr.ColumnName, "no puede ser nulo")
	case codeNumericOutOfRange:
		return domain.NewConstraintViolation("amount", "desbordamiento de entero")
	case codeForeignKeyViolation:
		rel := strings.TrimSuffix(pgErr.ConstraintName, "_fkey")
		if pgErr.TableName != "" && strings.HasPrefix(rel, pgErr.TableName+"_") {
			rel = pgErr.TableName + "." + strings.TrimPrefix(rel, pgErr.TableName+"_")
		}
		return domain.NewReferentialError(rel, 0, pgErr.Detail)
	case codeSerialization, codeDeadlock:
		return fmt.Errorf("%w: %s", domain.ErrTransient, pgErr.Message)
	}
	return err
}

// fieldFromConstraint "products_sku_key" → "sku".
func fieldFromConstraint(table, constraint string) string {
	name := strings.TrimPrefix(constraint, table+"_")
	for _, suffix := range []string{"_key", "_check", "_idx"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// limitOrAll LIMIT NULL equivale a sin límite.
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

// queryInt64Map lee pares (id, valor).
func queryInt64Map(ctx context.Context, q Querier, query string) (map[int64]int64, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]int64{}
	for rows.Next() {
		var id, v int64
		if err := rows.Scan(&id, &v); err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, rows.Err()
}
