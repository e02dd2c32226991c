// Package money convierte centavos enteros a y desde texto decimal. Solo para
// presentación e importación: los agregados nunca pasan por aquí.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Decimal centavos → unidades (1234 → 12.34).
func Decimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format centavos con dos decimales.
func Format(cents int64) string {
	return Decimal(cents).StringFixed(2)
}

// ParseCents "12.5" → 1250. Acepta coma decimal. Rechaza más de dos decimales.
func ParseCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("money: %q no es un importe: %w", s, err)
	}
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("money: %q tiene más de dos decimales", s)
	}
	if cents.Abs().GreaterThan(decimal.NewFromInt(1 << 62)) {
		return 0, fmt.Errorf("money: %q fuera de rango", s)
	}
	return cents.IntPart(), nil
}
