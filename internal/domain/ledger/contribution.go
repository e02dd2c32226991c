// Package ledger contiene las reglas puras del libro de inventario: cómo contribuye cada
// fila dependiente a su agregado, la matriz de acciones referenciales y el validador de
// restricciones. No conoce la persistencia.
package ledger

import (
	"math"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// Contribution aporte firmado de una fila hija a su padre. ParentID nulo = no aporta.
type Contribution struct {
	ParentID *int64
	Amount   int64
}

// Adjustment delta a aplicar sobre el agregado de un padre.
type Adjustment struct {
	ParentID int64
	Delta    int64
}

// LogContribution aporte de un InventoryLog a Product.quantity.
func LogContribution(l *entity.InventoryLog) Contribution {
	return Contribution{ParentID: l.ProductID, Amount: l.Delta}
}

// DetailContribution aporte de un SalesDetail a Sale.total_cents.
func DetailContribution(d *entity.SalesDetail) Contribution {
	saleID := d.SaleID
	return Contribution{ParentID: &saleID, Amount: d.SubtotalCents}
}

// PlanInsert suma el aporte al padre.
func PlanInsert(c Contribution) []Adjustment {
	if c.ParentID == nil || c.Amount == 0 {
		return nil
	}
	return []Adjustment{{ParentID: *c.ParentID, Delta: c.Amount}}
}

// PlanDelete resta el aporte del padre.
func PlanDelete(c Contribution) ([]Adjustment, error) {
	if c.ParentID == nil || c.Amount == 0 {
		return nil, nil
	}
	neg, err := CheckedNeg(c.Amount)
	if err != nil {
		return nil, err
	}
	return []Adjustment{{ParentID: *c.ParentID, Delta: neg}}, nil
}

// PlanUpdate con el mismo padre aplica new-old (nada si es cero); si el padre cambió,
// resta lo viejo del padre viejo y suma lo nuevo al padre nuevo.
func PlanUpdate(old, new Contribution) ([]Adjustment, error) {
	if sameParent(old.ParentID, new.ParentID) {
		if old.ParentID == nil {
			return nil, nil
		}
		negOld, err := CheckedNeg(old.Amount)
		if err != nil {
			return nil, err
		}
		diff, err := CheckedAdd(new.Amount, negOld)
		if err != nil {
			return nil, err
		}
		if diff == 0 {
			return nil, nil
		}
		return []Adjustment{{ParentID: *new.ParentID, Delta: diff}}, nil
	}
	out, err := PlanDelete(old)
	if err != nil {
		return nil, err
	}
	return append(out, PlanInsert(new)...), nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CheckedAdd suma enteros rechazando el desbordamiento de int64.
func CheckedAdd(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, overflow()
	}
	return a + b, nil
}

// CheckedNeg niega rechazando math.MinInt64.
func CheckedNeg(a int64) (int64, error) {
	if a == math.MinInt64 {
		return 0, overflow()
	}
	return -a, nil
}

func overflow() error {
	return domain.NewConstraintViolation("amount", "desbordamiento de entero")
}
