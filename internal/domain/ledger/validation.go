package ledger

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

const (
	maxKeyLen  = 100
	maxNameLen = 200
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s.]+(\.[^@\s.]+)+$`)

// NormalizeKey recorta y lleva a NFC una clave única, para que "é" compuesta y
// descompuesta no pasen como dos usuarios o SKUs distintos.
func NormalizeKey(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ValidEmail indica si s tiene forma local@dominio.tld.
func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

// ValidateUser normaliza Username y valida dominio de rol y hash.
func ValidateUser(u *entity.User) error {
	u.Username = NormalizeKey(u.Username)
	if u.Username == "" {
		return domain.NewConstraintViolation("username", "requerido")
	}
	if len(u.Username) > maxKeyLen {
		return domain.NewConstraintViolation("username", "demasiado largo")
	}
	if !u.Role.Valid() {
		return domain.NewConstraintViolation("role", "debe ser deactivated, read, write o admin")
	}
	if u.PasswordHash == "" {
		return domain.NewConstraintViolation("password", "requerido")
	}
	return nil
}

// ValidateCustomer nombre requerido y email con forma válida si viene.
func ValidateCustomer(c *entity.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" {
		return domain.NewConstraintViolation("name", "requerido")
	}
	if len(c.Name) > maxNameLen {
		return domain.NewConstraintViolation("name", "demasiado largo")
	}
	if c.Email != "" && !ValidEmail(c.Email) {
		return domain.NewConstraintViolation("email", "formato inválido")
	}
	return nil
}

// ValidateCategory normaliza Name (único).
func ValidateCategory(c *entity.Category) error {
	c.Name = NormalizeKey(c.Name)
	if c.Name == "" {
		return domain.NewConstraintViolation("name", "requerido")
	}
	if len(c.Name) > maxKeyLen {
		return domain.NewConstraintViolation("name", "demasiado largo")
	}
	return nil
}

// ValidateProduct normaliza SKU; precio estrictamente positivo.
func ValidateProduct(p *entity.Product) error {
	p.SKU = NormalizeKey(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	if p.SKU == "" {
		return domain.NewConstraintViolation("sku", "requerido")
	}
	if len(p.SKU) > maxKeyLen {
		return domain.NewConstraintViolation("sku", "demasiado largo")
	}
	if p.Name == "" {
		return domain.NewConstraintViolation("name", "requerido")
	}
	if p.PriceCents <= 0 {
		return domain.NewConstraintViolation("price_cents", "debe ser mayor que cero")
	}
	return nil
}

// ValidateInventoryLog solo el dominio del tipo: el stock negativo se permite.
func ValidateInventoryLog(l *entity.InventoryLog) error {
	if !l.Type.Valid() {
		return domain.NewConstraintViolation("type", "tipo de registro desconocido")
	}
	return nil
}

// ValidateSalesDetail subtotal positivo; una línea con producto exige cantidad positiva.
func ValidateSalesDetail(d *entity.SalesDetail) error {
	if d.SubtotalCents <= 0 {
		return domain.NewConstraintViolation("subtotal_cents", "debe ser mayor que cero")
	}
	if d.Quantity < 0 {
		return domain.NewConstraintViolation("quantity", "no puede ser negativa")
	}
	if d.ProductID != nil && d.Quantity == 0 {
		return domain.NewConstraintViolation("quantity", "requerida en líneas con producto")
	}
	return nil
}
