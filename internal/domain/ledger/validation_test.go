package ledger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
)

func violatedField(t *testing.T, err error) string {
	t.Helper()
	var cv *domain.ConstraintViolation
	require.True(t, errors.As(err, &cv), "se esperaba ConstraintViolation, llegó %v", err)
	return cv.Field
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ledger.ValidEmail("ana@tienda.co"))
	assert.True(t, ledger.ValidEmail("a.b@mail.example.com"))
	assert.False(t, ledger.ValidEmail("ana@tienda"))
	assert.False(t, ledger.ValidEmail("ana tienda.co"))
	assert.False(t, ledger.ValidEmail("@tienda.co"))
	assert.False(t, ledger.ValidEmail("ana@.co"))
}

func TestNormalizeKey_NFC(t *testing.T) {
	decomposed := "jose\u0301"
	assert.Equal(t, "jos\u00e9", ledger.NormalizeKey("  "+decomposed+" "))
}

func TestValidateUser(t *testing.T) {
	u := &entity.User{Username: " admin ", Role: entity.RoleAdmin, PasswordHash: "x"}
	require.NoError(t, ledger.ValidateUser(u))
	assert.Equal(t, "admin", u.Username)

	u = &entity.User{Username: "ana", Role: "root", PasswordHash: "x"}
	assert.Equal(t, "role", violatedField(t, ledger.ValidateUser(u)))
}

func TestValidateCustomer_Email(t *testing.T) {
	c := &entity.Customer{Name: "Ana", Email: "no-es-email"}
	assert.Equal(t, "email", violatedField(t, ledger.ValidateCustomer(c)))

	c = &entity.Customer{Name: "Ana"}
	assert.NoError(t, ledger.ValidateCustomer(c))
}

func TestValidateProduct_PrecioPositivo(t *testing.T) {
	p := &entity.Product{SKU: "A-1", Name: "Tornillo", PriceCents: 0}
	assert.Equal(t, "price_cents", violatedField(t, ledger.ValidateProduct(p)))

	p.PriceCents = 150
	assert.NoError(t, ledger.ValidateProduct(p))
}

func TestValidateInventoryLog_TipoYStockNegativo(t *testing.T) {
	l := &entity.InventoryLog{Type: "theft", Delta: 1}
	assert.Equal(t, "type", violatedField(t, ledger.ValidateInventoryLog(l)))

	// Un delta que deja stock negativo no es una restricción.
	l = &entity.InventoryLog{Type: entity.LogTypeSale, Delta: -1000}
	assert.NoError(t, ledger.ValidateInventoryLog(l))
}

func TestValidateSalesDetail(t *testing.T) {
	pid := int64(1)
	assert.Equal(t, "subtotal_cents",
		violatedField(t, ledger.ValidateSalesDetail(&entity.SalesDetail{SubtotalCents: 0})))
	assert.Equal(t, "quantity",
		violatedField(t, ledger.ValidateSalesDetail(&entity.SalesDetail{SubtotalCents: 10, ProductID: &pid})))
	assert.NoError(t, ledger.ValidateSalesDetail(&entity.SalesDetail{SubtotalCents: 10}))
}
