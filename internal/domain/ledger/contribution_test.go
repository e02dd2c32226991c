package ledger_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
)

func id(v int64) *int64 { return &v }

func TestPlanInsert_SinPadreNoAporta(t *testing.T) {
	assert.Empty(t, ledger.PlanInsert(ledger.Contribution{ParentID: nil, Amount: 10}))
	assert.Empty(t, ledger.PlanInsert(ledger.Contribution{ParentID: id(1), Amount: 0}))
	assert.Equal(t, []ledger.Adjustment{{ParentID: 1, Delta: -3}},
		ledger.PlanInsert(ledger.Contribution{ParentID: id(1), Amount: -3}))
}

func TestPlanDelete_RestaElAporte(t *testing.T) {
	adj, err := ledger.PlanDelete(ledger.Contribution{ParentID: id(7), Amount: 50})
	require.NoError(t, err)
	assert.Equal(t, []ledger.Adjustment{{ParentID: 7, Delta: -50}}, adj)
}

func TestPlanUpdate_MismoPadreAplicaDiferencia(t *testing.T) {
	adj, err := ledger.PlanUpdate(
		ledger.Contribution{ParentID: id(1), Amount: 10},
		ledger.Contribution{ParentID: id(1), Amount: 4},
	)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Adjustment{{ParentID: 1, Delta: -6}}, adj)
}

func TestPlanUpdate_ValoresIdenticosNoAjustan(t *testing.T) {
	adj, err := ledger.PlanUpdate(
		ledger.Contribution{ParentID: id(1), Amount: 10},
		ledger.Contribution{ParentID: id(1), Amount: 10},
	)
	require.NoError(t, err)
	assert.Empty(t, adj)
}

func TestPlanUpdate_CambioDePadreMueveElAporte(t *testing.T) {
	adj, err := ledger.PlanUpdate(
		ledger.Contribution{ParentID: id(1), Amount: 10},
		ledger.Contribution{ParentID: id(2), Amount: 12},
	)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Adjustment{{ParentID: 1, Delta: -10}, {ParentID: 2, Delta: 12}}, adj)
}

func TestPlanUpdate_PadreANuloEsUnaBaja(t *testing.T) {
	adj, err := ledger.PlanUpdate(
		ledger.Contribution{ParentID: id(3), Amount: -4},
		ledger.Contribution{ParentID: nil, Amount: -4},
	)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Adjustment{{ParentID: 3, Delta: 4}}, adj)
}

func TestCheckedAdd_Desbordamiento(t *testing.T) {
	_, err := ledger.CheckedAdd(math.MaxInt64, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConstraintViolation))

	_, err = ledger.CheckedAdd(math.MinInt64, -1)
	require.Error(t, err)

	v, err := ledger.CheckedAdd(-5, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v)
}

func TestPlanUpdate_MinInt64Rechazado(t *testing.T) {
	_, err := ledger.PlanUpdate(
		ledger.Contribution{ParentID: id(1), Amount: math.MinInt64},
		ledger.Contribution{ParentID: id(1), Amount: 0},
	)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestContributions(t *testing.T) {
	log := &entity.InventoryLog{ProductID: id(9), Delta: -2}
	assert.Equal(t, ledger.Contribution{ParentID: id(9), Amount: -2}, ledger.LogContribution(log))

	det := &entity.SalesDetail{SaleID: 4, SubtotalCents: 1500}
	c := ledger.DetailContribution(det)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, int64(4), *c.ParentID)
	assert.Equal(t, int64(1500), c.Amount)
}
