package usecase

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

// AdminUseCase cambio de claves y conciliación de agregados.
type AdminUseCase struct {
	runner
	reconciler *aggregate.Reconciler
}

func NewAdminUseCase(tx aggregate.TxRunner, log *logger.Logger) *AdminUseCase {
	return &AdminUseCase{runner: newRunner(tx, nil, log), reconciler: aggregate.NewReconciler(tx)}
}

// Rekey cambia la clave primaria de una fila y arrastra a sus hijos.
func (uc *AdminUseCase) Rekey(ctx context.Context, in dto.RekeyRequest) error {
	table, ok := ledger.ParseTable(in.Table)
	if !ok {
		return domain.NewConstraintViolation("table", "tabla desconocida")
	}
	_, err := uc.mutate(ctx, "admin.rekey", func(_ repository.Store, _ *aggregate.Maintainer, ref *aggregate.Referential) (aggregate.Changes, error) {
		return nil, ref.ChangeKey(ctx, table, in.OldID, in.NewID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("table", in.Table).Int64("old_id", in.OldID).Int64("new_id", in.NewID).Msg("clave cambiada")
	return nil
}

// Reconcile compara cada agregado con la suma de sus dependientes; con repair los reescribe.
func (uc *AdminUseCase) Reconcile(ctx context.Context, repair bool) (*dto.ReconcileResponse, error) {
	check := uc.reconciler.Check
	if repair {
		check = uc.reconciler.Repair
	}
	drifts, err := check(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ReconcileResponse{Repaired: repair, Drifts: make([]dto.DriftResponse, 0, len(drifts))}
	for _, d := range drifts {
		uc.log.Warn().Err(&d).Msg("desviación de agregado")
		out.Drifts = append(out.Drifts, dto.DriftResponse{
			Aggregate: d.Aggregate, ID: d.ID, Stored: d.Stored, Expected: d.Expected,
		})
	}
	return out, nil
}
