package usecase

import (
	"context"
	"errors"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

// mutation trabajo transaccional que devuelve los agregados tocados.
type mutation func(s repository.Store, m *aggregate.Maintainer, ref *aggregate.Referential) (aggregate.Changes, error)

// runner base común: transacción, mantenedor y referencial por transacción, registro y
// publicación de cambios tras confirmar.
type runner struct {
	tx     aggregate.TxRunner
	events ChangePublisher
	log    *logger.Logger
}

func newRunner(tx aggregate.TxRunner, events ChangePublisher, log *logger.Logger) runner {
	if log == nil {
		log = logger.Nop()
	}
	return runner{tx: tx, events: events, log: log}
}

// read transacción sin agregados.
func (r runner) read(ctx context.Context, fn func(s repository.Store) error) error {
	return r.tx.Run(ctx, fn)
}

func (r runner) mutate(ctx context.Context, op string, fn mutation) (aggregate.Changes, error) {
	var changes aggregate.Changes
	err := r.tx.Run(ctx, func(s repository.Store) error {
		m := aggregate.NewMaintainer(s)
		var err error
		changes, err = fn(s, m, aggregate.NewReferential(s, m))
		return err
	})
	if err != nil {
		if isClientError(err) {
			r.log.Debug().Err(err).Str("op", op).Msg("transacción revertida")
			return nil, err
		}
		r.log.Error().Err(err).Str("op", op).Msg("transacción revertida")
		return nil, err
	}
	for _, c := range changes {
		r.log.Debug().Str("op", op).Str("aggregate", string(c.Aggregate)).
			Int64("id", c.ID).Int64("value", c.Value).Msg("agregado ajustado")
		if c.Aggregate == ledger.AggregateProductQuantity && c.Value < 0 {
			r.log.Warn().Int64("product_id", c.ID).Int64("quantity", c.Value).Msg("stock negativo")
		}
	}
	if r.events != nil && len(changes) > 0 {
		if err := r.events.Publish(ctx, op, changes); err != nil {
			r.log.Warn().Err(err).Str("op", op).Msg("no se pudo publicar el cambio de agregados")
		}
	}
	return changes, nil
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrConstraintViolation) ||
		errors.Is(err, domain.ErrReferential) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrNoFieldsToSet) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrTransient)
}

// deleteLog baja de un registro: primero su aporte, luego la fila (y la matriz).
// Un registro que ya no existe no es error.
func deleteLog(ctx context.Context, s repository.Store, m *aggregate.Maintainer, ref *aggregate.Referential, id int64) (aggregate.Changes, error) {
	old, err := s.Logs.GetForUpdate(ctx, id)
	if err != nil || old == nil {
		return nil, err
	}
	changes, err := m.OnInventoryLogDelete(ctx, old)
	if err != nil {
		return nil, err
	}
	more, err := ref.DeleteParent(ctx, ledger.TableInventoryLogs, id)
	if err != nil {
		return nil, err
	}
	return append(changes, more...), nil
}

// toAggregateValues último valor por agregado, en orden de primera aparición.
func toAggregateValues(changes aggregate.Changes) []dto.AggregateValue {
	out := make([]dto.AggregateValue, 0, len(changes))
	index := map[aggregate.Value]int{}
	for _, c := range changes {
		key := aggregate.Value{Aggregate: c.Aggregate, ID: c.ID}
		if i, ok := index[key]; ok {
			out[i].Value = c.Value
			continue
		}
		index[key] = len(out)
		out = append(out, dto.AggregateValue{Aggregate: string(c.Aggregate), ID: c.ID, Value: c.Value})
	}
	return out
}

func pageOf(p dto.PageRequest) dto.PageResponse {
	return dto.PageResponse{Limit: p.Limit, Offset: p.Offset}
}
