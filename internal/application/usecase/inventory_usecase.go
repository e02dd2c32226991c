package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

// InventoryUseCase registros de inventario. Cada escritura ajusta products.quantity
// en la misma transacción.
type InventoryUseCase struct {
	runner
}

// NewInventoryUseCase construye el caso de uso.
func NewInventoryUseCase(tx aggregate.TxRunner, events ChangePublisher, log *logger.Logger) *InventoryUseCase {
	return &InventoryUseCase{runner: newRunner(tx, events, log)}
}

// Record inserta un registro y suma su delta al producto.
func (uc *InventoryUseCase) Record(ctx context.Context, in dto.CreateLogRequest) (*dto.LogMutationResponse, error) {
	log := &entity.InventoryLog{
		Type:      entity.LogType(in.Type),
		ProductID: in.ProductID,
		Delta:     in.Delta,
		Note:      in.Note,
	}
	if in.Time != nil {
		log.Time = *in.Time
	}
	if err := ledger.ValidateInventoryLog(log); err != nil {
		return nil, err
	}
	changes, err := uc.mutate(ctx, "inventory.record", func(s repository.Store, m *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		if err := s.Logs.Create(ctx, log); err != nil {
			return nil, err
		}
		return m.OnInventoryLogInsert(ctx, log)
	})
	if err != nil {
		return nil, err
	}
	return &dto.LogMutationResponse{Log: toLogResponse(log), Aggregates: toAggregateValues(changes)}, nil
}

// Update reescribe el registro con la imagen previa bloqueada; cambiar de producto
// mueve el delta de uno a otro.
func (uc *InventoryUseCase) Update(ctx context.Context, id int64, in dto.UpdateLogRequest) (*dto.LogMutationResponse, error) {
	var next entity.InventoryLog
	changes, err := uc.mutate(ctx, "inventory.update", func(s repository.Store, m *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		old, err := s.Logs.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if old == nil {
			return nil, domain.ErrNotFound
		}
		next = *old
		if in.Type != nil {
			next.Type = entity.LogType(*in.Type)
		}
		if in.ClearProduct {
			next.ProductID = nil
		} else if in.ProductID != nil {
			next.ProductID = in.ProductID
		}
		if in.Delta != nil {
			next.Delta = *in.Delta
		}
		if in.Time != nil {
			next.Time = *in.Time
		}
		if in.Note != nil {
			next.Note = *in.Note
		}
		if err := ledger.ValidateInventoryLog(&next); err != nil {
			return nil, err
		}
		if field := backingField(old, &next); field != "" {
			d, err := s.Details.GetByLogID(ctx, id)
			if err != nil {
				return nil, err
			}
			if d != nil {
				return nil, domain.NewConstraintViolation(field, fmt.Sprintf("el registro respalda la línea de venta %d; modificar la línea", d.ID))
			}
		}
		changes, err := m.OnInventoryLogUpdate(ctx, old, &next)
		if err != nil {
			return nil, err
		}
		return changes, s.Logs.Update(ctx, &next)
	})
	if err != nil {
		return nil, err
	}
	return &dto.LogMutationResponse{Log: toLogResponse(&next), Aggregates: toAggregateValues(changes)}, nil
}

// backingField primer campo que una línea de venta replica de su registro de
// salida y que cambia entre old y next; "" si ninguno.
func backingField(old, next *entity.InventoryLog) string {
	switch {
	case !sameID(old.ProductID, next.ProductID):
		return "product_id"
	case old.Delta != next.Delta:
		return "delta"
	case old.Type != next.Type:
		return "type"
	}
	return ""
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Delete resta el delta y borra el registro; la línea de venta que respaldaba queda sin log_id.
func (uc *InventoryUseCase) Delete(ctx context.Context, id int64) (*dto.MutationResponse, error) {
	changes, err := uc.mutate(ctx, "inventory.delete", func(s repository.Store, m *aggregate.Maintainer, ref *aggregate.Referential) (aggregate.Changes, error) {
		old, err := s.Logs.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if old == nil {
			return nil, domain.ErrNotFound
		}
		return deleteLog(ctx, s, m, ref, id)
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Message: "registro eliminado", Aggregates: toAggregateValues(changes)}, nil
}

// Get obtiene un registro.
func (uc *InventoryUseCase) Get(ctx context.Context, id int64) (*dto.LogResponse, error) {
	var log *entity.InventoryLog
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		log, err = s.Logs.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, domain.ErrNotFound
	}
	out := toLogResponse(log)
	return &out, nil
}

// List registros más recientes primero, opcionalmente de un producto y en [from, to).
func (uc *InventoryUseCase) List(ctx context.Context, productID *int64, from, to *time.Time, page dto.PageRequest) (*dto.LogListResponse, error) {
	page.DefaultPage()
	var logs []*entity.InventoryLog
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		logs, err = s.Logs.List(ctx, repository.LogFilter{
			ProductID: productID, From: from, To: to, Limit: page.Limit, Offset: page.Offset,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.LogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, toLogResponse(l))
	}
	return &dto.LogListResponse{Items: items, Page: pageOf(page)}, nil
}

func toLogResponse(l *entity.InventoryLog) dto.LogResponse {
	return dto.LogResponse{
		ID:        l.ID,
		Type:      string(l.Type),
		ProductID: l.ProductID,
		Delta:     l.Delta,
		Time:      l.Time,
		Note:      l.Note,
	}
}
