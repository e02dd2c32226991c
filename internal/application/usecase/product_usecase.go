package usecase

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/pkg/logger"
	"github.com/jhoicas/ledger-api/pkg/money"
)

// ProductUseCase catálogo de productos. La cantidad es de solo lectura.
type ProductUseCase struct {
	runner
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(tx aggregate.TxRunner, events ChangePublisher, log *logger.Logger) *ProductUseCase {
	return &ProductUseCase{runner: newRunner(tx, events, log)}
}

// Create alta de producto con cantidad 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := &entity.Product{
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Active:      true,
		CategoryID:  in.CategoryID,
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if err := ledger.ValidateProduct(p); err != nil {
		return nil, err
	}
	_, err := uc.mutate(ctx, "product.create", func(s repository.Store, _ *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		return nil, s.Products.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	out := toProductResponse(p)
	return &out, nil
}

// Get obtiene un producto.
func (uc *ProductUseCase) Get(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	var p *entity.Product
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		p, err = s.Products.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	out := toProductResponse(p)
	return &out, nil
}

// GetBySKU busca por SKU normalizado.
func (uc *ProductUseCase) GetBySKU(ctx context.Context, sku string) (*dto.ProductResponse, error) {
	var p *entity.Product
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		p, err = s.Products.GetBySKU(ctx, ledger.NormalizeKey(sku))
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	out := toProductResponse(p)
	return &out, nil
}

// List productos, opcionalmente de una categoría o solo activos.
func (uc *ProductUseCase) List(ctx context.Context, categoryID *int64, activeOnly bool, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	var products []*entity.Product
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		products, err = s.Products.List(ctx, repository.ProductFilter{
			CategoryID: categoryID, ActiveOnly: activeOnly, Limit: page.Limit, Offset: page.Offset,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, toProductResponse(p))
	}
	return &dto.ProductListResponse{Items: items, Page: pageOf(page)}, nil
}

// Update cambios parciales; Quantity no se toca.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if in.SKU == nil && in.Name == nil && in.Description == nil && in.PriceCents == nil &&
		in.Active == nil && in.CategoryID == nil && !in.ClearCategory {
		return nil, domain.ErrNoFieldsToSet
	}
	var p *entity.Product
	_, err := uc.mutate(ctx, "product.update", func(s repository.Store, _ *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		var err error
		if p, err = s.Products.GetByID(ctx, id); err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrNotFound
		}
		if in.SKU != nil {
			p.SKU = *in.SKU
		}
		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.PriceCents != nil {
			p.PriceCents = *in.PriceCents
		}
		if in.Active != nil {
			p.Active = *in.Active
		}
		if in.ClearCategory {
			p.CategoryID = nil
		} else if in.CategoryID != nil {
			p.CategoryID = in.CategoryID
		}
		if err := ledger.ValidateProduct(p); err != nil {
			return nil, err
		}
		return nil, s.Products.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	out := toProductResponse(p)
	return &out, nil
}

// Delete borra el producto: falla si alguna línea de venta lo referencia; sus registros
// de inventario quedan sin producto.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) (*dto.MutationResponse, error) {
	changes, err := uc.mutate(ctx, "product.delete", func(_ repository.Store, _ *aggregate.Maintainer, ref *aggregate.Referential) (aggregate.Changes, error) {
		return ref.DeleteParent(ctx, ledger.TableProducts, id)
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Message: "producto eliminado", Aggregates: toAggregateValues(changes)}, nil
}

func toProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Active:      p.Active,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Price:       money.Format(p.PriceCents),
		Quantity:    p.Quantity,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
