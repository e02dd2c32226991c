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
)

// CategoryUseCase categorías de producto.
type CategoryUseCase struct {
	runner
}

func NewCategoryUseCase(tx aggregate.TxRunner, log *logger.Logger) *CategoryUseCase {
	return &CategoryUseCase{runner: newRunner(tx, nil, log)}
}

func (uc *CategoryUseCase) Create(ctx context.Context, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c := &entity.Category{Name: in.Name, Description: in.Description}
	if err := ledger.ValidateCategory(c); err != nil {
		return nil, err
	}
	_, err := uc.mutate(ctx, "category.create", func(s repository.Store, _ *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		return nil, s.Categories.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	out := toCategoryResponse(c)
	return &out, nil
}

func (uc *CategoryUseCase) Get(ctx context.Context, id int64) (*dto.CategoryResponse, error) {
	var c *entity.Category
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		c, err = s.Categories.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	out := toCategoryResponse(c)
	return &out, nil
}

func (uc *CategoryUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.CategoryListResponse, error) {
	page.DefaultPage()
	var cats []*entity.Category
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		cats, err = s.Categories.List(ctx, page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.CategoryResponse, 0, len(cats))
	for _, c := range cats {
		items = append(items, toCategoryResponse(c))
	}
	return &dto.CategoryListResponse{Items: items, Page: pageOf(page)}, nil
}

func (uc *CategoryUseCase) Update(ctx context.Context, id int64, in dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	if in.Name == nil && in.Description == nil {
		return nil, domain.ErrNoFieldsToSet
	}
	var c *entity.Category
	_, err := uc.mutate(ctx, "category.update", func(s repository.Store, _ *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		var err error
		if c, err = s.Categories.GetByID(ctx, id); err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domain.ErrNotFound
		}
		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.Description != nil {
			c.Description = *in.Description
		}
		if err := ledger.ValidateCategory(c); err != nil {
			return nil, err
		}
		return nil, s.Categories.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	out := toCategoryResponse(c)
	return &out, nil
}

// Delete los productos de la categoría quedan sin categoría.
func (uc *CategoryUseCase) Delete(ctx context.Context, id int64) error {
	_, err := uc.mutate(ctx, "category.delete", func(_ repository.Store, _ *aggregate.Maintainer, ref *aggregate.Referential) (aggregate.Changes, error) {
		return ref.DeleteParent(ctx, ledger.TableCategories, id)
	})
	return err
}

func toCategoryResponse(c *entity.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
