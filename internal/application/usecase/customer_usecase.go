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

// CustomerUseCase clientes. Borrar un cliente deja sus ventas sin cliente.
type CustomerUseCase struct {
	runner
}

func NewCustomerUseCase(tx aggregate.TxRunner, log *logger.Logger) *CustomerUseCase {
	return &CustomerUseCase{runner: newRunner(tx, nil, log)}
}

func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	c := &entity.Customer{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
	}
	if err := ledger.ValidateCustomer(c); err != nil {
		return nil, err
	}
	_, err := uc.mutate(ctx, "customer.create", func(s repository.Store, _ *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		return nil, s.Customers.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	out := toCustomerResponse(c)
	return &out, nil
}

func (uc *CustomerUseCase) Get(ctx context.Context, id int64) (*dto.CustomerResponse, error) {
	var c *entity.Customer
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		c, err = s.Customers.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	out := toCustomerResponse(c)
	return &out, nil
}

func (uc *CustomerUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.CustomerListResponse, error) {
	page.DefaultPage()
	var customers []*entity.Customer
	err := uc.read(ctx, func(s repository.Store) error {
		var err error
		customers, err = s.Customers.List(ctx, page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		items = append(items, toCustomerResponse(c))
	}
	return &dto.CustomerListResponse{Items: items, Page: pageOf(page)}, nil
}

func (uc *CustomerUseCase) Update(ctx context.Context, id int64, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	fields := []struct {
		src *string
		dst func(*entity.Customer) *string
	}{
		{in.Name, func(c *entity.Customer) *string { return &c.Name }},
		{in.Email, func(c *entity.Customer) *string { return &c.Email }},
		{in.Phone, func(c *entity.Customer) *string { return &c.Phone }},
		{in.Address, func(c *entity.Customer) *string { return &c.Address }},
		{in.City, func(c *entity.Customer) *string { return &c.City }},
		{in.State, func(c *entity.Customer) *string { return &c.State }},
		{in.PostalCode, func(c *entity.Customer) *string { return &c.PostalCode }},
		{in.Country, func(c *entity.Customer) *string { return &c.Country }},
	}
	set := false
	for _, f := range fields {
		set = set || f.src != nil
	}
	if !set {
		return nil, domain.ErrNoFieldsToSet
	}
	var c *entity.Customer
	_, err := uc.mutate(ctx, "customer.update", func(s repository.Store, _ *aggregate.Maintainer, _ *aggregate.Referential) (aggregate.Changes, error) {
		var err error
		if c, err = s.Customers.GetByID(ctx, id); err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domain.ErrNotFound
		}
		for _, f := range fields {
			if f.src != nil {
				*f.dst(c) = *f.src
			}
		}
		if err := ledger.ValidateCustomer(c); err != nil {
			return nil, err
		}
		return nil, s.Customers.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	out := toCustomerResponse(c)
	return &out, nil
}

func (uc *CustomerUseCase) Delete(ctx context.Context, id int64) error {
	_, err := uc.mutate(ctx, "customer.delete", func(_ repository.Store, _ *aggregate.Maintainer, ref *aggregate.Referential) (aggregate.Changes, error) {
		return ref.DeleteParent(ctx, ledger.TableCustomers, id)
	})
	return err
}

func toCustomerResponse(c *entity.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		City:       c.City,
		State:      c.State,
		PostalCode: c.PostalCode,
		Country:    c.Country,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
