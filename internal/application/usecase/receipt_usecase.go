package usecase

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// ReceiptUseCase comprobante PDF de una venta.
type ReceiptUseCase struct {
	tx        aggregate.TxRunner
	renderer  ReceiptRenderer
	storeName string
}

func NewReceiptUseCase(tx aggregate.TxRunner, renderer ReceiptRenderer, storeName string) *ReceiptUseCase {
	return &ReceiptUseCase{tx: tx, renderer: renderer, storeName: storeName}
}

// Render arma el comprobante con una lectura consistente y lo delega al renderizador.
func (uc *ReceiptUseCase) Render(ctx context.Context, saleID int64) ([]byte, error) {
	receipt := &Receipt{StoreName: uc.storeName}
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		sale, err := s.Sales.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		receipt.Sale = sale
		if sale.CustomerID != nil {
			if receipt.Customer, err = s.Customers.GetByID(ctx, *sale.CustomerID); err != nil {
				return err
			}
		}
		if sale.UserID != nil {
			u, err := s.Users.GetByID(ctx, *sale.UserID)
			if err != nil {
				return err
			}
			if u != nil {
				receipt.Seller = u.Username
			}
		}
		details, err := s.Details.ListBySale(ctx, saleID)
		if err != nil {
			return err
		}
		for _, d := range details {
			line := ReceiptLine{Description: d.Note, Quantity: d.Quantity, SubtotalCents: d.SubtotalCents}
			if d.ProductID != nil {
				p, err := s.Products.GetByID(ctx, *d.ProductID)
				if err != nil {
					return err
				}
				if p != nil {
					line.SKU = p.SKU
					if line.Description == "" {
						line.Description = p.Name
					}
				}
			}
			receipt.Lines = append(receipt.Lines, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderReceipt(ctx, receipt)
}
