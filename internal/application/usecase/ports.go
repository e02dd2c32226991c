package usecase

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// ChangePublisher difunde los agregados que cambiaron. Se invoca después de confirmar:
// un fallo aquí se registra y no revierte nada.
type ChangePublisher interface {
	Publish(ctx context.Context, source string, changes aggregate.Changes) error
}

// ReceiptLine línea del recibo ya resuelta contra el catálogo.
type ReceiptLine struct {
	SKU           string
	Description   string
	Quantity      int64
	SubtotalCents int64
}

// Receipt datos del recibo de una venta.
type Receipt struct {
	StoreName string
	Sale      *entity.Sale
	Customer  *entity.Customer // nil si la venta no tiene cliente
	Seller    string
	Lines     []ReceiptLine
}

// ReceiptRenderer genera el documento del recibo.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, r *Receipt) ([]byte, error)
}
