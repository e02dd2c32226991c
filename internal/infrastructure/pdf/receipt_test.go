package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/application/usecase"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[int64]string{
		0:          "0,00",
		150:        "1,50",
		2500000:    "25.000,00",
		100000000:  "1.000.000,00",
		-150:       "-1,50",
		-123456789: "-1.234.567,89",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(in), "formatMoney(%d)", in)
	}
}

func TestRenderReceipt_GeneraPDF(t *testing.T) {
	cid := int64(3)
	r := &usecase.Receipt{
		StoreName: "Tienda",
		Sale:      &entity.Sale{ID: 7, Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), CustomerID: &cid, TotalCents: 3500},
		Customer:  &entity.Customer{ID: cid, Name: "Ana", City: "Cali"},
		Seller:    "caja1",
		Lines: []usecase.ReceiptLine{
			{SKU: "A", Description: "Café", Quantity: 3, SubtotalCents: 3000},
			{Description: "Envío", SubtotalCents: 500},
		},
	}
	out, err := NewReceiptGenerator().RenderReceipt(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderReceipt_SinVenta(t *testing.T) {
	_, err := NewReceiptGenerator().RenderReceipt(context.Background(), &usecase.Receipt{})
	assert.Error(t, err)
}
