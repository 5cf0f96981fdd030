package response

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/flowerbelle/internal/backend"
	"github.com/Alturino/flowerbelle/sale/internal/engine"
)

func TestSaleFrom(t *testing.T) {
	lines := []engine.CartLine{
		{ProductID: 1, Name: "Red Rose", UnitPrice: decimal.RequireFromString("50"), Quantity: 2, StockCeiling: 5},
		{ProductID: 2, Name: "Tulip", UnitPrice: decimal.RequireFromString("19.99"), Quantity: 1, StockCeiling: 3},
	}

	sale := SaleFrom(lines, engine.ComputeTotals(lines), engine.StateIdle)

	require.Len(t, sale.Lines, 2)
	assert.Equal(t, 3, sale.ItemCount)
	assert.Equal(t, "idle", sale.State)
	assert.False(t, sale.Submitting)
	assert.Equal(t, "50.00", sale.Lines[0].UnitPrice)
	assert.Equal(t, "100.00", sale.Lines[0].LineTotal)
	assert.Equal(t, Totals{Subtotal: "119.99", Tax: "0.00", Total: "119.99"}, sale.Totals)
}

func TestSellableProducts(t *testing.T) {
	inactive := false
	products := []backend.Product{
		{ID: 1, Name: " Red Rose ", UnitPrice: decimal.RequireFromString("50"), CurrentStock: 2, ReorderLevel: 2},
		{ID: 2, Name: "Retired Lily", CurrentStock: 9, IsActive: &inactive},
		{ID: 3, Name: "Sold Out Orchid", CurrentStock: 0},
		{ID: 4, Name: "Tulip", UnitPrice: decimal.RequireFromString("19.99"), CurrentStock: 10, ReorderLevel: 2},
	}

	sellable := SellableProducts(products)

	require.Len(t, sellable, 2)
	assert.Equal(t, "Red Rose", sellable[0].Name)
	assert.True(t, sellable[0].LowStock)
	assert.Equal(t, "Tulip", sellable[1].Name)
	assert.False(t, sellable[1].LowStock)
	assert.Equal(t, "19.99", sellable[1].UnitPrice)
}

func TestReceiptLabel(t *testing.T) {
	tests := []struct {
		name     string
		receipt  Receipt
		expected string
	}{
		{name: "given transaction number should use it", receipt: Receipt{TransactionID: 7, TransactionNumber: "TXN-7"}, expected: "TXN-7"},
		{name: "given only id should fall back to it", receipt: Receipt{TransactionID: 7}, expected: "7"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.receipt.Label())
		})
	}
}
