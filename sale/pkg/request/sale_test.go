package request

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/flowerbelle/sale/internal/engine"
)

func TestValidation(t *testing.T) {
	validate := NewValidator()
	zero, two, huge := 0, 2, math.MaxInt
	negative := decimal.RequireFromString("-1")
	paid := decimal.RequireFromString("120.50")

	tests := []struct {
		name    string
		request interface{}
		isErr   bool
	}{
		{name: "given product without quantity should pass", request: AddItem{ProductID: 1}},
		{name: "given missing product should fail", request: AddItem{Quantity: &two}, isErr: true},
		{name: "given zero add quantity should fail", request: AddItem{ProductID: 1, Quantity: &zero}, isErr: true},
		{name: "given zero update quantity should pass", request: UpdateQuantity{Quantity: &zero}},
		{name: "given huge add quantity should fail", request: AddItem{ProductID: 1, Quantity: &huge}, isErr: true},
		{name: "given huge update quantity should fail", request: UpdateQuantity{Quantity: &huge}, isErr: true},
		{name: "given missing update quantity should fail", request: UpdateQuantity{}, isErr: true},
		{name: "given known payment method should pass", request: Checkout{PaymentMethod: "GCASH"}},
		{name: "given unknown payment method should fail", request: Checkout{PaymentMethod: "BITCOIN"}, isErr: true},
		{name: "given tendered amount should pass", request: Checkout{PaymentMethod: "CASH", AmountPaid: &paid}},
		{name: "given negative tendered amount should fail", request: Checkout{PaymentMethod: "CASH", AmountPaid: &negative}, isErr: true},
		{name: "given empty void reason should fail", request: VoidTransaction{}, isErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validate.Struct(test.request)
			if test.isErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAddItemRequestedQuantity(t *testing.T) {
	three := 3
	assert.Equal(t, 1, AddItem{ProductID: 1}.RequestedQuantity())
	assert.Equal(t, 3, AddItem{ProductID: 1, Quantity: &three}.RequestedQuantity())
}

func TestCheckoutInput(t *testing.T) {
	t.Run("given card checkout should map to engine input", func(t *testing.T) {
		amount := decimal.RequireFromString("10")
		input, err := Checkout{
			PaymentMethod:    "card",
			AmountPaid:       &amount,
			PaymentReference: "REF-1",
			CustomerName:     "Maria",
			Notes:            "note",
		}.Input()
		require.NoError(t, err)
		assert.Equal(t, engine.PaymentMethodCard, input.PaymentMethod)
		assert.Equal(t, "REF-1", input.PaymentReference)
		assert.Equal(t, "Maria", input.Customer.Name)
		assert.Equal(t, "note", input.Customer.Notes)
		assert.True(t, amount.Equal(*input.AmountTendered))
	})

	t.Run("given unknown method should fail", func(t *testing.T) {
		_, err := Checkout{PaymentMethod: "BARTER"}.Input()
		assert.ErrorIs(t, err, engine.ErrUnknownPaymentMethod)
	})
}
