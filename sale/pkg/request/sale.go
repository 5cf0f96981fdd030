package request

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/flowerbelle/sale/internal/engine"
)

type AddItem struct {
	ProductID int64 `validate:"required,gt=0"                json:"product_id"`
	Quantity  *int  `validate:"omitempty,gte=1,max=100000"   json:"quantity"`
}

// RequestedQuantity defaults to a single unit, as a tap on a product tile does.
func (r AddItem) RequestedQuantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// UpdateQuantity allows zero and negative values, which remove the line.
type UpdateQuantity struct {
	Quantity *int `validate:"required,max=100000" json:"quantity"`
}

type Checkout struct {
	PaymentMethod    string           `validate:"required,oneof=CASH GCASH CARD PAYMAYA BANK_TRANSFER" json:"payment_method"`
	AmountPaid       *decimal.Decimal `validate:"omitempty,money"                                     json:"amount_paid"`
	PaymentReference string           `validate:"max=100"                                             json:"payment_reference"`
	CustomerName     string           `validate:"max=200"                                             json:"customer_name"`
	CustomerPhone    string           `validate:"max=20"                                              json:"customer_phone"`
	CustomerEmail    string           `validate:"max=254"                                             json:"customer_email"`
	Notes            string           `validate:"max=1000"                                            json:"notes"`
}

func (r Checkout) Input() (engine.CheckoutInput, error) {
	method, err := engine.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return engine.CheckoutInput{}, err
	}
	return engine.CheckoutInput{
		PaymentMethod:    method,
		AmountTendered:   r.AmountPaid,
		PaymentReference: r.PaymentReference,
		Customer: engine.Customer{
			Name:  r.CustomerName,
			Phone: r.CustomerPhone,
			Email: r.CustomerEmail,
			Notes: r.Notes,
		},
	}, nil
}

type VoidTransaction struct {
	Reason string `validate:"required,max=500" json:"reason"`
}
