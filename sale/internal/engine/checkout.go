package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Customer struct {
	Name  string
	Phone string
	Email string
	Notes string
}

type CheckoutInput struct {
	PaymentMethod    PaymentMethod
	AmountTendered   *decimal.Decimal
	PaymentReference string
	Customer         Customer
}

const (
	FieldCart             = "cart"
	FieldPaymentMethod    = "payment_method"
	FieldAmountTendered   = "amount_paid"
	FieldPaymentReference = "payment_reference"
	FieldCustomerName     = "customer_name"
	FieldCustomerPhone    = "customer_phone"
	FieldCustomerEmail    = "customer_email"
	FieldNotes            = "notes"
)

// ValidationResult carries every failed rule. AmountTendered and Change are
// only meaningful when Valid is true.
type ValidationResult struct {
	Valid          bool
	Failures       []ValidationFailure
	Totals         Totals
	AmountTendered decimal.Decimal
	Change         decimal.Decimal
}

func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	failures := make([]ValidationFailure, len(r.Failures))
	copy(failures, r.Failures)
	return &ValidationError{Failures: failures}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func ValidateCheckout(lines []CartLine, input CheckoutInput) ValidationResult {
	totals := ComputeTotals(lines)
	result := ValidationResult{
		Totals:         totals,
		AmountTendered: decimal.Zero,
		Change:         decimal.Zero,
	}
	fail := func(field, message string) {
		result.Failures = append(result.Failures, ValidationFailure{Field: field, Message: message})
	}

	if len(lines) == 0 {
		fail(FieldCart, "Cart is empty")
	}

	tendered := decimal.Zero
	switch {
	case input.PaymentMethod.IsCash():
		switch {
		case input.AmountTendered == nil:
			fail(FieldAmountTendered, "Amount paid is required for cash payments")
		case input.AmountTendered.LessThan(totals.Total):
			fail(FieldAmountTendered, "Amount paid must cover the total")
		default:
			tendered = *input.AmountTendered
		}
	case input.PaymentMethod.Valid():
		if blank(input.PaymentReference) {
			fail(FieldPaymentReference, "Payment reference is required")
		}
		tendered = totals.Total
	default:
		fail(FieldPaymentMethod, "Payment method is not supported")
	}

	if blank(input.Customer.Name) {
		fail(FieldCustomerName, "Customer name is required")
	}
	if blank(input.Customer.Phone) {
		fail(FieldCustomerPhone, "Customer phone is required")
	}
	if blank(input.Customer.Email) {
		fail(FieldCustomerEmail, "Customer email is required")
	}
	if blank(input.Customer.Notes) {
		fail(FieldNotes, "Notes are required")
	}

	result.Valid = len(result.Failures) == 0
	if result.Valid {
		result.AmountTendered = tendered
		result.Change = tendered.Sub(totals.Total)
	}
	return result
}

type CheckoutItem struct {
	ProductID    int64
	Quantity     int
	UnitPrice    decimal.Decimal
	LineDiscount decimal.Decimal
}

// CheckoutRequest is built once per attempt and never mutated afterwards.
type CheckoutRequest struct {
	Items            []CheckoutItem
	PaymentMethod    PaymentMethod
	AmountTendered   decimal.Decimal
	PaymentReference string
	Customer         Customer
	Subtotal         decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
	Discount         decimal.Decimal
	Change           decimal.Decimal
}

func BuildCheckoutRequest(lines []CartLine, input CheckoutInput) (CheckoutRequest, error) {
	result := ValidateCheckout(lines, input)
	if err := result.Err(); err != nil {
		return CheckoutRequest{}, err
	}

	items := make([]CheckoutItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, CheckoutItem{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			LineDiscount: decimal.Zero,
		})
	}

	reference := ""
	if !input.PaymentMethod.IsCash() {
		reference = strings.TrimSpace(input.PaymentReference)
	}

	return CheckoutRequest{
		Items:            items,
		PaymentMethod:    input.PaymentMethod,
		AmountTendered:   result.AmountTendered,
		PaymentReference: reference,
		Customer: Customer{
			Name:  strings.TrimSpace(input.Customer.Name),
			Phone: strings.TrimSpace(input.Customer.Phone),
			Email: strings.TrimSpace(input.Customer.Email),
			Notes: strings.TrimSpace(input.Customer.Notes),
		},
		Subtotal: result.Totals.Subtotal,
		Tax:      result.Totals.Tax,
		Total:    result.Totals.Total,
		Discount: decimal.Zero,
		Change:   result.Change,
	}, nil
}
