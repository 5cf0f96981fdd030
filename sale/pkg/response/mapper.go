package response

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Alturino/flowerbelle/internal/backend"
	"github.com/Alturino/flowerbelle/sale/internal/engine"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TotalsFrom(totals engine.Totals) Totals {
	return Totals{
		Subtotal: money(totals.Subtotal),
		Tax:      money(totals.Tax),
		Total:    money(totals.Total),
	}
}

func SaleFrom(lines []engine.CartLine, totals engine.Totals, state engine.State) Sale {
	sale := Sale{
		Lines:      make([]Line, len(lines)),
		Totals:     TotalsFrom(totals),
		State:      state.String(),
		Submitting: state == engine.StateSubmitting,
	}
	for i, line := range lines {
		sale.Lines[i] = LineFrom(line)
		sale.ItemCount += line.Quantity
	}
	return sale
}

func LineFrom(line engine.CartLine) Line {
	return Line{
		ProductID:    line.ProductID,
		Name:         line.Name,
		UnitPrice:    money(line.UnitPrice),
		Quantity:     line.Quantity,
		StockCeiling: line.StockCeiling,
		LineTotal:    money(line.LineTotal()),
	}
}

func ValidationFrom(result engine.ValidationResult) Validation {
	validation := Validation{
		Valid:          result.Valid,
		Failures:       FailuresFrom(result.Failures),
		Totals:         TotalsFrom(result.Totals),
		AmountTendered: money(result.AmountTendered),
		Change:         money(result.Change),
	}
	return validation
}

func FailuresFrom(failures []engine.ValidationFailure) []ValidationFailure {
	mapped := make([]ValidationFailure, len(failures))
	for i, f := range failures {
		mapped[i] = ValidationFailure{Field: f.Field, Message: f.Message}
	}
	return mapped
}

func ReceiptFrom(receipt engine.Receipt) Receipt {
	return Receipt{
		TransactionID:     receipt.TransactionID,
		TransactionNumber: receipt.TransactionNumber,
		PaymentMethod:     receipt.PaymentMethod.String(),
		ItemCount:         receipt.ItemCount,
		Subtotal:          money(receipt.Subtotal),
		Tax:               money(receipt.Tax),
		Total:             money(receipt.Total),
		AmountTendered:    money(receipt.AmountTendered),
		Change:            money(receipt.Change),
		CompletedAt:       receipt.CompletedAt,
	}
}

func ProductFrom(p backend.Product) Product {
	return Product{
		ID:           p.ID,
		Name:         strings.TrimSpace(p.Name),
		SKU:          p.SKU,
		UnitPrice:    money(p.UnitPrice),
		CurrentStock: p.CurrentStock,
		LowStock:     p.CurrentStock <= p.ReorderLevel,
		CategoryID:   p.Category,
		CategoryName: p.CategoryName,
		ImageURL:     p.ImageURL,
	}
}

// SellableProducts drops inactive and out-of-stock products, which the till
// cannot add anyway.
func SellableProducts(products []backend.Product) []Product {
	sellable := make([]Product, 0, len(products))
	for _, p := range products {
		if !p.Active() || p.CurrentStock <= 0 {
			continue
		}
		sellable = append(sellable, ProductFrom(p))
	}
	return sellable
}

func CategoryFrom(category backend.Category) Category {
	return Category{ID: category.ID, Name: category.Name}
}

func CategoriesFrom(categories []backend.Category) []Category {
	mapped := make([]Category, len(categories))
	for i, category := range categories {
		mapped[i] = CategoryFrom(category)
	}
	return mapped
}
