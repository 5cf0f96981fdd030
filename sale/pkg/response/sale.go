package response

import (
	"time"
)

type Line struct {
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	UnitPrice    string `json:"unit_price"`
	Quantity     int    `json:"quantity"`
	StockCeiling int    `json:"stock_ceiling"`
	LineTotal    string `json:"line_total"`
}

type Totals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type Sale struct {
	Lines      []Line `json:"lines"`
	Totals     Totals `json:"totals"`
	ItemCount  int    `json:"item_count"`
	State      string `json:"state"`
	Submitting bool   `json:"submitting"`
}

type ValidationFailure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Validation struct {
	Valid          bool                `json:"valid"`
	Failures       []ValidationFailure `json:"failures"`
	Totals         Totals              `json:"totals"`
	AmountTendered string              `json:"amount_paid"`
	Change         string              `json:"change"`
}

type Receipt struct {
	TransactionID     int64     `json:"transaction_id"`
	TransactionNumber string    `json:"transaction_number"`
	PaymentMethod     string    `json:"payment_method"`
	ItemCount         int       `json:"item_count"`
	Subtotal          string    `json:"subtotal"`
	Tax               string    `json:"tax"`
	Total             string    `json:"total"`
	AmountTendered    string    `json:"amount_paid"`
	Change            string    `json:"change"`
	CompletedAt       time.Time `json:"completed_at"`
}

// Label is what the till announces after a completed sale.
func (r Receipt) Label() string {
	if r.TransactionNumber != "" {
		return r.TransactionNumber
	}
	return formatID(r.TransactionID)
}

type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	UnitPrice    string `json:"unit_price"`
	CurrentStock int    `json:"current_stock"`
	LowStock     bool   `json:"low_stock"`
	CategoryID   *int64 `json:"category_id"`
	CategoryName string `json:"category_name"`
	ImageURL     string `json:"image_url"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
