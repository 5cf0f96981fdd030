package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is the catalog view of a product at the moment it was read.
type ProductSnapshot struct {
	ProductID      int64
	Name           string
	UnitPrice      decimal.Decimal
	StockAvailable int
}

type CartLine struct {
	ProductID    int64
	Name         string
	UnitPrice    decimal.Decimal
	Quantity     int
	StockCeiling int
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps at most one line per product in insertion order. Every line
// satisfies 1 <= Quantity <= StockCeiling.
type Cart struct {
	lines []CartLine
}

func NewCart() *Cart {
	return &Cart{lines: []CartLine{}}
}

func (c *Cart) index(productID int64) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// Lines returns a copy.
func (c *Cart) Lines() []CartLine {
	lines := make([]CartLine, len(c.lines))
	copy(lines, c.lines)
	return lines
}

func (c *Cart) Line(productID int64) (CartLine, bool) {
	i := c.index(productID)
	if i < 0 {
		return CartLine{}, false
	}
	return c.lines[i], true
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Totals() Totals {
	return ComputeTotals(c.lines)
}

// AddItem increments an existing line or creates a new one. A new line is
// clamped to the available stock; an increment that would pass it is
// rejected whole.
func (c *Cart) AddItem(product ProductSnapshot, requestedQuantity int) (CartLine, error) {
	if requestedQuantity < 1 {
		return CartLine{}, &InvalidItemError{ProductID: product.ProductID, Reason: "quantity must be at least 1"}
	}
	if product.UnitPrice.IsNegative() {
		return CartLine{}, &InvalidItemError{ProductID: product.ProductID, Reason: "unit price must not be negative"}
	}

	i := c.index(product.ProductID)
	if i >= 0 {
		line := c.lines[i]
		// compare against the remaining room; line.Quantity+requestedQuantity can overflow
		if requestedQuantity > product.StockAvailable-line.Quantity {
			return CartLine{}, &StockExceededError{
				ProductID: product.ProductID,
				Name:      line.Name,
				Requested: line.Quantity + min(requestedQuantity, math.MaxInt-line.Quantity),
				Available: product.StockAvailable,
				Operation: StockOperationAdd,
			}
		}
		line.Quantity += requestedQuantity
		line.StockCeiling = product.StockAvailable
		c.lines[i] = line
		return line, nil
	}

	if product.StockAvailable <= 0 {
		return CartLine{}, &StockExceededError{
			ProductID: product.ProductID,
			Name:      product.Name,
			Requested: requestedQuantity,
			Available: 0,
			Operation: StockOperationAdd,
		}
	}
	line := CartLine{
		ProductID:    product.ProductID,
		Name:         product.Name,
		UnitPrice:    product.UnitPrice,
		Quantity:     min(requestedQuantity, product.StockAvailable),
		StockCeiling: product.StockAvailable,
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// UpdateQuantity sets the exact quantity of a line. A quantity of zero or
// less removes the line; one above the ceiling is rejected and the previous
// quantity kept.
func (c *Cart) UpdateQuantity(productID int64, newQuantity int) (CartLine, error) {
	if newQuantity <= 0 {
		c.RemoveItem(productID)
		return CartLine{}, nil
	}

	i := c.index(productID)
	if i < 0 {
		return CartLine{}, ErrLineNotFound
	}
	line := c.lines[i]
	if newQuantity > line.StockCeiling {
		return CartLine{}, &StockExceededError{
			ProductID: productID,
			Name:      line.Name,
			Requested: newQuantity,
			Available: line.StockCeiling,
			Operation: StockOperationUpdate,
		}
	}
	line.Quantity = newQuantity
	c.lines[i] = line
	return line, nil
}

// RemoveItem reports whether a line was removed.
func (c *Cart) RemoveItem(productID int64) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.lines = []CartLine{}
}
