// Package billing holds the pure invoice arithmetic, numbering, validation and
// dashboard aggregation used by the services. Nothing here performs I/O.
package billing

import (
	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the precision every stored amount is rounded to.
const CurrencyPlaces = 2

// DefaultTaxRate is applied when no rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// Line is the priced part of an invoice line.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Totals is the result of pricing a set of lines.
type Totals struct {
	ItemTotals []decimal.Decimal
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
}

// ItemTotal returns quantity * unitPrice at currency precision.
func ItemTotal(quantity int, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, invalid("quantity", "must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return decimal.Zero, invalid("unit_price", "must not be negative")
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(CurrencyPlaces), nil
}

// Subtotal sums already computed item totals. An empty list yields zero.
func Subtotal(itemTotals []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, itemTotals...)
}

// Tax returns subtotal * rate.
func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate)
}

// Total returns subtotal + tax.
func Total(subtotal, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax)
}

// Compute prices every line and derives subtotal, tax and total. Tax is rounded
// to currency precision before it is added.
func Compute(lines []Line, rate decimal.Decimal) (Totals, error) {
	totals := Totals{ItemTotals: make([]decimal.Decimal, 0, len(lines))}
	for _, l := range lines {
		t, err := ItemTotal(l.Quantity, l.UnitPrice)
		if err != nil {
			return Totals{}, err
		}
		totals.ItemTotals = append(totals.ItemTotals, t)
	}
	totals.Subtotal = Subtotal(totals.ItemTotals)
	totals.Tax = Tax(totals.Subtotal, rate).Round(CurrencyPlaces)
	totals.Total = Total(totals.Subtotal, totals.Tax)
	return totals, nil
}
