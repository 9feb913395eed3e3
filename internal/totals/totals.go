// Package totals derives entry aggregates from line items.
package totals

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/salesboard/internal/domain/models"
)

var half = decimal.NewFromFloat(0.5)

// Totals is the derived part of an entry.
type Totals struct {
	Qty   int
	Total decimal.Decimal
	Split *models.Split
}

// Round2 rounds to the cent, halves going up.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// LineTotal is qty × price, unrounded.
func LineTotal(item models.InventoryItem) decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
}

// Recalculate sums the items. When prev is non-nil the new split keeps the
// previous cash share of the total (one half when the previous total was
// zero) and card takes the remainder.
func Recalculate(items []models.InventoryItem, prev *models.Split) Totals {
	var qty int
	sum := decimal.Zero
	for _, it := range items {
		qty += it.Qty
		sum = sum.Add(LineTotal(it))
	}

	out := Totals{Qty: qty, Total: Round2(sum)}
	if prev == nil {
		return out
	}

	ratio := half
	if prevSum := prev.Cash.Add(prev.Card); !prevSum.IsZero() {
		ratio = prev.Cash.Div(prevSum)
	}
	cash := Round2(out.Total.Mul(ratio))
	out.Split = &models.Split{Cash: cash, Card: out.Total.Sub(cash)}
	return out
}

// Apply returns a copy of e with its derived fields recomputed from items.
func Apply(e models.InventoryEntry, items []models.InventoryItem) models.InventoryEntry {
	out := e.Clone()
	out.Items = append([]models.InventoryItem(nil), items...)
	t := Recalculate(out.Items, e.Split)
	out.Qty = t.Qty
	out.Total = t.Total
	out.Split = t.Split
	return out
}
