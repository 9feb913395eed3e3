package reporting

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/totals"
)

// Formatter renders report values the way the exports print them.
type Formatter struct {
	rate    decimal.Decimal
	label   string
	printer *message.Printer
}

// NewFormatter builds a formatter for the given discount rate (0.6 prints
// as "-40%").
func NewFormatter(rate decimal.Decimal) *Formatter {
	off := decimal.NewFromInt(1).Sub(rate).Mul(decimal.NewFromInt(100))
	return &Formatter{
		rate:    rate,
		label:   "-" + off.String() + "%",
		printer: message.NewPrinter(language.AmericanEnglish),
	}
}

// Rate is the discount multiplier.
func (f *Formatter) Rate() decimal.Decimal { return f.rate }

// DiscountLabel is "-40%" for a 0.6 rate.
func (f *Formatter) DiscountLabel() string { return f.label }

// Amount prints v with two decimals and en-US grouping: "1,234.50".
func (f *Formatter) Amount(v decimal.Decimal) string {
	return f.printer.Sprintf("%.2f", totals.Round2(v).InexactFloat64())
}

// Price prints "$12.34".
func (f *Formatter) Price(v decimal.Decimal) string { return "$" + f.Amount(v) }

// Qty prints "x3".
func (f *Formatter) Qty(q int) string { return fmt.Sprintf("x%d", q) }

// Total prints "= $37.02".
func (f *Formatter) Total(v decimal.Decimal) string { return "= $" + f.Amount(v) }

// Discounted prints "-40% = $22.21".
func (f *Formatter) Discounted(v decimal.Decimal) string {
	return f.label + " = $" + f.Amount(v)
}

// PrettyDay prints "Monday 14th 2025".
func PrettyDay(d calendar.Date) string {
	return fmt.Sprintf("%s %d%s %d", d.Weekday(), d.Day, ordinal(d.Day), d.Year)
}

func ordinal(day int) string {
	switch {
	case day%10 == 1 && day != 11:
		return "st"
	case day%10 == 2 && day != 12:
		return "nd"
	case day%10 == 3 && day != 13:
		return "rd"
	default:
		return "th"
	}
}
