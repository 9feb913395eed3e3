package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyReport is the export of one month grouped by day.
type MonthlyReport struct {
	Month           string          `json:"month"`
	Title           string          `json:"title"`
	DiscountRate    decimal.Decimal `json:"discount_rate"`
	Days            []DayReport     `json:"days"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	GrandDiscounted decimal.Decimal `json:"grand_discounted"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DayReport holds the lines and totals of one day.
type DayReport struct {
	Date       string          `json:"date"`
	Label      string          `json:"label"`
	Lines      []ReportLine    `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	Discounted decimal.Decimal `json:"discounted"`
}

// ReportLine is one item line of a day.
type ReportLine struct {
	AttrNumber string          `json:"attr_number"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Qty        int             `json:"qty"`
	Total      decimal.Decimal `json:"total"`
	Discounted decimal.Decimal `json:"discounted"`
}
