package reporting

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/domain/models"
	"github.com/mamadbah2/salesboard/internal/totals"
)

// NoDataMessage is shown when a month has no entries.
const NoDataMessage = "No data for this month."

// ErrNoData is returned when a month has no entries; no file is produced.
var ErrNoData = errors.New(NoDataMessage)

// Service builds monthly exports.
type Service struct {
	format *Formatter
	now    func() time.Time
	logger *zap.Logger
}

// NewService wires a new reporting service with the given discount rate.
func NewService(rate decimal.Decimal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{format: NewFormatter(rate), now: time.Now, logger: logger}
}

// Formatter returns the value formatter used by the renderers.
func (s *Service) Formatter() *Formatter {
	return s.format
}

// BuildMonthly groups the entries of month by day. Line, day and grand totals
// are rounded to the cent; discounted totals apply the rate to each of them.
func (s *Service) BuildMonthly(entries []models.InventoryEntry, month calendar.Month) (models.MonthlyReport, error) {
	grouped := make(map[calendar.Date][]models.InventoryEntry)
	for _, e := range entries {
		if month.Contains(e.Date) {
			grouped[e.Date] = append(grouped[e.Date], e)
		}
	}
	if len(grouped) == 0 {
		return models.MonthlyReport{}, ErrNoData
	}

	days := make([]calendar.Date, 0, len(grouped))
	for d := range grouped {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	rate := s.format.Rate()
	report := models.MonthlyReport{
		Month:        month.String(),
		Title:        "Inventory – " + month.Pretty(),
		DiscountRate: rate,
		CreatedAt:    s.now().UTC(),
	}

	grand := decimal.Zero
	for _, d := range days {
		day := models.DayReport{Date: d.String(), Label: PrettyDay(d)}
		sum := decimal.Zero
		for _, e := range grouped[d] {
			for _, it := range e.Items {
				line := totals.LineTotal(it)
				sum = sum.Add(line)
				day.Lines = append(day.Lines, models.ReportLine{
					AttrNumber: it.AttrNumber,
					Name:       it.Name,
					Price:      it.Price,
					Qty:        it.Qty,
					Total:      totals.Round2(line),
					Discounted: totals.Round2(line.Mul(rate)),
				})
			}
		}
		day.Total = totals.Round2(sum)
		day.Discounted = totals.Round2(sum.Mul(rate))
		grand = grand.Add(sum)
		report.Days = append(report.Days, day)
	}

	report.GrandTotal = totals.Round2(grand)
	report.GrandDiscounted = totals.Round2(report.GrandTotal.Mul(rate))

	s.logger.Debug("monthly report built",
		zap.String("month", report.Month),
		zap.Int("days", len(report.Days)),
		zap.String("grand_total", report.GrandTotal.StringFixed(2)))

	return report, nil
}

// FileName is the download name of a report, e.g. "inventory-July 2025.pdf".
func FileName(report models.MonthlyReport, ext string) string {
	pretty := report.Month
	if m, err := calendar.ParseMonth(report.Month); err == nil {
		pretty = m.Pretty()
	}
	return fmt.Sprintf("inventory-%s.%s", pretty, ext)
}
