package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/domain/models"
)

const (
	monthlySummaryRange  = "Monthly!A:E"
	monthlySummaryHeader = "Monthly!A1:E1"
)

var monthlySummaryColumns = []interface{}{"Month", "Days", "Lines", "Total", "Discounted"}

// MonthlyPublisher appends one summary row per month to the spreadsheet.
type MonthlyPublisher struct {
	repo   Repository
	logger *zap.Logger
}

// NewMonthlyPublisher wires a publisher over repo.
func NewMonthlyPublisher(repo Repository, logger *zap.Logger) *MonthlyPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MonthlyPublisher{repo: repo, logger: logger}
}

// PublishMonthly appends the report's summary row unless the month is
// already in the sheet. It reports whether a row was written.
func (p *MonthlyPublisher) PublishMonthly(ctx context.Context, report models.MonthlyReport) (bool, error) {
	rows, err := p.repo.ReadRange(ctx, monthlySummaryRange)
	if err != nil {
		return false, fmt.Errorf("load monthly summary: %w", err)
	}
	if len(rows) == 0 {
		if err := p.repo.SetRow(ctx, monthlySummaryHeader, monthlySummaryColumns); err != nil {
			return false, fmt.Errorf("write monthly summary header: %w", err)
		}
	}
	for _, row := range rows {
		if len(row) > 0 && strings.TrimPrefix(strings.TrimSpace(fmt.Sprint(row[0])), "'") == report.Month {
			p.logger.Info("month already published", zap.String("month", report.Month))
			return false, nil
		}
	}

	var lines int
	for _, day := range report.Days {
		lines += len(day.Lines)
	}
	values := []interface{}{
		textCell(report.Month),
		len(report.Days),
		lines,
		report.GrandTotal.StringFixed(2),
		report.GrandDiscounted.StringFixed(2),
	}
	if err := p.repo.WriteRow(ctx, monthlySummaryRange, values); err != nil {
		return false, err
	}
	p.logger.Info("monthly summary published", zap.String("month", report.Month))
	return true, nil
}

// textCell keeps a USER_ENTERED value such as "2025-07" from being parsed
// into a date.
func textCell(s string) string {
	return "'" + s
}
