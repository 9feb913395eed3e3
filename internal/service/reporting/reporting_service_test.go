package reporting

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/domain/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService() *Service {
	s := NewService(dec("0.6"), nil)
	s.now = func() time.Time { return time.Date(2025, 8, 1, 6, 0, 0, 0, time.UTC) }
	return s
}

func julyEntries() []models.InventoryEntry {
	return []models.InventoryEntry{
		{
			ID:   2,
			Date: calendar.MustParseDate("2025-07-14"),
			Items: []models.InventoryItem{
				{AttrNumber: "A-1", Name: "Hat", Price: dec("12.34"), Qty: 3},
			},
		},
		{
			ID:   1,
			Date: calendar.MustParseDate("2025-07-01"),
			Items: []models.InventoryItem{
				{AttrNumber: "B-2", Name: "Coat", Price: dec("100"), Qty: 1},
			},
		},
		{
			ID:    3,
			Date:  calendar.MustParseDate("2025-08-02"),
			Items: []models.InventoryItem{{Name: "Other month", Price: dec("5"), Qty: 1}},
		},
	}
}

func TestFormatter(t *testing.T) {
	f := NewFormatter(dec("0.6"))
	assert.Equal(t, "$12.34", f.Price(dec("12.34")))
	assert.Equal(t, "x3", f.Qty(3))
	assert.Equal(t, "= $37.02", f.Total(dec("37.02")))
	assert.Equal(t, "-40% = $60.00", f.Discounted(dec("60")))
	assert.Equal(t, "$1,234.50", f.Price(dec("1234.5")))
	assert.Equal(t, "-25%", NewFormatter(dec("0.75")).DiscountLabel())
}

func TestPrettyDay(t *testing.T) {
	cases := map[string]string{
		"2025-07-14": "Monday 14th 2025",
		"2025-07-01": "Tuesday 1st 2025",
		"2025-07-02": "Wednesday 2nd 2025",
		"2025-07-03": "Thursday 3rd 2025",
		"2025-07-11": "Friday 11th 2025",
		"2025-07-22": "Tuesday 22nd 2025",
	}
	for in, want := range cases {
		assert.Equal(t, want, PrettyDay(calendar.MustParseDate(in)), in)
	}
}

func TestBuildMonthly(t *testing.T) {
	s := newTestService()
	report, err := s.BuildMonthly(julyEntries(), calendar.Month{Year: 2025, Month: time.July})
	require.NoError(t, err)

	assert.Equal(t, "2025-07", report.Month)
	assert.Equal(t, "Inventory – July 2025", report.Title)
	require.Len(t, report.Days, 2)
	assert.Equal(t, "2025-07-01", report.Days[0].Date, "days ascend")
	assert.Equal(t, "Tuesday 1st 2025", report.Days[0].Label)

	coat := report.Days[0]
	assert.True(t, dec("100").Equal(coat.Total))
	assert.True(t, dec("60").Equal(coat.Discounted))
	assert.Equal(t, "-40% = $60.00", s.Formatter().Discounted(coat.Discounted))

	hat := report.Days[1].Lines[0]
	assert.True(t, dec("37.02").Equal(hat.Total))
	assert.True(t, dec("22.21").Equal(hat.Discounted), hat.Discounted.String())

	assert.True(t, dec("137.02").Equal(report.GrandTotal))
	assert.True(t, dec("82.21").Equal(report.GrandDiscounted), report.GrandDiscounted.String())
}

func TestBuildMonthlyNoData(t *testing.T) {
	s := newTestService()
	_, err := s.BuildMonthly(julyEntries(), calendar.Month{Year: 2025, Month: time.June})
	assert.ErrorIs(t, err, ErrNoData)
	assert.EqualError(t, err, "No data for this month.")

	_, err = s.RenderPDF(models.MonthlyReport{Month: "2025-06"})
	assert.ErrorIs(t, err, ErrNoData)
	_, err = s.RenderCSV(models.MonthlyReport{Month: "2025-06"})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRenderPDF(t *testing.T) {
	s := newTestService()
	report, err := s.BuildMonthly(julyEntries(), calendar.Month{Year: 2025, Month: time.July})
	require.NoError(t, err)

	out, err := s.RenderPDF(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "inventory-July 2025.pdf", FileName(report, "pdf"))
}

func TestRenderCSV(t *testing.T) {
	s := newTestService()
	report, err := s.BuildMonthly(julyEntries(), calendar.Month{Year: 2025, Month: time.July})
	require.NoError(t, err)

	out, err := s.RenderCSV(report)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Day", "Attr #", "Name", "Price", "Qty", "Total", "Total –40%"}, rows[0])
	assert.Equal(t, []string{"Tuesday 1st 2025", "B-2", "Coat", "$100.00", "x1", "= $100.00", "-40% = $60.00"}, rows[1])
	assert.Equal(t, "Day total", rows[2][4])
	assert.Equal(t, []string{"Grand total", "", "", "", "", "= $137.02", "-40% = $82.21"}, rows[5])
	assert.Equal(t, "inventory-July 2025.csv", FileName(report, "csv"))
}
