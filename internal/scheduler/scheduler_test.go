package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/domain/models"
	"github.com/mamadbah2/salesboard/internal/service/reporting"
)

type staticSource []models.InventoryEntry

func (s staticSource) Entries(_ context.Context, r calendar.Range) ([]models.InventoryEntry, error) {
	var out []models.InventoryEntry
	for _, e := range s {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

type archiveFunc func(models.MonthlyReport) error

func (f archiveFunc) SaveMonthlyReport(_ context.Context, r models.MonthlyReport) error { return f(r) }

type publisherFunc func(models.MonthlyReport) error

func (f publisherFunc) PublishMonthly(_ context.Context, r models.MonthlyReport) (bool, error) {
	return true, f(r)
}

func julySource() staticSource {
	return staticSource{{
		ID:    1,
		Date:  calendar.MustParseDate("2025-07-14"),
		Items: []models.InventoryItem{{AttrNumber: "A-1", Name: "Hat", Price: decimal.RequireFromString("100"), Qty: 1}},
	}}
}

func TestRunMonthlyReportFeedsEverySink(t *testing.T) {
	dir := t.TempDir()
	var archived, published []string

	s := NewScheduler(Options{
		Schedule:  "0 6 1 * *",
		OutputDir: dir,
		Archive: archiveFunc(func(r models.MonthlyReport) error {
			archived = append(archived, r.Month)
			return nil
		}),
		Publisher: publisherFunc(func(r models.MonthlyReport) error {
			published = append(published, r.Month)
			return errors.New("sheets quota")
		}),
	}, julySource(), reporting.NewService(decimal.RequireFromString("0.6"), nil), nil)

	err := s.RunMonthlyReport(context.Background(), calendar.Month{Year: 2025, Month: time.July})
	require.Error(t, err, "publisher failure is reported")
	assert.Contains(t, err.Error(), "sheets quota")

	assert.Equal(t, []string{"2025-07"}, archived)
	assert.Equal(t, []string{"2025-07"}, published)

	data, err := os.ReadFile(filepath.Join(dir, "inventory-July 2025.pdf"))
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
}

func TestRunMonthlyReportNoData(t *testing.T) {
	dir := t.TempDir()
	s := NewScheduler(Options{OutputDir: dir}, julySource(), reporting.NewService(decimal.RequireFromString("0.6"), nil), nil)

	err := s.RunMonthlyReport(context.Background(), calendar.Month{Year: 2025, Month: time.June})
	assert.ErrorIs(t, err, reporting.ErrNoData)

	files, _ := os.ReadDir(dir)
	assert.Empty(t, files)
}

func TestRunPreviousMonth(t *testing.T) {
	dir := t.TempDir()
	s := NewScheduler(Options{OutputDir: dir}, julySource(), reporting.NewService(decimal.RequireFromString("0.6"), nil), nil)
	s.now = func() time.Time { return time.Date(2025, 8, 1, 6, 0, 0, 0, time.UTC) }

	s.runPreviousMonth()

	_, err := os.Stat(filepath.Join(dir, "inventory-July 2025.pdf"))
	assert.NoError(t, err)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(Options{Schedule: "every tuesday"}, julySource(), reporting.NewService(decimal.RequireFromString("0.6"), nil), nil)
	assert.Error(t, s.Start())

	ok := NewScheduler(Options{Schedule: "0 6 1 * *"}, julySource(), reporting.NewService(decimal.RequireFromString("0.6"), nil), nil)
	require.NoError(t, ok.Start())
	ok.Stop()
}
