package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/domain/models"
	"github.com/mamadbah2/salesboard/internal/service/reporting"
)

// EntrySource lists entries of a date range.
type EntrySource interface {
	Entries(ctx context.Context, r calendar.Range) ([]models.InventoryEntry, error)
}

// Archive stores built reports.
type Archive interface {
	SaveMonthlyReport(ctx context.Context, report models.MonthlyReport) error
}

// Publisher pushes a report summary somewhere visible.
type Publisher interface {
	PublishMonthly(ctx context.Context, report models.MonthlyReport) (bool, error)
}

// Options configures the monthly report job. Archive, Publisher and
// OutputDir are optional sinks.
type Options struct {
	Schedule  string
	Location  *time.Location
	OutputDir string
	Archive   Archive
	Publisher Publisher
}

// Scheduler runs the monthly report job.
type Scheduler struct {
	cron    *cron.Cron
	opts    Options
	source  EntrySource
	reports *reporting.Service
	now     func() time.Time
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(opts Options, source EntrySource, reports *reporting.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(opts.Location)),
		opts:    opts,
		source:  source,
		reports: reports,
		now:     time.Now,
		logger:  logger,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.opts.Schedule, s.runPreviousMonth); err != nil {
		return fmt.Errorf("schedule monthly report %q: %w", s.opts.Schedule, err)
	}
	s.logger.Info("starting scheduler", zap.String("schedule", s.opts.Schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runPreviousMonth() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	month := calendar.MonthOf(calendar.DateOf(s.now().In(s.opts.Location))).Previous()
	if err := s.RunMonthlyReport(ctx, month); err != nil {
		if errors.Is(err, reporting.ErrNoData) {
			s.logger.Info("no entries for month, skipping report", zap.String("month", month.String()))
			return
		}
		s.logger.Error("monthly report failed", zap.String("month", month.String()), zap.Error(err))
	}
}

// RunMonthlyReport builds the report of month and hands it to every
// configured sink. A failing sink does not stop the others.
func (s *Scheduler) RunMonthlyReport(ctx context.Context, month calendar.Month) error {
	entries, err := s.source.Entries(ctx, month.Range())
	if err != nil {
		return fmt.Errorf("load entries for %s: %w", month, err)
	}
	report, err := s.reports.BuildMonthly(entries, month)
	if err != nil {
		return err
	}

	log := s.logger.With(zap.String("month", report.Month))
	var errs []error

	if s.opts.Archive != nil {
		if err := s.opts.Archive.SaveMonthlyReport(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("archive: %w", err))
		} else {
			log.Info("monthly report archived")
		}
	}

	if s.opts.Publisher != nil {
		if _, err := s.opts.Publisher.PublishMonthly(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}

	if s.opts.OutputDir != "" {
		if err := s.writePDF(report); err != nil {
			errs = append(errs, err)
		} else {
			log.Info("monthly report written", zap.String("dir", s.opts.OutputDir))
		}
	}

	return errors.Join(errs...)
}

func (s *Scheduler) writePDF(report models.MonthlyReport) error {
	data, err := s.reports.RenderPDF(report)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(s.opts.OutputDir, reporting.FileName(report, "pdf"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
