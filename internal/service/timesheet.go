package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xolan/tpsheet/internal/apperr"
	"github.com/xolan/tpsheet/internal/clockify"
	"github.com/xolan/tpsheet/internal/config"
	"github.com/xolan/tpsheet/internal/entry"
	"github.com/xolan/tpsheet/internal/holiday"
	"github.com/xolan/tpsheet/internal/journal"
	"github.com/xolan/tpsheet/internal/sanity"
	"github.com/xolan/tpsheet/internal/submit"
	"github.com/xolan/tpsheet/internal/timeutil"
	"github.com/xolan/tpsheet/internal/workday"
)

// MaxCount caps how many calendar days one run may walk.
const MaxCount = 366

// Journal records each day's outcome.
type Journal interface {
	Record(ctx context.Context, rec journal.Record) (journal.Record, error)
}

// Timesheet runs submissions.
type Timesheet struct {
	config   config.Config
	holidays holiday.Provider
	connect  Connector
	form     FormSubmitter
	journal  Journal
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Timesheet.
type Option func(*Timesheet)

// WithConnector replaces the Clockify connector.
func WithConnector(c Connector) Option {
	return func(t *Timesheet) { t.connect = c }
}

// WithFormSubmitter hands every day to f after it was submitted.
func WithFormSubmitter(f FormSubmitter) Option {
	return func(t *Timesheet) { t.form = f }
}

// WithJournal records every day's outcome in j.
func WithJournal(j Journal) Option {
	return func(t *Timesheet) { t.journal = j }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Timesheet) { t.log = l }
}

// WithClock sets the clock used when a Request has no Today.
func WithClock(now func() time.Time) Option {
	return func(t *Timesheet) { t.now = now }
}

// NewTimesheet creates a Timesheet for cfg. The Clockify connector is used
// unless WithConnector says otherwise.
func NewTimesheet(cfg config.Config, holidays holiday.Provider, opts ...Option) *Timesheet {
	t := &Timesheet{
		config:   cfg,
		holidays: holidays,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.holidays == nil {
		t.holidays = holiday.None
	}
	if t.connect == nil {
		t.connect = ClockifyConnector(cfg, t.log)
	}
	return t
}

// ClockifyConnector connects to the configured Clockify API. The identity
// lookup happens once per call.
func ClockifyConnector(cfg config.Config, log *slog.Logger) Connector {
	return func(ctx context.Context) (DaySubmitter, error) {
		client, err := clockify.New(cfg.BaseURL, cfg.APIKey,
			clockify.WithTimeout(cfg.RequestTimeout()),
			clockify.WithLogger(log))
		if err != nil {
			return nil, err
		}

		loc, err := cfg.Location()
		if err != nil {
			loc = time.Local
		}
		resolver, err := clockify.NewResolver(ctx, client, cfg.Tasks, cfg.Locale, clockify.NewCache(),
			clockify.WithFallbackLocation(loc),
			clockify.WithResolverLogger(log))
		if err != nil {
			return nil, err
		}
		return submit.New(client, resolver, log), nil
	}
}

// Run resolves the start date, expands it into days, runs the sanity check
// and then submits every day in order. Local checks all happen before any
// network access. The first failing day stops the run; days already
// submitted stay submitted.
func (t *Timesheet) Run(ctx context.Context, req Request) (Report, error) {
	report := Report{RunID: uuid.New().String(), DryRun: req.DryRun}
	log := t.log.With("run_id", report.RunID)

	today, err := t.today(req.Today)
	if err != nil {
		return report, err
	}
	report.Today = today

	res, err := timeutil.ResolveDetailed(req.Start, today)
	if err != nil {
		return report, err
	}
	report.Resolution = res
	start := res.Date
	if res.Ambiguous {
		log.Warn("date.ambiguous", "token", req.Start,
			"chosen", start.Format(timeutil.DateLayout),
			"alternative", res.Alternative.Format(timeutil.DateLayout))
		report.Notices = append(report.Notices, fmt.Sprintf(
			"%q is equally close to %s and %s; using %s (day first). Pass a 4-digit year to choose.",
			req.Start, start.Format(timeutil.DateLayout), res.Alternative.Format(timeutil.DateLayout),
			start.Format(timeutil.DateLayout)))
	}

	if req.Count < 1 || req.Count > MaxCount {
		return report, apperr.Validation("check count", fmt.Sprint(req.Count),
			fmt.Errorf("count must be between 1 and %d", MaxCount))
	}

	workAlloc, holidayAlloc, err := t.allocations(req.Allocation)
	if err != nil {
		return report, err
	}

	report.Days = workday.Generate(start, req.Count, t.holidays, t.config.DailyHours)
	log.Info("run.planned",
		"start", start.Format(timeutil.DateLayout), "count", req.Count,
		"days", len(report.Days), "allocation", workAlloc.String(), "dry_run", req.DryRun)
	if len(report.Days) == 0 {
		report.Notices = append(report.Notices, "No weekdays in the requested range; nothing to submit.")
		return report, nil
	}

	threshold := sanity.Threshold{Enabled: t.config.SanityCheck.Enabled, RangeDays: t.config.SanityCheck.RangeDays}
	if !sanity.Check(start, today, threshold, req.Confirm) {
		log.Info("run.aborted", "start", start.Format(timeutil.DateLayout))
		return report, apperr.Aborted("confirm start date", start.Format(timeutil.DateLayout))
	}

	submitter, err := t.connect(ctx)
	if err != nil {
		return report, err
	}

	for _, day := range report.Days {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		alloc := workAlloc
		if day.IsHoliday() {
			alloc = holidayAlloc
		}
		dr := DayReport{Day: day, Allocation: alloc}
		dr.Result, dr.Err = submitter.Submit(ctx, day.Date, alloc, req.DryRun)
		if dr.Err == nil && t.form != nil {
			dr.Err = t.submitForm(ctx, day, req.DryRun)
		}
		t.record(ctx, log, report.RunID, dr, req.DryRun)

		if dr.Err != nil {
			log.Error("run.day_failed", "date", day.Date.Format(timeutil.DateLayout), "err", dr.Err)
			report.Failed = &dr
			return report, fmt.Errorf("%s: %w", day.Date.Format(timeutil.DateLayout), dr.Err)
		}
		report.Completed = append(report.Completed, dr)
	}

	log.Info("run.completed", "days", len(report.Completed), "hours", report.Hours())
	return report, nil
}

func (t *Timesheet) today(given time.Time) (time.Time, error) {
	if !given.IsZero() {
		return timeutil.StartOfDay(given), nil
	}
	loc, err := t.config.Location()
	if err != nil {
		return time.Time{}, apperr.Validation("load timezone", t.config.Timezone, err)
	}
	return timeutil.StartOfDay(t.now().In(loc)), nil
}

// allocations returns the working-day allocation and the one used on holidays.
func (t *Timesheet) allocations(requested entry.Allocation) (entry.Allocation, entry.Allocation, error) {
	daily := t.config.DailyHours

	work := requested
	if work.Len() == 0 {
		var err error
		if work, err = entry.Single(config.DefaultTask, daily); err != nil {
			return entry.Allocation{}, entry.Allocation{}, err
		}
	}
	if work.Total() != daily {
		return entry.Allocation{}, entry.Allocation{}, apperr.Validation("check task allocation", work.String(),
			fmt.Errorf("hours must sum to daily_hours (%d)", daily))
	}
	if err := work.CheckCodes(t.knownTask); err != nil {
		return entry.Allocation{}, entry.Allocation{}, err
	}

	hol, err := entry.Single(config.HolidayTask, daily)
	if err != nil {
		return entry.Allocation{}, entry.Allocation{}, err
	}
	if err := hol.CheckCodes(t.knownTask); err != nil {
		return entry.Allocation{}, entry.Allocation{}, err
	}
	return work, hol, nil
}

func (t *Timesheet) knownTask(code string) bool {
	_, ok := t.config.Tasks[code]
	return ok
}

func (t *Timesheet) submitForm(ctx context.Context, day workday.CalendarDay, dryRun bool) error {
	err := t.form.Submit(ctx, FormRequest{
		URL:    t.config.FormURL,
		Email:  t.config.Email,
		Date:   day.Date,
		Hours:  day.HoursOwed,
		DryRun: dryRun,
	})
	if err == nil {
		return nil
	}
	var re *apperr.RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &apperr.RemoteError{Op: "submit timesheet form", Method: "FORM", Path: t.config.FormURL, Err: err}
}

func (t *Timesheet) record(ctx context.Context, log *slog.Logger, runID string, dr DayReport, dryRun bool) {
	if t.journal == nil {
		return
	}
	rec := journal.Record{
		RunID:    runID,
		Date:     dr.Day.Date,
		Hours:    dr.Day.HoursOwed,
		Tasks:    dr.Allocation.String(),
		Status:   journal.StatusSubmitted,
		EntryIDs: dr.Result.CreatedIDs(),
	}
	switch {
	case dr.Err != nil:
		rec.Status = journal.StatusFailed
		rec.Error = dr.Err.Error()
	case dryRun:
		rec.Status = journal.StatusDryRun
	}
	if _, err := t.journal.Record(ctx, rec); err != nil {
		log.Warn("journal.record_failed", "date", dr.Day.Date.Format(timeutil.DateLayout), "err", err)
	}
}
