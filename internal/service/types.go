// Package service provides the business logic layer for tpsheet. It ties the
// date engine, the submission engine, the holiday calendar and the journal
// together behind an API the CLI can drive.
package service

import (
	"context"
	"time"

	"github.com/xolan/tpsheet/internal/entry"
	"github.com/xolan/tpsheet/internal/sanity"
	"github.com/xolan/tpsheet/internal/submit"
	"github.com/xolan/tpsheet/internal/timeutil"
	"github.com/xolan/tpsheet/internal/workday"
)

// Request is the input of one submission run.
type Request struct {
	// Start is the user's date token ("today", "05/02/22", ...)
	Start string
	// Count is the number of consecutive calendar days to walk
	Count int
	// Allocation splits a working day across tasks; empty means the whole day on the default task
	Allocation entry.Allocation
	DryRun     bool
	// Today anchors date resolution; zero means now in the configured timezone
	Today time.Time
	// Confirm is asked when the start date is outside the sanity window
	Confirm sanity.ConfirmFunc
}

// DaySubmitter writes one day's entries.
type DaySubmitter interface {
	Submit(ctx context.Context, date time.Time, alloc entry.Allocation, dryRun bool) (submit.Result, error)
}

// Connector builds a DaySubmitter. It runs only after every local check passed.
type Connector func(ctx context.Context) (DaySubmitter, error)

// FormRequest is what the external timesheet form needs for one day.
type FormRequest struct {
	URL    string
	Email  string
	Date   time.Time
	Hours  int
	DryRun bool
}

// FormSubmitter fills the external timesheet form. Implementations live
// outside this module.
type FormSubmitter interface {
	Submit(ctx context.Context, req FormRequest) error
}

// DayReport is the outcome for one generated day.
type DayReport struct {
	Day        workday.CalendarDay
	Allocation entry.Allocation
	Result     submit.Result
	Err        error
}

// Report summarizes a run. On failure it holds the days completed so far and
// the failing day.
type Report struct {
	RunID      string
	Today      time.Time
	Resolution timeutil.Resolution
	Days       []workday.CalendarDay
	Completed  []DayReport
	Failed     *DayReport
	DryRun     bool
	Notices    []string
}

// Start returns the resolved start date.
func (r Report) Start() time.Time {
	return r.Resolution.Date
}

// Hours returns the hours owed over the completed days.
func (r Report) Hours() int {
	total := 0
	for _, d := range r.Completed {
		total += d.Day.HoursOwed
	}
	return total
}
