// Package sanity guards against submitting hours for a start date far from today.
package sanity

import (
	"time"

	"github.com/xolan/tpsheet/internal/timeutil"
)

// Threshold is the configured guard window.
type Threshold struct {
	Enabled   bool
	RangeDays int
}

// Prompt describes a start date that fell outside the window.
type Prompt struct {
	Date      time.Time
	Today     time.Time
	Distance  int // whole days, always positive
	RangeDays int
}

// Future reports whether the date lies after today.
func (p Prompt) Future() bool {
	return p.Date.After(p.Today)
}

// ConfirmFunc asks whether to proceed with an out-of-range date.
type ConfirmFunc func(Prompt) bool

// Check returns true when the run may proceed. Dates within the window pass
// without calling confirm; a nil confirm declines.
func Check(date, today time.Time, threshold Threshold, confirm ConfirmFunc) bool {
	if !threshold.Enabled {
		return true
	}

	distance := timeutil.AbsDays(today, date)
	if distance <= threshold.RangeDays {
		return true
	}
	if confirm == nil {
		return false
	}
	return confirm(Prompt{
		Date:      timeutil.StartOfDay(date),
		Today:     timeutil.StartOfDay(today),
		Distance:  distance,
		RangeDays: threshold.RangeDays,
	})
}

// Always is a ConfirmFunc that accepts every prompt, used for --yes.
func Always(Prompt) bool { return true }
