// Package workday expands a start date and a count into the weekdays that need hours booked.
package workday

import (
	"time"

	"github.com/xolan/tpsheet/internal/holiday"
	"github.com/xolan/tpsheet/internal/timeutil"
)

// CalendarDay is a weekday with the hours owed on it. Holidays owe zero hours.
type CalendarDay struct {
	Date      time.Time
	HoursOwed int
}

// IsHoliday reports whether the day owes no hours.
func (d CalendarDay) IsHoliday() bool {
	return d.HoursOwed == 0
}

// Generate walks count consecutive calendar days from start. Saturdays and
// Sundays are dropped entirely; they are not emitted and do not extend the
// walk. Holidays are kept with zero hours. The holiday provider is asked
// once per distinct year.
func Generate(start time.Time, count int, provider holiday.Provider, dailyHours int) []CalendarDay {
	days := []CalendarDay{}
	if count <= 0 {
		return days
	}
	if provider == nil {
		provider = holiday.None
	}

	start = timeutil.StartOfDay(start)
	byYear := map[int]holiday.Set{}
	for i := 0; i < count; i++ {
		day := timeutil.AddDays(start, i)
		if timeutil.IsWeekend(day) {
			continue
		}

		set, ok := byYear[day.Year()]
		if !ok {
			set = provider.Holidays(day.Year())
			byYear[day.Year()] = set
		}

		hours := dailyHours
		if set.Contains(day) {
			hours = 0
		}
		days = append(days, CalendarDay{Date: day, HoursOwed: hours})
	}
	return days
}
