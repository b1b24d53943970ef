package service

import (
	"time"

	"github.com/xolan/tpsheet/internal/holiday"
)

// HolidayYear is one year of the calendar in use.
type HolidayYear struct {
	Calendar string
	Year     int
	// FromTable is false when the year was filled in from fixed-date rules.
	FromTable bool
	Days      []HolidayDay
}

// HolidayDay is a single holiday.
type HolidayDay struct {
	Date time.Time
	Name string
}

// HolidayService lists the holidays the day generator uses
type HolidayService struct {
	calendar *holiday.Calendar
}

// NewHolidayService creates a new HolidayService
func NewHolidayService(cal *holiday.Calendar) *HolidayService {
	return &HolidayService{calendar: cal}
}

// Provider returns the calendar as a holiday.Provider.
func (s *HolidayService) Provider() holiday.Provider {
	return s.calendar
}

// Year returns the holidays of year in date order.
func (s *HolidayService) Year(year int) HolidayYear {
	set := s.calendar.Holidays(year)
	out := HolidayYear{
		Calendar:  s.calendar.Name(),
		Year:      year,
		FromTable: s.calendar.Covers(year),
	}
	for _, d := range set.Dates() {
		date, err := time.ParseInLocation("2006-01-02", d, time.Local)
		if err != nil {
			continue
		}
		out.Days = append(out.Days, HolidayDay{Date: date, Name: set[d]})
	}
	return out
}

// Years returns the years covered by the calendar table.
func (s *HolidayService) Years() []int {
	return s.calendar.Years()
}
