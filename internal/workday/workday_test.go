package workday

import (
	"testing"
	"time"

	"github.com/xolan/tpsheet/internal/holiday"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.Local)
}

type countingProvider struct {
	inner holiday.Provider
	calls map[int]int
}

func (p *countingProvider) Holidays(year int) holiday.Set {
	p.calls[year]++
	return p.inner.Holidays(year)
}

func assertDays(t *testing.T, got []CalendarDay, expected []CalendarDay) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("got %d days %v, expected %d %v", len(got), got, len(expected), expected)
	}
	for i := range expected {
		if !got[i].Date.Equal(expected[i].Date) || got[i].HoursOwed != expected[i].HoursOwed {
			t.Errorf("day %d = (%s, %d), expected (%s, %d)", i,
				got[i].Date.Format("2006-01-02"), got[i].HoursOwed,
				expected[i].Date.Format("2006-01-02"), expected[i].HoursOwed)
		}
	}
}

func TestGenerate_ThreeWorkingDays(t *testing.T) {
	got := Generate(day(2022, time.January, 10), 3, holiday.None, 8)
	assertDays(t, got, []CalendarDay{
		{day(2022, time.January, 10), 8},
		{day(2022, time.January, 11), 8},
		{day(2022, time.January, 12), 8},
	})
}

func TestGenerate_WeekendOnly(t *testing.T) {
	got := Generate(day(2022, time.January, 1), 2, holiday.None, 8)
	if got == nil {
		t.Fatal("Generate() returned nil, expected an empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Generate() = %v, expected no days", got)
	}
}

func TestGenerate_HolidayKeptAtZero(t *testing.T) {
	got := Generate(day(2022, time.August, 8), 3, holiday.Singapore(), 8)
	assertDays(t, got, []CalendarDay{
		{day(2022, time.August, 8), 8},
		{day(2022, time.August, 9), 0},
		{day(2022, time.August, 10), 8},
	})
	if !got[1].IsHoliday() || got[0].IsHoliday() {
		t.Error("IsHoliday() disagrees with HoursOwed")
	}
}

// Weekends vanish from the output while holidays stay with zero hours.
func TestGenerate_WeekendsDroppedHolidaysKept(t *testing.T) {
	// Thu 2022-04-14 .. Mon 2022-04-18, Good Friday on the 15th
	got := Generate(day(2022, time.April, 14), 5, holiday.Singapore(), 8)
	assertDays(t, got, []CalendarDay{
		{day(2022, time.April, 14), 8},
		{day(2022, time.April, 15), 0},
		{day(2022, time.April, 18), 8},
	})
	for _, d := range got {
		if wd := d.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("weekend %s emitted", d.Date.Format("2006-01-02"))
		}
	}
}

func TestGenerate_SingaporeCalendar(t *testing.T) {
	cal := holiday.Singapore()

	tests := []struct {
		name     string
		start    time.Time
		count    int
		expected []CalendarDay
	}{
		{"single day", day(2022, time.January, 10), 1, []CalendarDay{{day(2022, time.January, 10), 8}}},
		{"new year weekend", day(2022, time.January, 1), 2, []CalendarDay{}},
		{"national day", day(2022, time.August, 9), 1, []CalendarDay{{day(2022, time.August, 9), 0}}},
		{"chinese new year", day(2022, time.February, 1), 2, []CalendarDay{
			{day(2022, time.February, 1), 0},
			{day(2022, time.February, 2), 0},
		}},
		{"across weekend", day(2022, time.February, 11), 4, []CalendarDay{
			{day(2022, time.February, 11), 8},
			{day(2022, time.February, 14), 8},
		}},
		{"good friday then weekend", day(2022, time.April, 15), 2, []CalendarDay{{day(2022, time.April, 15), 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDays(t, Generate(tt.start, tt.count, cal, 8), tt.expected)
		})
	}
}

func TestGenerate_NonPositiveCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		if got := Generate(day(2022, time.January, 10), n, holiday.None, 8); len(got) != 0 {
			t.Errorf("Generate(count=%d) = %v, expected none", n, got)
		}
	}
}

func TestGenerate_DailyHours(t *testing.T) {
	got := Generate(day(2022, time.January, 10), 1, nil, 6)
	assertDays(t, got, []CalendarDay{{day(2022, time.January, 10), 6}})
}

func TestGenerate_StartIsTruncatedToMidnight(t *testing.T) {
	start := time.Date(2022, time.January, 10, 17, 30, 0, 0, time.Local)
	got := Generate(start, 1, holiday.None, 8)
	assertDays(t, got, []CalendarDay{{day(2022, time.January, 10), 8}})
}

func TestGenerate_ProviderAskedOncePerYear(t *testing.T) {
	p := &countingProvider{inner: holiday.Singapore(), calls: map[int]int{}}
	// 2022-12-26 .. 2023-01-06
	got := Generate(day(2022, time.December, 26), 12, p, 8)

	if p.calls[2022] != 1 || p.calls[2023] != 1 {
		t.Errorf("provider calls = %v, expected one per year", p.calls)
	}
	// 12-26 observed Christmas, 01-02 observed New Year
	if got[0].HoursOwed != 0 {
		t.Errorf("2022-12-26 hours = %d, expected 0", got[0].HoursOwed)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Date.After(got[i-1].Date) {
			t.Fatalf("days not chronological at %d", i)
		}
	}
}
