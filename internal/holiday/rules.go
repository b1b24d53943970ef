package holiday

import "time"

// RuleHolidays returns the holidays that follow a fixed rule: New Year's Day,
// Good Friday, Labour Day, National Day and Christmas Day. A holiday on a
// Sunday is also observed on the following Monday. Lunar holidays are not
// computable this way and only come from a calendar table.
func RuleHolidays(year int) Set {
	set := Set{}
	add := func(d time.Time, name string) {
		set[d.Format(dateLayout)] = name
		if d.Weekday() == time.Sunday {
			set[d.AddDate(0, 0, 1).Format(dateLayout)] = name + " (observed)"
		}
	}

	add(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), "New Year's Day")
	add(Easter(year).AddDate(0, 0, -2), "Good Friday")
	add(time.Date(year, time.May, 1, 0, 0, 0, 0, time.UTC), "Labour Day")
	add(time.Date(year, time.August, 9, 0, 0, 0, 0, time.UTC), "National Day")
	add(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC), "Christmas Day")
	return set
}

// Easter returns Western Easter Sunday for year (anonymous Gregorian algorithm).
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
