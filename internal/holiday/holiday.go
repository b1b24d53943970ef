// Package holiday supplies the public holidays used to decide which weekdays owe no hours.
package holiday

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

//go:embed data/singapore.yaml
var singaporeYAML []byte

// Set maps ISO dates (YYYY-MM-DD) to holiday names.
type Set map[string]string

// Contains reports whether t's calendar date is a holiday.
func (s Set) Contains(t time.Time) bool {
	_, ok := s[t.Format(dateLayout)]
	return ok
}

// Name returns the holiday name for t's calendar date.
func (s Set) Name(t time.Time) (string, bool) {
	name, ok := s[t.Format(dateLayout)]
	return name, ok
}

// Dates returns the set's dates in ascending order.
func (s Set) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Provider returns the holidays of a year.
type Provider interface {
	Holidays(year int) Set
}

// Func adapts a plain function to Provider.
type Func func(year int) Set

// Holidays calls f.
func (f Func) Holidays(year int) Set { return f(year) }

// None is a Provider without holidays.
var None Provider = Func(func(int) Set { return Set{} })

type fileEntry struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

type fileFormat struct {
	Calendar string      `yaml:"calendar"`
	Holidays []fileEntry `yaml:"holidays"`
}

// Calendar is a Provider backed by a table of dates. Years missing from the
// table fall back to RuleHolidays, with a warning logged once per year.
type Calendar struct {
	name   string
	byYear map[int]Set
	log    *slog.Logger

	mu     sync.Mutex
	warned map[int]bool
}

// Parse reads a YAML calendar:
//
//	calendar: Singapore
//	holidays:
//	  - {date: "2022-08-09", name: "National Day"}
func Parse(data []byte) (*Calendar, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid holiday calendar: %w", err)
	}
	if len(f.Holidays) == 0 {
		return nil, errors.New("invalid holiday calendar: no holidays listed")
	}

	byYear := make(map[int]Set)
	for i, h := range f.Holidays {
		d, err := time.Parse(dateLayout, strings.TrimSpace(h.Date))
		if err != nil {
			return nil, fmt.Errorf("invalid holiday calendar: entry %d: date %q: use YYYY-MM-DD", i+1, h.Date)
		}
		name := strings.TrimSpace(h.Name)
		if name == "" {
			name = "Holiday"
		}
		set, ok := byYear[d.Year()]
		if !ok {
			set = Set{}
			byYear[d.Year()] = set
		}
		set[d.Format(dateLayout)] = name
	}

	name := strings.TrimSpace(f.Calendar)
	if name == "" {
		name = "custom"
	}
	return &Calendar{name: name, byYear: byYear, warned: map[int]bool{}}, nil
}

// LoadFile reads a YAML calendar from disk.
func LoadFile(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}
	cal, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cal, nil
}

// Singapore returns the built-in Singapore calendar.
func Singapore() *Calendar {
	cal, err := Parse(singaporeYAML)
	if err != nil {
		panic("holiday: embedded calendar is invalid: " + err.Error())
	}
	return cal
}

// Load returns the calendar at path, or the built-in one when path is empty.
func Load(path string, log *slog.Logger) (*Calendar, error) {
	var cal *Calendar
	if path == "" {
		cal = Singapore()
	} else {
		var err error
		if cal, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	cal.log = log
	return cal, nil
}

// Name returns the calendar's display name.
func (c *Calendar) Name() string { return c.name }

// Years returns the years covered by the table, ascending.
func (c *Calendar) Years() []int {
	years := make([]int, 0, len(c.byYear))
	for y := range c.byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Covers reports whether year comes from the table rather than the rules.
func (c *Calendar) Covers(year int) bool {
	_, ok := c.byYear[year]
	return ok
}

// Holidays implements Provider.
func (c *Calendar) Holidays(year int) Set {
	if set, ok := c.byYear[year]; ok {
		return set
	}

	c.mu.Lock()
	first := !c.warned[year]
	c.warned[year] = true
	c.mu.Unlock()
	if first && c.log != nil {
		c.log.Warn("holiday.table_missing_year",
			"calendar", c.name, "year", year,
			"fallback", "fixed-date rules only")
	}
	return RuleHolidays(year)
}
